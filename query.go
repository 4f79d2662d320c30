package xsqlgraph

import (
	"context"
	"reflect"
)

// Query executes the SQL query and assembles the result rows into the
// distinct root entities of type T, in first-seen order.
//
// l describes the entity positions, the split specifier and the relation
// func; nil maps T alone, split on "id". See [Assemble] for the mapping
// rules. Column mapping prefers `db:"name"` tags; otherwise it matches
// case-insensitive field names.
//
// The whole result is read before anything is returned. Safe for concurrent
// use, Query shares a lazily-initialized, concurrency-safe descriptor cache
// based on [sync.Map].
//
// Example:
//
//	// Given a *sql.DB (or *sql.Tx, *sql.Conn) in variable `db`:
//	type Line struct {
//	    ID  int64  `db:"line_id"`
//	    SKU string `db:"sku"`
//	}
//	type Order struct {
//	    ID    int64  `db:"id"`
//	    Email string `db:"email"`
//	    Lines []Line
//	}
//
//	ctx := context.Background()
//	orders, err := xsqlgraph.Query[*Order](ctx, db,
//	    xsqlgraph.NewLayout(xsqlgraph.SplitOn("id,line_id"), xsqlgraph.Include[[]Line]()),
//	    `SELECT o.id, o.email, l.id AS line_id, l.sku
//	       FROM orders o LEFT JOIN lines l ON l.order_id = o.id
//	      ORDER BY o.id`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, o := range orders {
//	    fmt.Println(o.ID, len(o.Lines))
//	}
func Query[T any](ctx context.Context, q Querier, l *Layout, query string, args ...any) (out []T, err error) {
	ctx, span := startSpan(ctx, "xsqlgraph.Query", l)
	defer func() { endSpan(span, err) }()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// Propagate rows.Close() error if nothing else failed.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cur, err := NewRowsCursor(rows)
	if err != nil {
		return nil, err
	}
	res, err := getMapper().assemble(cur, reflect.TypeFor[T](), l)
	if err != nil {
		return nil, err
	}
	recordAssembly(span, res)
	return collectRoots[T](res), nil
}
