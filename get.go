package xsqlgraph

import (
	"context"
	"database/sql"
	"reflect"
)

// Get executes the SQL query and returns the first root entity of type T,
// fully assembled.
//
// It returns [sql.ErrNoRows] if the query yields no root. Every row is still
// read, since any row may contribute to the first root's relations; use a
// WHERE clause to restrict the query to one root when that matters.
//
// l is interpreted as in [Query]; nil maps T alone, split on "id".
//
// Example:
//
//	// Given a *sql.DB (or *sql.Tx, *sql.Conn) in variable `db`:
//	type User struct {
//	    ID    int64  `db:"id"`
//	    Email string `db:"email"`
//	    Roles []Role
//	}
//
//	ctx := context.Background()
//	u, err := xsqlgraph.Get[*User](ctx, db,
//	    xsqlgraph.NewLayout(xsqlgraph.SplitOn("id,role_id"), xsqlgraph.Include[[]Role]()),
//	    `SELECT u.id, u.email, r.id AS role_id, r.name
//	       FROM users u LEFT JOIN roles r ON r.user_id = u.id
//	      WHERE u.id = $1`, 42)
//	if err != nil {
//	    if errors.Is(err, sql.ErrNoRows) {
//	        // handle not found
//	    } else {
//	        // handle other errors
//	    }
//	}
//	// use u
func Get[T any](ctx context.Context, q Querier, l *Layout, query string, args ...any) (out T, err error) {
	ctx, span := startSpan(ctx, "xsqlgraph.Get", l)
	defer func() { endSpan(span, err) }()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return out, err
	}
	// Ensure Close error is propagated if no earlier error occurred.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cur, err := NewRowsCursor(rows)
	if err != nil {
		return out, err
	}
	res, err := getMapper().assemble(cur, reflect.TypeFor[T](), l)
	if err != nil {
		return out, err
	}
	recordAssembly(span, res)
	if len(res.roots) == 0 {
		return out, sql.ErrNoRows
	}
	return res.roots[0].Interface().(T), nil
}
