package xsqlgraph

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type shopLine struct {
	ID       int64           `db:"line_id"`
	SKU      string          `db:"sku"`
	Qty      uint16          `db:"qty"`
	Price    decimal.Decimal `db:"price"`
	Discount *float32        `db:"discount"`
}

type shopCustomer struct {
	ID    int64  `db:"customer_id"`
	Email string `db:"email"`
}

type shopOrder struct {
	ID       int64     `db:"id"`
	Ref      uuid.UUID `db:"ref"`
	Placed   time.Time `db:"placed_at"`
	Grade    Char      `db:"grade"`
	Lines    []shopLine
	Customer *shopCustomer
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, ref TEXT NOT NULL, placed_at DATETIME NOT NULL, grade TEXT, customer_id INTEGER REFERENCES customers(id))`,
		`CREATE TABLE lines (id INTEGER PRIMARY KEY, order_id INTEGER NOT NULL REFERENCES orders(id), sku TEXT NOT NULL, qty INTEGER NOT NULL, price NUMERIC NOT NULL, discount REAL)`,
		`INSERT INTO customers (id, email) VALUES (1, 'ada@example.com'), (2, 'bob@example.com')`,
		`INSERT INTO orders (id, ref, placed_at, grade, customer_id) VALUES
			(100, '0b1f5a56-2c0c-4d7b-a1b8-e1e4f1a8a001', '2024-01-02 03:04:05', 'A', 1),
			(101, '0b1f5a56-2c0c-4d7b-a1b8-e1e4f1a8a002', '2024-02-03 04:05:06', 'B', 2),
			(102, '0b1f5a56-2c0c-4d7b-a1b8-e1e4f1a8a003', '2024-03-04 05:06:07', NULL, NULL)`,
		`INSERT INTO lines (id, order_id, sku, qty, price, discount) VALUES
			(1, 100, 'apple', 3, '1.25', 0.5),
			(2, 100, 'pear', 1, '2.50', NULL),
			(3, 101, 'plum', 65000, '0.10', NULL)`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

const shopQuery = `
SELECT o.id, o.ref, o.placed_at, o.grade,
       l.id AS line_id, l.sku, l.qty, l.price, l.discount,
       c.id AS customer_id, c.email
  FROM orders o
  LEFT JOIN lines l ON l.order_id = o.id
  LEFT JOIN customers c ON c.id = o.customer_id
 ORDER BY o.id, l.id`

func TestSQLite_QueryJoinedGraph(t *testing.T) {
	db := openSQLite(t)

	l := NewLayout(
		SplitOn("id,line_id,customer_id"),
		Include[[]shopLine](),
		Include[*shopCustomer](),
	)
	orders, err := Query[*shopOrder](context.Background(), db, l, shopQuery)
	require.NoError(t, err)
	require.Len(t, orders, 3)

	o := orders[0]
	assert.Equal(t, int64(100), o.ID)
	assert.Equal(t, uuid.MustParse("0b1f5a56-2c0c-4d7b-a1b8-e1e4f1a8a001"), o.Ref)
	assert.Equal(t, 2024, o.Placed.Year())
	assert.Equal(t, time.January, o.Placed.Month())
	assert.Equal(t, Char('A'), o.Grade)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "apple", o.Lines[0].SKU)
	assert.Equal(t, uint16(3), o.Lines[0].Qty)
	assert.True(t, decimal.RequireFromString("1.25").Equal(o.Lines[0].Price))
	require.NotNil(t, o.Lines[0].Discount)
	assert.Equal(t, float32(0.5), *o.Lines[0].Discount)
	assert.Nil(t, o.Lines[1].Discount)
	require.NotNil(t, o.Customer)
	assert.Equal(t, "ada@example.com", o.Customer.Email)

	assert.Equal(t, uint16(65000), orders[1].Lines[0].Qty)

	assert.Empty(t, orders[2].Lines)
	assert.Nil(t, orders[2].Customer)
	assert.Equal(t, Char(0), orders[2].Grade)
}

func TestSQLite_GetWithRelate(t *testing.T) {
	db := openSQLite(t)

	var skus []string
	o, err := Get[*shopOrder](context.Background(), db,
		NewLayout(
			SplitOn("id,line_id"),
			Relate(func(o *shopOrder, lines []*shopLine) {
				for _, ln := range lines {
					skus = append(skus, ln.SKU)
				}
			}),
		),
		`SELECT o.id, o.ref, o.placed_at, l.id AS line_id, l.sku, l.qty, l.price
		   FROM orders o LEFT JOIN lines l ON l.order_id = o.id
		  WHERE o.id = ? ORDER BY l.id`, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), o.ID)
	assert.Equal(t, []string{"apple", "pear"}, skus)

	_, err = Get[*shopOrder](context.Background(), db, nil, `SELECT id FROM orders WHERE id = ?`, 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLite_Tx(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO lines (id, order_id, sku, qty, price) VALUES (4, 102, 'fig', 2, '3.00')`)
	require.NoError(t, err)

	orders, err := Query[*shopOrder](ctx, tx, NewLayout(SplitOn("id,line_id"), Include[[]shopLine]()),
		`SELECT o.id, l.id AS line_id, l.sku FROM orders o JOIN lines l ON l.order_id = o.id WHERE o.id = 102`)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Lines, 1)
	assert.Equal(t, "fig", orders[0].Lines[0].SKU)
}
