package xsqlgraph

import (
	"context"
	"database/sql"
)

// Querier is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a query returning rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Record is a schemaless entity. Each column of its group is stored under
// its lower-cased, unquoted name with the value the cursor returned.
type Record map[string]any

// Char is a single character field. It is read from text columns through
// [Cursor.Char]; a plain rune field is an int32 and reads as a number.
type Char rune
