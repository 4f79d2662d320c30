package xsqlgraph

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
)

type DBHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

type testConnector struct {
	h     DBHandler
	types []string
}

func (c *testConnector) Connect(context.Context) (driver.Conn, error) {
	return &testConn{h: c.h, types: c.types}, nil
}
func (c *testConnector) Driver() driver.Driver { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct {
	h     DBHandler
	types []string
}

func (c *testConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *testConn) Close() error                        { return nil }
func (c *testConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *testConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	cols, data, err := c.h(query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{cols: cols, types: c.types, data: data}, nil
}

type testRows struct {
	cols  []string
	types []string
	data  [][]driver.Value
	i     int
}

func (r *testRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *testRows) Close() error      { return nil }
func (r *testRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// ColumnTypeDatabaseTypeName reports the declared type names the test was
// configured with; unknown columns report "".
func (r *testRows) ColumnTypeDatabaseTypeName(index int) string {
	if index < len(r.types) {
		return r.types[index]
	}
	return ""
}

// newTestDB creates a *sql.DB backed by the in-memory test driver.
func newTestDB(t *testing.T, h DBHandler) *sql.DB {
	t.Helper()
	return sql.OpenDB(&testConnector{h: h})
}

// newTypedTestDB is newTestDB with declared column type names.
func newTypedTestDB(t *testing.T, types []string, h DBHandler) *sql.DB {
	t.Helper()
	return sql.OpenDB(&testConnector{h: h, types: types})
}

// staticRows answers every query with the same result.
func staticRows(cols []string, rows [][]driver.Value) DBHandler {
	return func(string, []driver.NamedValue) ([]string, [][]driver.Value, error) {
		return cols, rows, nil
	}
}

// newCursor runs a query against the test driver and wraps the result in a
// RowsCursor. types may be nil.
func newCursor(t *testing.T, cols, types []string, rows [][]driver.Value) *RowsCursor {
	t.Helper()
	db := newTypedTestDB(t, types, staticRows(cols, rows))
	t.Cleanup(func() { _ = db.Close() })

	rs, err := db.QueryContext(context.Background(), "q")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })

	cur, err := NewRowsCursor(rs)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	return cur
}
