package xsqlgraph

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowsCursor adapts *sql.Rows to [Cursor]. Each call to Next scans the
// current row into driver-native values; accessors convert from those.
//
// RowsCursor does not close the underlying rows.
type RowsCursor struct {
	rows  *sql.Rows
	names []string
	types []string
	byKey map[string]int // normalized column name -> first ordinal
	vals  []any
	dests []any
	err   error
}

// NewRowsCursor reads the column metadata of rows and returns a cursor
// positioned before the first row.
func NewRowsCursor(rows *sql.Rows) (*RowsCursor, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(names))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			if i < len(types) {
				types[i] = ct.DatabaseTypeName()
			}
		}
	}
	c := &RowsCursor{
		rows:  rows,
		names: names,
		types: types,
		byKey: make(map[string]int, len(names)),
		vals:  make([]any, len(names)),
		dests: make([]any, len(names)),
	}
	for i, n := range names {
		k := normalizeColAscii(n)
		if _, ok := c.byKey[k]; !ok {
			c.byKey[k] = i
		}
		c.dests[i] = &c.vals[i]
	}
	return c, nil
}

func (c *RowsCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	if err := c.rows.Scan(c.dests...); err != nil {
		c.err = err
		return false
	}
	return true
}

// Err returns the first scan error, or the iteration error of the rows.
func (c *RowsCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *RowsCursor) FieldCount() int       { return len(c.names) }
func (c *RowsCursor) Name(i int) string     { return c.names[i] }
func (c *RowsCursor) TypeName(i int) string { return c.types[i] }
func (c *RowsCursor) Value(i int) any       { return c.vals[i] }
func (c *RowsCursor) IsNull(i int) bool     { return c.vals[i] == nil }

// Columns returns a copy of the column names as reported by the driver.
func (c *RowsCursor) Columns() []string { return append([]string(nil), c.names...) }

func (c *RowsCursor) Ordinal(name string) int {
	if i, ok := c.byKey[normalizeColAscii(name)]; ok {
		return i
	}
	return -1
}

func (c *RowsCursor) Int16(i int) (int16, error)   { return castInt16(c.vals[i]) }
func (c *RowsCursor) Int32(i int) (int32, error)   { return castInt32(c.vals[i]) }
func (c *RowsCursor) Int64(i int) (int64, error)   { return castInt64(c.vals[i]) }
func (c *RowsCursor) Uint16(i int) (uint16, error) { return castUint16(c.vals[i]) }
func (c *RowsCursor) Uint32(i int) (uint32, error) { return castUint32(c.vals[i]) }
func (c *RowsCursor) Uint64(i int) (uint64, error) { return castUint64(c.vals[i]) }

func (c *RowsCursor) Float32(i int) (float32, error) { return castFloat32(c.vals[i]) }
func (c *RowsCursor) Float64(i int) (float64, error) { return castFloat64(c.vals[i]) }

func (c *RowsCursor) Decimal(i int) (decimal.Decimal, error) { return castDecimal(c.vals[i]) }
func (c *RowsCursor) Bool(i int) (bool, error)               { return castBool(c.vals[i]) }
func (c *RowsCursor) Time(i int) (time.Time, error)          { return castTime(c.vals[i]) }
func (c *RowsCursor) UUID(i int) (uuid.UUID, error)          { return castUUID(c.vals[i]) }
func (c *RowsCursor) Bytes(i int) ([]byte, error)            { return castBytes(c.vals[i]) }
func (c *RowsCursor) String(i int) (string, error)           { return castString(c.vals[i]) }
func (c *RowsCursor) Char(i int) (rune, error)               { return castChar(c.vals[i]) }
