package xsqlgraph

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cursor is a forward-only view over a tabular result. The assembler reads
// it exactly once, row by row, and never rewinds.
//
// Ordinals are zero-based. Typed accessors return [ErrInvalidCast] (possibly
// wrapped) when the cell's native value cannot be represented as the
// requested type; they are only called on non-null cells.
type Cursor interface {
	Next() bool
	Err() error

	FieldCount() int
	Name(i int) string
	// Ordinal returns the position of the named column, matched
	// case-insensitively, or -1.
	Ordinal(name string) int
	// TypeName reports the column's declared database type (e.g. "REAL",
	// "TINYINT"). It may be empty when the source does not know it.
	TypeName(i int) string

	Value(i int) any
	IsNull(i int) bool

	Int16(i int) (int16, error)
	Int32(i int) (int32, error)
	Int64(i int) (int64, error)
	Uint16(i int) (uint16, error)
	Uint32(i int) (uint32, error)
	Uint64(i int) (uint64, error)
	Float32(i int) (float32, error)
	Float64(i int) (float64, error)
	Decimal(i int) (decimal.Decimal, error)
	Bool(i int) (bool, error)
	Time(i int) (time.Time, error)
	UUID(i int) (uuid.UUID, error)
	Bytes(i int) ([]byte, error)
	String(i int) (string, error)
	Char(i int) (rune, error)
}
