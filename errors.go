package xsqlgraph

import (
	"errors"
	"fmt"
)

// ErrConfig marks a caller mistake in the query shape or the layout: a split
// specifier that matches nothing, too few column groups, or a relation func
// that does not fit the entity positions. It is returned before any row is
// materialized.
var ErrConfig = errors.New("xsqlgraph: configuration")

// ErrNoIdentifiers is returned when none of the query's columns match the
// split specifier.
var ErrNoIdentifiers = fmt.Errorf("%w: no column identifiers found; check the query and the split specifier", ErrConfig)

// ErrInvalidCast is returned by [Cursor] accessors when the native value of
// a cell cannot be represented as the requested type.
var ErrInvalidCast = errors.New("xsqlgraph: invalid cast")

// TypeCoercionError reports a cell that could not be converted into the
// declared type of its field. It aborts the query it occurred in.
type TypeCoercionError struct {
	Column string // source column name as reported by the cursor
	Type   string // declared field type
	Err    error
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("xsqlgraph: expected column %q to be of type %s: %v", e.Column, e.Type, e.Err)
}

func (e *TypeCoercionError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...)
}
