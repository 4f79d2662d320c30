package xsqlgraph

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsCursor_Metadata(t *testing.T) {
	cur := newCursor(t,
		[]string{`"ID"`, "Name", "name"},
		[]string{"INTEGER", "TEXT"},
		[][]driver.Value{{int64(1), "a", "b"}})

	assert.Equal(t, 3, cur.FieldCount())
	assert.Equal(t, `"ID"`, cur.Name(0))
	assert.Equal(t, "INTEGER", cur.TypeName(0))
	assert.Equal(t, "", cur.TypeName(2))
	assert.Equal(t, 0, cur.Ordinal("id"))
	assert.Equal(t, 1, cur.Ordinal("NAME"), "first matching column wins")
	assert.Equal(t, -1, cur.Ordinal("missing"))

	cols := cur.Columns()
	cols[0] = "changed"
	assert.Equal(t, `"ID"`, cur.Name(0), "Columns returns a copy")
}

func TestRowsCursor_Accessors(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	cur := newCursor(t,
		[]string{"i", "f", "s", "b", "t", "u", "d", "raw", "c", "n"},
		nil,
		[][]driver.Value{{
			int64(42), 2.5, "hello", true, when, id.String(), "12.34", []byte{1, 2}, "x", nil,
		}})
	require.True(t, cur.Next())

	i16, err := cur.Int16(0)
	require.NoError(t, err)
	assert.Equal(t, int16(42), i16)
	i32, err := cur.Int32(0)
	require.NoError(t, err)
	assert.Equal(t, int32(42), i32)
	u16, err := cur.Uint16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), u16)
	u32, err := cur.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), u32)
	u64, err := cur.Uint64(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u64)

	f32, err := cur.Float32(1)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f32)
	f64, err := cur.Float64(0)
	require.NoError(t, err)
	assert.Equal(t, 42.0, f64)

	s, err := cur.String(2)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	b, err := cur.Bool(3)
	require.NoError(t, err)
	assert.True(t, b)
	tm, err := cur.Time(4)
	require.NoError(t, err)
	assert.True(t, when.Equal(tm))
	u, err := cur.UUID(5)
	require.NoError(t, err)
	assert.Equal(t, id, u)
	d, err := cur.Decimal(6)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.34").Equal(d))
	raw, err := cur.Bytes(7)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, raw)
	c, err := cur.Char(8)
	require.NoError(t, err)
	assert.Equal(t, 'x', c)

	assert.True(t, cur.IsNull(9))
	assert.False(t, cur.IsNull(0))
	assert.Nil(t, cur.Value(9))

	_, err = cur.Int16(2)
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = cur.Char(2)
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = cur.Time(0)
	assert.ErrorIs(t, err, ErrInvalidCast)

	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())
}

func TestRowsCursor_NextErrorSurfaces(t *testing.T) {
	db := sql.OpenDB(&errNextConnector{})
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(context.Background(), "q")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	cur, err := NewRowsCursor(rows)
	require.NoError(t, err)
	assert.False(t, cur.Next())
	assert.EqualError(t, cur.Err(), "driver next error")
}

func TestCast_Ranges(t *testing.T) {
	_, err := castInt16(int64(math.MaxInt16 + 1))
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = castInt32(int64(math.MinInt32 - 1))
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = castInt64(uint64(math.MaxUint64))
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = castUint64(int64(-1))
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = castUint16(int64(70000))
	assert.ErrorIs(t, err, ErrInvalidCast)

	n, err := castUint64("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)

	v, err := castInt64([]byte(" 17 "))
	require.NoError(t, err)
	assert.Equal(t, int64(17), v)
}

func TestCast_TextForms(t *testing.T) {
	tm, err := castTime("2024-03-01 12:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), tm)

	tm, err = castTime([]byte("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 2024, tm.Year())

	_, err = castTime("yesterday")
	assert.ErrorIs(t, err, ErrInvalidCast)

	b, err := castBool("1")
	require.NoError(t, err)
	assert.True(t, b)
	b, err = castBool(int64(0))
	require.NoError(t, err)
	assert.False(t, b)

	id := uuid.New()
	u, err := castUUID(id[:])
	require.NoError(t, err)
	assert.Equal(t, id, u)

	d, err := castDecimal(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", d.String())

	s, err := castString(int64(5))
	require.NoError(t, err)
	assert.Equal(t, "5", s)

	_, err = castChar("ab")
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = castChar("")
	assert.ErrorIs(t, err, ErrInvalidCast)
	r, err := castChar("é")
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
}
