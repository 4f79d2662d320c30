package xsqlgraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Conversions from driver-native values (int64, float64, bool, []byte,
// string, time.Time and whatever else a driver hands back) into the typed
// accessor results of RowsCursor. Text is parsed the way database/sql's
// convertAssign would; anything else is an ErrInvalidCast.

func invalidCast(v any, to string) error {
	return fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, to)
}

func castInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidCast, x)
		}
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidCast, x)
		}
		return int64(x), nil
	case []byte:
		return parseInt(string(x), 64)
	case string:
		return parseInt(x, 64)
	}
	return 0, invalidCast(v, "int64")
}

func parseInt(s string, bits int) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCast, err)
	}
	return n, nil
}

func castIntN(v any, bits int, to string) (int64, error) {
	n, err := castInt64(v)
	if err != nil {
		return 0, err
	}
	lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d overflows %s", ErrInvalidCast, n, to)
	}
	return n, nil
}

func castInt32(v any) (int32, error) {
	n, err := castIntN(v, 32, "int32")
	return int32(n), err
}

func castInt16(v any) (int16, error) {
	n, err := castIntN(v, 16, "int16")
	return int16(n), err
}

func castUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case []byte:
		return parseUint(string(x))
	case string:
		return parseUint(x)
	}
	n, err := castInt64(v)
	if err != nil {
		return 0, invalidCast(v, "uint64")
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidCast, n)
	}
	return uint64(n), nil
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCast, err)
	}
	return n, nil
}

func castUint32(v any) (uint32, error) {
	n, err := castUint64(v)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d overflows uint32", ErrInvalidCast, n)
	}
	return uint32(n), nil
}

func castUint16(v any) (uint16, error) {
	n, err := castUint64(v)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d overflows uint16", ErrInvalidCast, n)
	}
	return uint16(n), nil
}

func castFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	}
	if n, err := castInt64(v); err == nil {
		return float64(n), nil
	}
	return 0, invalidCast(v, "float64")
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCast, err)
	}
	return f, nil
}

func castFloat32(v any) (float32, error) {
	if x, ok := v.(float32); ok {
		return x, nil
	}
	f, err := castFloat64(v)
	if err != nil {
		return 0, invalidCast(v, "float32")
	}
	return float32(f), nil
}

func castDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case uint64:
		return decimal.NewFromUint64(x), nil
	case []byte:
		return parseDecimal(string(x))
	case string:
		return parseDecimal(x)
	}
	if n, err := castInt64(v); err == nil {
		return decimal.NewFromInt(n), nil
	}
	return decimal.Decimal{}, invalidCast(v, "decimal")
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrInvalidCast, err)
	}
	return d, nil
}

func castBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case []byte:
		return parseBool(string(x))
	case string:
		return parseBool(x)
	}
	if n, err := castInt64(v); err == nil {
		return n != 0, nil
	}
	return false, invalidCast(v, "bool")
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidCast, err)
	}
	return b, nil
}

// timeLayouts are tried in order for text date/time cells.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func castTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	}
	return time.Time{}, invalidCast(v, "time.Time")
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a recognised date/time", ErrInvalidCast, s)
}

func castUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return parseUUID(string(x))
	case string:
		return parseUUID(x)
	}
	return uuid.Nil, invalidCast(v, "uuid.UUID")
}

func parseUUID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCast, err)
	}
	return u, nil
}

func castBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, invalidCast(v, "[]byte")
}

func castString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", invalidCast(v, "string")
}

func castChar(v any) (rune, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return 0, invalidCast(v, "char")
	}
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || n != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q is not a single character", ErrInvalidCast, s)
	}
	return r, nil
}
