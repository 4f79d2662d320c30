package xsqlgraph

import (
	"bytes"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// coercer reads cell i of the current row as a value of one declared field
// type. An invalid reflect.Value means "absent": the field keeps its zero
// value (nil for nullable fields).
type coercer func(cur Cursor, i int) (reflect.Value, error)

func absent(Cursor, int) (reflect.Value, error) { return reflect.Value{}, nil }

// coercerFor picks the read strategy for a field type once, when the
// descriptor is built, so materialization only calls the chosen func.
func coercerFor(t reflect.Type) coercer {
	if t.Kind() == reflect.Pointer {
		return nullable(t.Elem(), coercerFor(t.Elem()))
	}
	if !isBuiltinScalar(t) && implementsScanner(t) {
		return scanInto(t)
	}
	base := baseCoercer(t)
	return func(cur Cursor, i int) (reflect.Value, error) {
		if cur.IsNull(i) {
			return reflect.Value{}, nil // zero value: 0, false, "", zero time
		}
		return base(cur, i)
	}
}

// nullable wraps the coercer of elem so a null cell leaves the pointer nil
// and any other cell is stored behind a fresh pointer.
func nullable(elem reflect.Type, inner coercer) coercer {
	return func(cur Cursor, i int) (reflect.Value, error) {
		if cur.IsNull(i) {
			return reflect.Value{}, nil
		}
		v, err := inner(cur, i)
		if err != nil || !v.IsValid() {
			return v, err
		}
		p := reflect.New(elem)
		p.Elem().Set(v)
		return p, nil
	}
}

// scanInto hands the native value, nil included, to the field's Scan method.
func scanInto(t reflect.Type) coercer {
	return func(cur Cursor, i int) (reflect.Value, error) {
		p := reflect.New(t)
		if err := p.Interface().(sql.Scanner).Scan(cur.Value(i)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}
}

func baseCoercer(t reflect.Type) coercer {
	switch t {
	case timeType:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Time(i))(t) }
	case uuidType:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.UUID(i))(t) }
	case decimalType:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Decimal(i))(t) }
	case charType:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Char(i))(t) }
	}
	if isEnum(t) {
		if t.Size() > 4 {
			return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Int64(i))(t) }
		}
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Int32(i))(t) }
	}

	switch t.Kind() {
	case reflect.Bool:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Bool(i))(t) }
	case reflect.Int8:
		return func(cur Cursor, i int) (reflect.Value, error) {
			n, err := cur.Int16(i)
			return convert(int8(n), err)(t)
		}
	case reflect.Int16:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Int16(i))(t) }
	case reflect.Int32:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Int32(i))(t) }
	case reflect.Int, reflect.Int64:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Int64(i))(t) }
	case reflect.Uint8:
		return readByte(t)
	case reflect.Uint16:
		return func(cur Cursor, i int) (reflect.Value, error) {
			n, err := cur.Int32(i)
			return convert(uint16(n), err)(t)
		}
	case reflect.Uint32:
		return func(cur Cursor, i int) (reflect.Value, error) {
			n, err := cur.Int64(i)
			return convert(uint32(n), err)(t)
		}
	case reflect.Uint, reflect.Uint64:
		return readUint64(t)
	case reflect.Float32:
		return func(cur Cursor, i int) (reflect.Value, error) {
			if isSinglePrecision(cur.TypeName(i)) {
				return convert(cur.Float32(i))(t)
			}
			f, err := cur.Float64(i)
			return convert(float32(f), err)(t)
		}
	case reflect.Float64:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.Float64(i))(t) }
	case reflect.String:
		return func(cur Cursor, i int) (reflect.Value, error) { return convert(cur.String(i))(t) }
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(cur Cursor, i int) (reflect.Value, error) {
				b, err := cur.Bytes(i)
				return convert(bytes.Clone(b), err)(t)
			}
		}
	}
	return absent
}

// convert returns a func that converts x to the declared type t (named
// types included) unless err is set.
func convert(x any, err error) func(t reflect.Type) (reflect.Value, error) {
	return func(t reflect.Type) (reflect.Value, error) {
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(x).Convert(t), nil
	}
}

// readByte reads single-byte integer columns directly and takes the first
// byte of anything else, so bytes stored in binary columns still map.
func readByte(t reflect.Type) coercer {
	return func(cur Cursor, i int) (reflect.Value, error) {
		if isTinyInt(cur.TypeName(i)) {
			n, err := cur.Int16(i)
			return convert(uint8(n), err)(t)
		}
		b, err := cur.Bytes(i)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) == 0 {
			return reflect.Value{}, errEmptyBinary
		}
		return convert(b[0], nil)(t)
	}
}

var errEmptyBinary = fmt.Errorf("%w: empty binary value", ErrInvalidCast)

// readUint64 goes through the decimal accessor so values above MaxInt64
// survive drivers that report them as NUMERIC.
func readUint64(t reflect.Type) coercer {
	return func(cur Cursor, i int) (reflect.Value, error) {
		d, err := cur.Decimal(i)
		if err != nil {
			return reflect.Value{}, err
		}
		n := d.Truncate(0).BigInt()
		if n.Sign() < 0 || !n.IsUint64() {
			return reflect.Value{}, fmt.Errorf("%w: %s overflows uint64", ErrInvalidCast, d)
		}
		return convert(n.Uint64(), nil)(t)
	}
}

// isBuiltinScalar reports types with a dedicated Cursor accessor. uuid.UUID
// and decimal.Decimal also implement sql.Scanner; the accessor wins.
func isBuiltinScalar(t reflect.Type) bool {
	return t == timeType || t == uuidType || t == decimalType || t == charType
}

// isEnum reports named integer types with a String method. They are read
// as 32-bit integers unless their kind is wider (time.Duration).
func isEnum(t reflect.Type) bool {
	if t.PkgPath() == "" || !t.Implements(stringerT) {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isTinyInt(typeName string) bool {
	u := strings.ToUpper(strings.TrimSpace(typeName))
	return strings.HasPrefix(u, "TINYINT") || u == "INT1"
}

func isSinglePrecision(typeName string) bool {
	u := strings.ToUpper(strings.TrimSpace(typeName))
	return u == "REAL" || u == "FLOAT4"
}
