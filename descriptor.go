package xsqlgraph

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mapper owns the entity descriptor cache. Use the package-level lazy getter
// (getMapper) or create your own in tests.
type Mapper struct {
	descriptors sync.Map                   // key: reflect.Type -> *entityDescriptor
	log         atomic.Pointer[slog.Logger] // debug output; nil discards
}

func NewMapper() *Mapper { return &Mapper{} }

// --- package-level lazy global mapper (used by Assemble/Query/Get) ---

var (
	mapper     *Mapper
	mapperOnce sync.Once
)

func getMapper() *Mapper {
	mapperOnce.Do(func() { mapper = NewMapper() })
	return mapper
}

// SetLogger installs l as the debug logger of the package-level mapper used
// by Assemble, Query and Get. It is safe to call while queries run; nil
// discards.
func SetLogger(l *slog.Logger) { getMapper().SetLogger(l) }

// SetLogger installs l as the mapper's debug logger; nil discards.
func (m *Mapper) SetLogger(l *slog.Logger) { m.log.Store(l) }

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (m *Mapper) logger() *slog.Logger {
	if l := m.log.Load(); l != nil {
		return l
	}
	return discardLogger
}

// descriptor returns the cached descriptor for an entity position type,
// building it on first use. Racing builders for the same type are harmless:
// the first stored descriptor wins and the duplicate is dropped.
func (m *Mapper) descriptor(t reflect.Type) (*entityDescriptor, error) {
	if v, ok := m.descriptors.Load(t); ok {
		return v.(*entityDescriptor), nil
	}
	d, err := buildDescriptor(t)
	if err != nil {
		return nil, err
	}
	v, loaded := m.descriptors.LoadOrStore(t, d)
	if !loaded {
		m.logger().Debug("xsqlgraph: entity descriptor built",
			slog.String("type", t.String()),
			slog.String("shape", d.shape.String()),
			slog.Int("fields", len(d.fields)),
			slog.Int("relations", len(d.relations)))
	}
	return v.(*entityDescriptor), nil
}

// ---------------- Descriptors ----------------

type shapeKind uint8

const (
	shapeSingle   shapeKind = iota // one instance per root
	shapeSlice                     // []E
	shapeArray                     // [N]E, filled up to N
	shapeAppender                  // W with Add(E) or Append(E) on *W
)

func (k shapeKind) String() string {
	switch k {
	case shapeSlice:
		return "slice"
	case shapeArray:
		return "array"
	case shapeAppender:
		return "appender"
	default:
		return "single"
	}
}

// entityDescriptor describes how one entity position type is materialized
// from a column group and handed back to the caller.
type entityDescriptor struct {
	typ     reflect.Type // position type as requested by the caller
	elem    reflect.Type // mapped struct type, or recordType
	elemPtr bool         // elements are handed off as *elem
	record  bool
	shape   shapeKind

	wrapper reflect.Type // appender type W (never a pointer)
	wrapPtr bool         // appender handed off as *W
	add     string       // appender method name

	fields    map[string]*fieldInfo // lower-case column name -> field
	relations []relationField       // exported fields left to the relation step
}

type fieldInfo struct {
	name   string
	path   []int
	typ    reflect.Type
	coerce coercer
}

type relationField struct {
	name string
	path []int
	typ  reflect.Type
}

func (d *entityDescriptor) isCollection() bool { return d.shape != shapeSingle }

var (
	recordType  = reflect.TypeOf(Record(nil))
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	charType    = reflect.TypeOf(Char(0))
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	stringerT   = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

func buildDescriptor(t reflect.Type) (*entityDescriptor, error) {
	d := &entityDescriptor{typ: t}

	// Structs with column fields are entities even when their pointer has an
	// Add or Append method; only field-less structs and other named types
	// act as collection wrappers.
	switch {
	case hasColumnFields(t) && entityElem(t, d):
		d.shape = shapeSingle
	case appenderShape(t, d):
		d.shape = shapeAppender
	case entityElem(t, d):
		d.shape = shapeSingle
	case t.Kind() == reflect.Slice && entityElem(t.Elem(), d):
		d.shape = shapeSlice
	case t.Kind() == reflect.Array && entityElem(t.Elem(), d):
		d.shape = shapeArray
	default:
		return nil, configErrorf("%s is not an entity type; use a struct, a pointer to one, a Record, or a collection of them", t)
	}

	if d.record {
		return d, nil
	}
	d.fields, d.relations = buildFields(d.elem)
	return d, nil
}

// entityElem reports whether t can be materialized directly and records the
// element type on d.
func entityElem(t reflect.Type, d *entityDescriptor) bool {
	switch {
	case t == recordType:
		d.elem, d.elemPtr, d.record = recordType, false, true
		return true
	case t.Kind() == reflect.Struct && !isScalar(t):
		d.elem, d.elemPtr = t, false
		return true
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && !isScalar(t.Elem()):
		d.elem, d.elemPtr = t.Elem(), true
		return true
	}
	return false
}

// hasColumnFields reports a struct, or pointer to one, with at least one
// field mapped from a column.
func hasColumnFields(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || isScalar(t) {
		return false
	}
	fields, _ := buildFields(t)
	return len(fields) > 0
}

func appenderShape(t reflect.Type, d *entityDescriptor) bool {
	w, ptr := t, false
	if t.Kind() == reflect.Pointer {
		w, ptr = t.Elem(), true
	}
	if w.Kind() == reflect.Pointer || w.Kind() == reflect.Interface {
		return false
	}
	pw := reflect.PointerTo(w)
	for _, name := range [...]string{"Add", "Append"} {
		m, ok := pw.MethodByName(name)
		if !ok || m.Type.NumIn() != 2 || m.Type.IsVariadic() {
			continue
		}
		if entityElem(m.Type.In(1), d) {
			d.wrapper, d.wrapPtr, d.add = w, ptr, name
			return true
		}
	}
	return false
}

// ---------------- Struct indexing & tags ----------------

func buildFields(rt reflect.Type) (map[string]*fieldInfo, []relationField) {
	fields := make(map[string]*fieldInfo)
	var relations []relationField

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		t = derefPtr(t)
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			ft := sf.Type
			path := append(append([]int(nil), base...), i)

			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if isStruct(ft) && !isMappable(ft) {
					walk(ft, path, inline)
					continue
				}
			}
			if sf.PkgPath != "" { // unexported embedded non-struct
				continue
			}
			if name == "" {
				name = sf.Name
			}
			if !isMappable(ft) {
				relations = append(relations, relationField{name: sf.Name, path: path, typ: ft})
				continue
			}
			lc := toLowerAscii(name)
			if _, ok := fields[lc]; !ok {
				fields[lc] = &fieldInfo{name: sf.Name, path: path, typ: ft, coerce: coercerFor(ft)}
			}
		}
	}
	walk(rt, nil, false)
	return fields, relations
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return "", false, false
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

// ---------------- Materialization ----------------

// binding ties one column of a group to the field it is assigned to.
type binding struct {
	ordinal int
	column  string
	field   *fieldInfo
}

// bind resolves the columns of g against d once per query. Columns without
// a matching field are dropped.
func (d *entityDescriptor) bind(g ColumnGroup) []binding {
	out := make([]binding, 0, len(g.Ordinals))
	for k, ord := range g.Ordinals {
		key := normalizeColAscii(g.Names[k])
		if d.record {
			out = append(out, binding{ordinal: ord, column: key})
			continue
		}
		if f, ok := d.fields[key]; ok {
			out = append(out, binding{ordinal: ord, column: g.Names[k], field: f})
		}
	}
	return out
}

// materialize builds a new instance from the current row: a *elem for
// struct entities, a Record otherwise.
func (d *entityDescriptor) materialize(cur Cursor, binds []binding) (reflect.Value, error) {
	if d.record {
		rec := make(Record, len(binds))
		for _, b := range binds {
			v := cur.Value(b.ordinal)
			if bs, ok := v.([]byte); ok {
				v = append([]byte(nil), bs...)
			}
			rec[b.column] = v
		}
		return reflect.ValueOf(rec), nil
	}

	inst := reflect.New(d.elem)
	root := inst.Elem()
	for _, b := range binds {
		v, err := b.field.coerce(cur, b.ordinal)
		if err != nil {
			return reflect.Value{}, &TypeCoercionError{Column: cur.Name(b.ordinal), Type: b.field.typ.String(), Err: err}
		}
		if !v.IsValid() {
			continue
		}
		fieldByPathAlloc(root, b.field.path).Set(v)
	}
	return inst, nil
}

// element converts a materialized instance to the element type handed off.
func (d *entityDescriptor) element(inst reflect.Value) reflect.Value {
	if d.record || d.elemPtr {
		return inst
	}
	return inst.Elem()
}

// handoff converts the instances gathered for one root into the position
// type: the first instance for single positions, a populated collection
// otherwise. No instances yield the zero value of the position type.
func (d *entityDescriptor) handoff(insts []reflect.Value) reflect.Value {
	if len(insts) == 0 {
		return reflect.Zero(d.typ)
	}
	switch d.shape {
	case shapeSlice:
		s := reflect.MakeSlice(d.typ, 0, len(insts))
		for _, inst := range insts {
			s = reflect.Append(s, d.element(inst))
		}
		return s
	case shapeArray:
		a := reflect.New(d.typ).Elem()
		for i := 0; i < len(insts) && i < a.Len(); i++ {
			a.Index(i).Set(d.element(insts[i]))
		}
		return a
	case shapeAppender:
		w := reflect.New(d.wrapper)
		add := w.MethodByName(d.add)
		for _, inst := range insts {
			add.Call([]reflect.Value{d.element(inst)})
		}
		if d.wrapPtr {
			return w
		}
		return w.Elem()
	default:
		return d.element(insts[0])
	}
}

// ---------------- Type helpers ----------------

func isStruct(t reflect.Type) bool { return derefPtr(t).Kind() == reflect.Struct }

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func implementsScanner(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(scannerType)
}

// isScalar reports struct and array types that map to a single column.
func isScalar(t reflect.Type) bool {
	return t == timeType || t == uuidType || t == decimalType || implementsScanner(t)
}

// isMappable reports whether a field of type t is assigned from one column.
// Pointers make the underlying type nullable. Everything else is a relation.
func isMappable(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		if t.Kind() == reflect.Pointer {
			return false
		}
	}
	if isScalar(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8 // []byte
	}
	return false
}

// fieldByPathAlloc walks fpath, allocating nil inline struct pointers on the
// way so the final field is settable. The final field itself is returned
// as-is.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// ---------------- Column normalization (ASCII fast-path) ----------------

func normalizeColAscii(s string) string {
	if l := len(s); l >= 2 {
		switch s[0] {
		case '"':
			if s[l-1] == '"' {
				s = s[1 : l-1]
			}
		case '`':
			if s[l-1] == '`' {
				s = s[1 : l-1]
			}
		case '[':
			if s[l-1] == ']' {
				s = s[1 : l-1]
			}
		}
	}
	return toLowerAscii(s)
}

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b[i] = c
	}
	return string(b)
}
