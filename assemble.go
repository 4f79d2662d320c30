package xsqlgraph

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Layout describes the entity positions of a joined query: the root type
// (given by the type parameter of [Assemble], [Query] or [Get]), the
// secondary position types, the split specifier and an optional relation
// func. A nil *Layout maps a single root type split on "id".
type Layout struct {
	split   string
	include []reflect.Type
	relate  any
}

// Option configures a [Layout].
type Option func(*Layout)

// NewLayout returns a layout configured by opts.
func NewLayout(opts ...Option) *Layout {
	l := &Layout{}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SplitOn sets the identifier column names that start a new entity group.
// Names are separated by commas, semicolons, pipes or spaces and matched
// case-insensitively. The default is [DefaultSplitOn].
func SplitOn(ids string) Option {
	return func(l *Layout) { l.split = ids }
}

// Include appends an entity position of type T after the root. T may be a
// struct, a pointer to one, a [Record], or a collection of those: a slice,
// an array, or a type whose pointer has an Add or Append method taking one
// element.
func Include[T any]() Option {
	return func(l *Layout) { l.include = append(l.include, reflect.TypeFor[T]()) }
}

// Relate sets the relation func called once per root after the result is
// read. fn takes the root followed by one argument per secondary position,
// in position order, and returns nothing or an error:
//
//	xsqlgraph.Relate(func(o *Order, lines []Line, c *Customer) {
//	    o.Lines, o.Customer = lines, c
//	})
//
// Without [Include], the secondary positions are taken from fn's parameter
// types. With Include, fn's arity must match the number of positions; a
// variadic fn receives the surplus positions in its final parameter.
// Positions with no rows for a root receive the zero value of their type.
func Relate(fn any) Option {
	return func(l *Layout) { l.relate = fn }
}

func (l *Layout) splitOn() string {
	if l == nil || l.split == "" {
		return DefaultSplitOn
	}
	return l.split
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// positions resolves the entity position types for root and validates the
// relation func against them.
func (l *Layout) positions(root reflect.Type) ([]reflect.Type, reflect.Value, error) {
	types := []reflect.Type{root}
	if l == nil {
		return types, reflect.Value{}, nil
	}
	types = append(types, l.include...)
	if l.relate == nil {
		return types, reflect.Value{}, nil
	}

	fn := reflect.ValueOf(l.relate)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, reflect.Value{}, configErrorf("relation must be a func, got %T", l.relate)
	}
	ft := fn.Type()
	switch {
	case ft.NumOut() == 0:
	case ft.NumOut() == 1 && ft.Out(0) == errorType:
	default:
		return nil, reflect.Value{}, configErrorf("relation func %s must return nothing or an error", ft)
	}
	if ft.NumIn() == 0 {
		return nil, reflect.Value{}, configErrorf("relation func %s takes no arguments", ft)
	}

	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}
	if len(l.include) == 0 && !ft.IsVariadic() {
		for k := 1; k < ft.NumIn(); k++ {
			types = append(types, ft.In(k))
		}
	}
	if ft.IsVariadic() && len(types) < fixed || !ft.IsVariadic() && len(types) != fixed {
		return nil, reflect.Value{}, configErrorf("relation func %s takes %d arguments; layout has %d entity positions", ft, ft.NumIn(), len(types))
	}
	for k, t := range types {
		var want reflect.Type
		if k < fixed {
			want = ft.In(k)
		} else {
			want = ft.In(fixed).Elem()
		}
		if !t.AssignableTo(want) {
			return nil, reflect.Value{}, configErrorf("relation func argument %d is %s; entity position is %s", k+1, want, t)
		}
	}
	return types, fn, nil
}

// Assemble reads every row of cur and returns the distinct root entities in
// first-seen order, each with its related entities attached.
//
// The cursor's columns are split into one group per entity position (see
// [Partition]). For every row, each position whose identifier cell is
// non-null is materialized once per (root identifier, own identifier) pair;
// repeated rows reuse the first instance. After the cursor is exhausted,
// each root is handed to the relation func together with its secondary
// positions. Without a relation func, each secondary position is assigned to
// the first exported field of the root struct with exactly its type.
//
// Assemble returns an error wrapping [ErrConfig] for layout mistakes before
// any row is read, a [*TypeCoercionError] when a cell does not fit its
// field, and the cursor's own error if iteration fails. No partial result
// is returned on error.
func Assemble[T any](cur Cursor, l *Layout) ([]T, error) {
	res, err := getMapper().assemble(cur, reflect.TypeFor[T](), l)
	if err != nil {
		return nil, err
	}
	return collectRoots[T](res), nil
}

func collectRoots[T any](res *assembly) []T {
	out := make([]T, len(res.roots))
	for i, r := range res.roots {
		out[i] = r.Interface().(T)
	}
	return out
}

// assembly is the outcome of one run, kept for tracing.
type assembly struct {
	roots     []reflect.Value
	positions int
	rows      int
	instances int
}

func (m *Mapper) assemble(cur Cursor, root reflect.Type, l *Layout) (*assembly, error) {
	types, relate, err := l.positions(root)
	if err != nil {
		return nil, err
	}
	descs := make([]*entityDescriptor, len(types))
	for p, t := range types {
		if descs[p], err = m.descriptor(t); err != nil {
			return nil, err
		}
	}
	if descs[0].isCollection() {
		return nil, configErrorf("root type %s must be a single entity, not a collection", root)
	}

	groups, err := Partition(cursorColumns(cur), l.splitOn())
	if err != nil {
		return nil, err
	}
	if len(groups) < len(types) {
		return nil, configErrorf("split specifier %q yields %d column groups; %d entity positions requested", l.splitOn(), len(groups), len(types))
	}
	m.logger().Debug("xsqlgraph: column groups",
		slog.Int("groups", len(groups)),
		slog.Int("positions", len(types)),
		slog.String("split", l.splitOn()))

	var wiring [][]int
	if !relate.IsValid() && len(types) > 1 {
		if wiring, err = defaultWiring(descs); err != nil {
			return nil, err
		}
	}

	binds := make([][]binding, len(types))
	idx := make([]*identityIndex[reflect.Value], len(types))
	for p, d := range descs {
		binds[p] = d.bind(groups[p])
		idx[p] = newIdentityIndex[reflect.Value]()
	}

	res := &assembly{positions: len(types)}

	// Scanning: one pass over the cursor.
	for cur.Next() {
		res.rows++
		var rootID string
		for p, d := range descs {
			id, ok := identityKey(cur, groups[p].Identifier())
			if !ok {
				if p == 0 {
					break // secondaries are scoped by the root identity
				}
				continue
			}
			if p == 0 {
				rootID = id
			}
			if _, seen := idx[p].get(rootID, id); seen {
				continue
			}
			inst, err := d.materialize(cur, binds[p])
			if err != nil {
				return nil, err
			}
			idx[p].put(rootID, id, inst)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	// Finalizing: one pass over the distinct roots.
	res.roots = make([]reflect.Value, 0, len(idx[0].roots()))
	args := make([]reflect.Value, len(descs))
	for _, rootID := range idx[0].roots() {
		inst, _ := idx[0].get(rootID, rootID)
		args[0] = descs[0].handoff([]reflect.Value{inst})
		for p := 1; p < len(descs); p++ {
			args[p] = descs[p].handoff(idx[p].allForRoot(rootID))
		}

		switch {
		case relate.IsValid():
			if out := relate.Call(args); len(out) == 1 && !out[0].IsNil() {
				return nil, out[0].Interface().(error)
			}
		case wiring != nil:
			for p := 1; p < len(descs); p++ {
				fieldByPathAlloc(inst.Elem(), wiring[p]).Set(args[p])
			}
		}
		res.roots = append(res.roots, descs[0].handoff([]reflect.Value{inst}))
	}
	for _, x := range idx {
		res.instances += x.size()
	}
	return res, nil
}

// defaultWiring finds, for each secondary position, the first unclaimed
// relation field of the root struct whose type is exactly the position type.
func defaultWiring(descs []*entityDescriptor) ([][]int, error) {
	root := descs[0]
	if root.record {
		return nil, configErrorf("a Record root needs a relation func to attach %d secondary positions", len(descs)-1)
	}
	wiring := make([][]int, len(descs))
	claimed := make([]bool, len(root.relations))
	for p := 1; p < len(descs); p++ {
		for k, rf := range root.relations {
			if !claimed[k] && rf.typ == descs[p].typ {
				claimed[k] = true
				wiring[p] = rf.path
				break
			}
		}
		if wiring[p] == nil {
			return nil, configErrorf("%s has no field of type %s for entity position %d; add one or use Relate", root.elem, descs[p].typ, p)
		}
	}
	return wiring, nil
}

// identityKey returns the textual identity of cell i. Null and empty cells
// have no identity.
func identityKey(cur Cursor, i int) (string, bool) {
	if cur.IsNull(i) {
		return "", false
	}
	var key string
	switch v := cur.Value(i).(type) {
	case string:
		key = v
	case []byte:
		key = string(v)
	default:
		key = fmt.Sprint(v)
	}
	return key, key != ""
}
