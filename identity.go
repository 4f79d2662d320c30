package xsqlgraph

// identityIndex holds the instances of one entity position for a single
// assembly run, keyed by (root identity, own identity). The first instance
// stored for a pair wins.
type identityIndex[V any] struct {
	buckets map[string]*identityBucket[V]
	order   []string // root identities, first-seen
}

type identityBucket[V any] struct {
	byID  map[string]int
	items []V // insertion order
}

func newIdentityIndex[V any]() *identityIndex[V] {
	return &identityIndex[V]{buckets: make(map[string]*identityBucket[V])}
}

// put stores v under (rootID, ownID) unless the pair is already present.
// It reports whether v was stored.
func (x *identityIndex[V]) put(rootID, ownID string, v V) bool {
	b, ok := x.buckets[rootID]
	if !ok {
		b = &identityBucket[V]{byID: make(map[string]int)}
		x.buckets[rootID] = b
		x.order = append(x.order, rootID)
	}
	if _, dup := b.byID[ownID]; dup {
		return false
	}
	b.byID[ownID] = len(b.items)
	b.items = append(b.items, v)
	return true
}

func (x *identityIndex[V]) get(rootID, ownID string) (V, bool) {
	var zero V
	b, ok := x.buckets[rootID]
	if !ok {
		return zero, false
	}
	i, ok := b.byID[ownID]
	if !ok {
		return zero, false
	}
	return b.items[i], true
}

// allForRoot returns every instance stored under rootID in insertion order.
// The slice is owned by the index.
func (x *identityIndex[V]) allForRoot(rootID string) []V {
	if b, ok := x.buckets[rootID]; ok {
		return b.items
	}
	return nil
}

// roots returns the root identities in first-seen order.
func (x *identityIndex[V]) roots() []string { return x.order }

func (x *identityIndex[V]) size() int {
	n := 0
	for _, b := range x.buckets {
		n += len(b.items)
	}
	return n
}
