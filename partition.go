package xsqlgraph

import "strings"

// DefaultSplitOn is the split specifier used when a layout does not set one.
const DefaultSplitOn = "id"

// ColumnGroup is the run of result columns that belongs to one entity
// position. The first column of every group is its identifier column.
type ColumnGroup struct {
	Position int
	Ordinals []int    // source column ordinals, in result order
	Names    []string // column names as reported by the cursor
}

// Identifier returns the ordinal of the group's identifier column.
func (g ColumnGroup) Identifier() int { return g.Ordinals[0] }

// Partition splits the result columns into per-entity groups. A column
// starts a new group when it matches the split specifier: its name (matched
// case-insensitively after stripping identifier quotes) equals one of the
// specifier's comma, semicolon, pipe or whitespace separated tokens, ends
// with one of them ("childId" matches "id"), or occurs in the specifier
// text. Columns before the first identifier belong to no entity and are
// dropped.
//
// Partition returns [ErrNoIdentifiers] when no column matches split.
func Partition(names []string, split string) ([]ColumnGroup, error) {
	m := newSplitMatcher(split)
	var groups []ColumnGroup
	cur := -1
	for i, name := range names {
		if m.match(name) {
			cur++
			groups = append(groups, ColumnGroup{Position: cur})
		} else if cur == -1 {
			continue
		}
		g := &groups[cur]
		g.Ordinals = append(g.Ordinals, i)
		g.Names = append(g.Names, name)
	}
	if len(groups) == 0 {
		return nil, ErrNoIdentifiers
	}
	return groups, nil
}

// splitMatcher decides which columns start a group.
type splitMatcher struct {
	text   string // normalized specifier
	tokens []string
}

func newSplitMatcher(split string) splitMatcher {
	if strings.TrimSpace(split) == "" {
		split = DefaultSplitOn
	}
	parts := strings.FieldsFunc(split, func(r rune) bool {
		switch r {
		case ',', ';', '|', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
	m := splitMatcher{text: toLowerAscii(split), tokens: make([]string, 0, len(parts))}
	for _, p := range parts {
		m.tokens = append(m.tokens, normalizeColAscii(p))
	}
	return m
}

func (m splitMatcher) match(column string) bool {
	name := normalizeColAscii(column)
	if name == "" {
		return false
	}
	for _, tok := range m.tokens {
		if strings.HasSuffix(name, tok) {
			return true
		}
	}
	return strings.Contains(m.text, name)
}

func cursorColumns(cur Cursor) []string {
	n := cur.FieldCount()
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = cur.Name(i)
	}
	return names
}
