// Package mapping holds the declarative object-to-relational mapping
// metadata: which GraphQL type/field maps to which table/column/join/codec,
// plus cursor-computed fields (spec §3, §4.C).
package mapping

import "sort"

// Codec is opaque to the mapping package except for identity-by-reference
// equality (§6 "Codec contract"). It is supplied by the external driver
// integration; the mapping package only ever compares and carries pointers.
type Codec interface {
	Name() string
}

// ColumnRef identifies a single physical column. Equality is (Table, Column)
// only; Codec is metadata carried alongside, and the same (Table, Column)
// pair must always carry the same Codec within one mapping (§3 invariant).
type ColumnRef struct {
	Table  string
	Column string
	Codec  Codec
}

// Equal compares table and column only, per the ColumnRef invariant.
func (c ColumnRef) Equal(o ColumnRef) bool {
	return c.Table == o.Table && c.Column == o.Column
}

func (c ColumnRef) key() string { return c.Table + "." + c.Column }

// Join is a parent/child column pair rendered as a LEFT JOIN. Normal() orders
// the endpoints lexicographically by (table, column) so that Join(a,b) and
// Join(b,a) compare equal in normal form (§3).
type Join struct {
	Parent ColumnRef
	Child  ColumnRef
}

// Normal returns j with endpoints ordered so that two joins between the same
// pair of columns always produce the same value, regardless of which side
// was declared parent.
func (j Join) Normal() Join {
	if j.Parent.key() <= j.Child.key() {
		return j
	}
	return Join{Parent: j.Child, Child: j.Parent}
}

// NormalKey is a stable string key for deduplicating joins by normal form.
func (j Join) NormalKey() string {
	n := j.Normal()
	return n.Parent.key() + "->" + n.Child.key()
}

// DedupJoins removes joins that share a normal form, keeping the first
// occurrence, and returns the remaining joins in their original order.
func DedupJoins(joins []Join) []Join {
	seen := make(map[string]bool, len(joins))
	out := make([]Join, 0, len(joins))
	for _, j := range joins {
		k := j.NormalKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, j)
	}
	return out
}

// SortedTableNames returns the distinct table names referenced by cols, in
// sorted order, for deterministic diagnostics.
func SortedTableNames(cols []ColumnRef) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cols {
		if !seen[c.Table] {
			seen[c.Table] = true
			out = append(out, c.Table)
		}
	}
	sort.Strings(out)
	return out
}
