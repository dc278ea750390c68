package algebra

// MergeQueries folds sibling selections that share a (name, alias) pair into
// one, recursively merging their children. Narrow siblings with the same
// target type are coalesced into a single Narrow over the merged children.
// Empty is dropped. Order of first occurrence is preserved.
//
// Exposed for collectors that build up sibling selections from more than one
// source (e.g. two fragment spreads contributing to the same parent) and
// need them folded back into the shape a single pass would have produced.
func MergeQueries(qs []Query) Query {
	const (
		kindSelect = iota
		kindNarrow
		kindPass
	)
	type bucket struct {
		kind       int
		selName    string
		selAlias   string
		narrowType string
		children   []Query
	}

	order := make([]string, 0, len(qs))
	byKey := make(map[string]*bucket)

	for _, q := range qs {
		switch v := q.(type) {
		case Empty:
			continue
		case Select:
			key := "select:" + v.Name + "\x00" + v.Alias
			b, ok := byKey[key]
			if !ok {
				b = &bucket{kind: kindSelect, selName: v.Name, selAlias: v.Alias}
				byKey[key] = b
				order = append(order, key)
			}
			b.children = append(b.children, v.Child)
		case Narrow:
			key := "narrow:" + v.TargetType
			b, ok := byKey[key]
			if !ok {
				b = &bucket{kind: kindNarrow, narrowType: v.TargetType}
				byKey[key] = b
				order = append(order, key)
			}
			b.children = append(b.children, v.Child)
		default:
			// Non-mergeable shapes pass through as their own bucket, keyed
			// uniquely so they never collapse with an unrelated sibling.
			key := "pass:" + uniqueKey()
			byKey[key] = &bucket{kind: kindPass, children: []Query{q}}
			order = append(order, key)
		}
	}

	out := make([]Query, 0, len(order))
	for _, key := range order {
		b := byKey[key]
		var merged Query
		if len(b.children) == 1 {
			merged = b.children[0]
		} else {
			merged = MergeQueries(b.children)
		}
		switch b.kind {
		case kindNarrow:
			out = append(out, Narrow{TargetType: b.narrowType, Child: merged})
		case kindSelect:
			out = append(out, Select{Name: b.selName, Alias: b.selAlias, Child: merged})
		default:
			out = append(out, merged)
		}
	}

	return NewGroup(out...)
}

var uniqueCounter int

// uniqueKey produces a distinct bucket key for non-mergeable query shapes.
// Query trees are built once and merged at compile time, never concurrently,
// so a package-level counter is sufficient (the core holds no other mutable
// state per §5, and this counter is not part of any Query value's identity).
func uniqueKey() string {
	uniqueCounter++
	return itoa(uniqueCounter)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// MkPathQuery builds the minimal Select tree covering every given path,
// sharing common prefixes.
func MkPathQuery(paths [][]string) Query {
	type node struct {
		children map[string]*node
		order    []string
	}
	root := &node{children: map[string]*node{}}

	for _, p := range paths {
		cur := root
		for _, hop := range p {
			child, ok := cur.children[hop]
			if !ok {
				child = &node{children: map[string]*node{}}
				cur.children[hop] = child
				cur.order = append(cur.order, hop)
			}
			cur = child
		}
	}

	var build func(n *node) Query
	build = func(n *node) Query {
		if len(n.order) == 0 {
			return Empty{}
		}
		selects := make([]Query, 0, len(n.order))
		for _, hop := range n.order {
			selects = append(selects, Select{Name: hop, Child: build(n.children[hop])})
		}
		return NewGroup(selects...)
	}

	return build(root)
}

// RootName looks through Environment/TransformCursor wrappers to find the
// name of the first Select reached; a Rename or Wrap reached first answers
// with its own Name. It reports ok=false for any other node.
func RootName(q Query) (string, bool) {
	for {
		switch v := q.(type) {
		case Select:
			return v.Name, true
		case Environment:
			q = v.Child
		case TransformCursor:
			q = v.Child
		case Rename:
			return v.Name, true
		case Wrap:
			return v.Name, true
		default:
			return "", false
		}
	}
}

// ResultName is RootName, but prefers a Select's alias when present.
func ResultName(q Query) (string, bool) {
	for {
		switch v := q.(type) {
		case Select:
			return v.ResultName(), true
		case Environment:
			q = v.Child
		case TransformCursor:
			q = v.Child
		case Rename:
			return v.Name, true
		case Wrap:
			return v.Name, true
		default:
			return "", false
		}
	}
}

// HasField reports whether q's first reachable Select (through the same
// wrappers as RootName) is named name.
func HasField(q Query, name string) bool {
	n, ok := RootName(q)
	return ok && n == name
}

// FieldAlias returns the alias of q's first reachable Select, if any.
func FieldAlias(q Query) (string, bool) {
	for {
		switch v := q.(type) {
		case Select:
			return v.Alias, v.Alias != ""
		case Environment:
			q = v.Child
		case TransformCursor:
			q = v.Child
		default:
			return "", false
		}
	}
}

// SubstChild replaces the child of q's top node when q is a single-child
// variant (Select, Narrow, Filter, Wrap, Rename, Limit, Offset, OrderBy,
// GroupBy, Environment, TransformCursor, Unique, Count, Context), returning
// the rewritten node; for any other q it returns newChild itself.
func SubstChild(q Query, newChild Query) Query {
	switch v := q.(type) {
	case Select:
		v.Child = newChild
		return v
	case Narrow:
		v.Child = newChild
		return v
	case Filter:
		v.Child = newChild
		return v
	case Wrap:
		v.Child = newChild
		return v
	case Rename:
		v.Child = newChild
		return v
	case Limit:
		v.Child = newChild
		return v
	case Offset:
		v.Child = newChild
		return v
	case OrderBy:
		v.Child = newChild
		return v
	case GroupBy:
		v.Child = newChild
		return v
	case Environment:
		v.Child = newChild
		return v
	case TransformCursor:
		v.Child = newChild
		return v
	case Unique:
		v.Child = newChild
		return v
	case Count:
		v.Child = newChild
		return v
	case Context:
		v.Child = newChild
		return v
	default:
		return newChild
	}
}

// MapFields applies fn to every Select node in q, returning the rewritten
// tree. fn receives the Select and returns its replacement Query.
func MapFields(q Query, fn func(Select) Query) Query {
	switch v := q.(type) {
	case Select:
		v.Child = MapFields(v.Child, fn)
		return fn(v)
	case Group:
		children := make([]Query, len(v.Children))
		for i, c := range v.Children {
			children[i] = MapFields(c, fn)
		}
		return NewGroup(children...)
	default:
		return SubstChild(q, MapFields(childOf(q), fn))
	}
}

// childOf extracts the single child of a structural wrapper node, or Empty
// if q has no single child (used only by MapFields's default case).
func childOf(q Query) Query {
	switch v := q.(type) {
	case Narrow:
		return v.Child
	case Filter:
		return v.Child
	case Wrap:
		return v.Child
	case Rename:
		return v.Child
	case Limit:
		return v.Child
	case Offset:
		return v.Child
	case OrderBy:
		return v.Child
	case GroupBy:
		return v.Child
	case Environment:
		return v.Child
	case TransformCursor:
		return v.Child
	case Unique:
		return v.Child
	case Count:
		return v.Child
	case Context:
		return v.Child
	default:
		return Empty{}
	}
}
