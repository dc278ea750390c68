package rowcursor

// StagedCursor decorates Cursor, substituting Result for whatever FieldName
// would otherwise resolve to — the executor's way of splicing a second
// round trip's answer back into the first fetch's tree without either
// fetch's cursor needing to know the other exists (§4.F).
type StagedCursor struct {
	Cursor
	FieldName string
	Result    Cursor
}

func (s *StagedCursor) Field(name string) (Cursor, error) {
	if name == s.FieldName {
		return s.Result, nil
	}
	return s.Cursor.Field(name)
}

// pathValuer mirrors algebra.CursorValue structurally, without rowcursor
// importing algebra just to name it: StagedCursor and ListOverride embed the
// Cursor interface, which doesn't declare PathValue, so it isn't promoted
// through the wrapper on its own.
type pathValuer interface {
	PathValue(hops []string) (any, bool, error)
}

// PathValue delegates to the wrapped cursor, so a StagedCursor standing in
// for an owner further up a staged chain still satisfies algebra.CursorValue
// for the next StagingJoin to read off of.
func (s *StagedCursor) PathValue(hops []string) (any, bool, error) {
	if pv, ok := s.Cursor.(pathValuer); ok {
		return pv.PathValue(hops)
	}
	return nil, false, nil
}

// ListOverride decorates Cursor, substituting Items for AsList — used when a
// deferred field sits beneath a list, so each item of the first fetch gets
// its own independently-resolved second fetch spliced in.
type ListOverride struct {
	Cursor
	Items []Cursor
}

func (l *ListOverride) IsList() bool            { return true }
func (l *ListOverride) AsList() ([]Cursor, error) { return l.Items, nil }

// PathValue delegates to the wrapped cursor; ListOverride only ever decorates
// a list position, but StagingJoin closures are written generically enough
// to probe any cursor they're handed.
func (l *ListOverride) PathValue(hops []string) (any, bool, error) {
	if pv, ok := l.Cursor.(pathValuer); ok {
		return pv.PathValue(hops)
	}
	return nil, false, nil
}

// nullCursor is an always-absent leaf, returned for a staged field whose
// second fetch resolved to zero rows (an unresolved join key, or a fetch
// that legitimately matched nothing).
type nullCursor struct {
	path []string
	tpe  string
}

// NewNullCursor builds an always-absent cursor at path/tpe, for a staged
// field whose second fetch resolved to nothing.
func NewNullCursor(path []string, tpe string) Cursor {
	return &nullCursor{path: path, tpe: tpe}
}

func (n *nullCursor) Path() []string { return n.path }
func (n *nullCursor) Type() string   { return n.tpe }

func (n *nullCursor) IsLeaf() bool          { return true }
func (n *nullCursor) AsLeaf() (Cell, error) { return NullCell(), nil }

func (n *nullCursor) IsList() bool              { return true }
func (n *nullCursor) AsList() ([]Cursor, error) { return nil, nil }

func (n *nullCursor) IsNullable() bool { return true }
func (n *nullCursor) AsNullable() (Cursor, bool, error) { return nil, false, nil }

func (n *nullCursor) Narrow(subtype string) (Cursor, bool, error) { return nil, false, nil }

func (n *nullCursor) Field(name string) (Cursor, error) {
	return nil, &TypeError{Path: n.path, Msg: "field " + name + " has no value: deferred fetch resolved to nothing"}
}

func (n *nullCursor) HasAttribute(name string) bool { return false }

func (n *nullCursor) Attribute(name string) (Cell, error) {
	return Cell{}, &TypeError{Path: n.path, Msg: "attribute " + name + " has no value: deferred fetch resolved to nothing"}
}

// PathValue always misses: a staged field that resolved to nothing has no
// join-key values for anything staged beneath it to read.
func (n *nullCursor) PathValue(hops []string) (any, bool, error) { return nil, false, nil }
