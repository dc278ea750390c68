// Package algebra defines the intermediate representation the planner and
// elaborator operate on: a tagged tree of query operators (Query) and a tagged
// tree of boolean/arithmetic/string predicates (Predicate). Query is purely
// structural; Predicate additionally carries Evaluate (evaluate.go) for
// filtering already-fetched rows.
package algebra

// Query is a node in the query algebra. Implementations are the sealed set of
// variants below; external packages cannot add new ones.
type Query interface {
	query()
}

// Select picks a named field (optionally aliased) and continues into Child.
type Select struct {
	Name  string
	Alias string
	Child Query
}

func (Select) query() {}

// ResultName returns the Alias if set, otherwise Name.
func (s Select) ResultName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// Group holds sibling selections at the same level. A Group directly nested
// inside another Group is always flattened by NewGroup.
type Group struct {
	Children []Query
}

func (Group) query() {}

// NewGroup builds a Group, flattening any immediately-nested Groups so that
// Group(Group(a,b), c) normalizes to Group(a,b,c).
func NewGroup(children ...Query) Query {
	flat := make([]Query, 0, len(children))
	for _, c := range children {
		if g, ok := c.(Group); ok {
			flat = append(flat, g.Children...)
			continue
		}
		flat = append(flat, c)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Group{Children: flat}
}

// Unique asserts that Child yields at most one result.
type Unique struct{ Child Query }

func (Unique) query() {}

// Filter restricts Child to rows matching Pred.
type Filter struct {
	Pred  Predicate
	Child Query
}

func (Filter) query() {}

// Narrow restricts Child to the given concrete type.
type Narrow struct {
	TargetType string
	Child      Query
}

func (Narrow) query() {}

// Wrap renames the result of Child to Name without otherwise touching it.
// Used by the Staging Elaborator to box a Defer under its field name.
type Wrap struct {
	Name  string
	Child Query
}

func (Wrap) query() {}

// Rename changes the response key Child is reported under.
type Rename struct {
	Name  string
	Child Query
}

func (Rename) query() {}

// Limit caps Child to at most N results.
type Limit struct {
	N     int
	Child Query
}

func (Limit) query() {}

// Offset skips the first N results of Child.
type Offset struct {
	N     int
	Child Query
}

func (Offset) query() {}

// OrderBy sorts Child's results by the given ordering selections.
type OrderBy struct {
	Sels  []OrderSelection
	Child Query
}

func (OrderBy) query() {}

// GroupBy partitions Child's results by the given key paths.
type GroupBy struct {
	Keys  []string
	Child Query
}

func (GroupBy) query() {}

// Count replaces Child's result with its cardinality.
type Count struct{ Child Query }

func (Count) query() {}

// Introspect delegates to schema introspection; contributes nothing to SQL
// planning (§4.E dispatch rule 5).
type Introspect struct {
	Schema string
	Child  Query
}

func (Introspect) query() {}

// Environment binds ambient variables visible to Child.
type Environment struct {
	Env   map[string]any
	Child Query
}

func (Environment) query() {}

// Component marks Child as belonging to a schema component boundary; passed
// through untouched by the core (§6 "Introspection & effects").
type Component struct {
	Mapping string
	Join    string
	Child   Query
}

func (Component) query() {}

// Defer marks Child as requiring a second round-trip, keyed by StagingJoin
// against ParentType. Name is the field this Defer stands in for, within the
// mapping that owns it (the Planner needs it back to find the join whose
// parent-side column has to be projected alongside the first fetch).
// Produced only by the Staging Elaborator.
type Defer struct {
	Name        string
	StagingJoin StagingJoin
	Child       Query
	ParentType  string
}

func (Defer) query() {}

// StagingJoin is the closure invoked once the first round trip's row is in
// hand, reading whatever join-key values it needs straight off that row's
// cursor (cv), to produce the deferred sub-query. ok is false when the key
// is unresolved (a null foreign key), meaning the deferred field is simply
// absent and no second fetch should run.
type StagingJoin func(path []string, cv CursorValue) (q Query, ok bool, err error)

// TransformCursor applies Fn to cursors produced while walking Child.
type TransformCursor struct {
	Fn    func(c any) any
	Child Query
}

func (TransformCursor) query() {}

// Empty denotes a query contributing no result and no SQL. Dropped by
// MergeQueries.
type Empty struct{}

func (Empty) query() {}

// Context jumps to an absolute path, independent of the current traversal
// position. Used by staging sub-queries to re-enter at the stored path.
type Context struct {
	Path  []string
	Child Query
}

func (Context) query() {}

// OrderSelection is one term in a total order over cursors: Ascending
// controls direction, NullsLast controls where nulls sort. Term identifies
// which field/path to compare.
type OrderSelection struct {
	Term      string
	Ascending bool
	NullsLast bool
}
