package planner

import (
	"testing"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/sqlfrag"
)

type stubCodec struct{ name string }

func (c stubCodec) Name() string { return c.name }

func col(table, column string, codec mapping.Codec) mapping.ColumnRef {
	return mapping.ColumnRef{Table: table, Column: column, Codec: codec}
}

// testRegistry builds a small Movie/Person mapping: Movie has a director
// (singular SqlObject to Person), Person has a self-referencing manager
// (staged by the elaborator when a walk re-enters Person) plus a managerId
// attribute exposing the join's parent column, and Movie carries a
// derived isLong CursorField over a hidden runtime_minutes attribute.
func testRegistry(t *testing.T) *mapping.Registry {
	t.Helper()
	reg := mapping.NewRegistry()

	personID := col("people", "id", stubCodec{"uuid"})
	movieDirector := col("movies", "director_id", stubCodec{"uuid"})
	personManager := col("people", "manager_id", stubCodec{"uuid"})

	isLong := mapping.CursorFn(func(c any) (any, error) { return true, nil })

	movie, err := mapping.NewObjectMapping("Movie", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("movies", "id", stubCodec{"uuid"}), Key: true},
		mapping.SqlField{Name: "title", Col: col("movies", "title", stubCodec{"text"})},
		mapping.SqlField{Name: "genre", Col: col("movies", "genre", stubCodec{"text"})},
		mapping.SqlAttribute{Name: "runtimeMinutes", Col: col("movies", "runtime_minutes", stubCodec{"int"})},
		mapping.SqlObject{Name: "director", Joins: []mapping.Join{{Parent: movieDirector, Child: personID}}, TargetType: "Person"},
		mapping.CursorField{Name: "isLong", Fn: isLong, RequiredSiblings: []string{"runtimeMinutes"}},
	}, nil)
	if err != nil {
		t.Fatalf("movie mapping: %v", err)
	}
	reg.Register(movie)

	person, err := mapping.NewObjectMapping("Person", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: personID, Key: true},
		mapping.SqlField{Name: "name", Col: col("people", "name", stubCodec{"text"})},
		mapping.SqlAttribute{Name: "managerId", Col: personManager, Nullable: true},
		mapping.SqlObject{Name: "manager", Joins: []mapping.Join{{Parent: personManager, Child: personID}}, TargetType: "Person"},
	}, nil)
	if err != nil {
		t.Fatalf("person mapping: %v", err)
	}
	reg.Register(person)

	return reg
}

func encoderFor(c mapping.Codec) sqlfrag.Encoder { return fakeEncoder{} }

type fakeEncoder struct{}

func (fakeEncoder) Encode(v any) (any, error) { return v, nil }

func TestBuild_SimpleFieldIncludesKeyAndColumn(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Select{Name: "title", Child: algebra.Empty{}}

	mq, err := Build(reg, q, nil, "Movie")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mq.Table != "movies" {
		t.Fatalf("expected root table movies, got %q", mq.Table)
	}

	var sawID, sawTitle bool
	for _, c := range mq.Columns {
		if c.Table == "movies" && c.Column == "id" {
			sawID = true
		}
		if c.Table == "movies" && c.Column == "title" {
			sawTitle = true
		}
	}
	if !sawID {
		t.Fatalf("expected key column movies.id to be required at every visited node, got %v", mq.Columns)
	}
	if !sawTitle {
		t.Fatalf("expected movies.title to be projected, got %v", mq.Columns)
	}
}

func TestBuild_NestedObjectAddsJoinAndRecurses(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Select{Name: "director", Child: algebra.Select{Name: "name", Child: algebra.Empty{}}}

	mq, err := Build(reg, q, nil, "Movie")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mq.Joins) != 1 {
		t.Fatalf("expected exactly one join, got %v", mq.Joins)
	}
	j := mq.Joins[0]
	if j.Parent.Table != "movies" || j.Parent.Column != "director_id" || j.Child.Table != "people" || j.Child.Column != "id" {
		t.Fatalf("unexpected join: %+v", j)
	}

	var sawName bool
	for _, c := range mq.Columns {
		if c.Table == "people" && c.Column == "name" {
			sawName = true
		}
	}
	if !sawName {
		t.Fatalf("expected people.name to be projected, got %v", mq.Columns)
	}
}

func TestBuild_JoinedTableColumnsAreNullableFromOuterJoin(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Select{Name: "director", Child: algebra.Select{Name: "name", Child: algebra.Empty{}}}

	mq, err := Build(reg, q, nil, "Movie")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, c := range mq.Columns {
		if c.Table == "people" {
			if !mq.Metas[i].Nullable || !mq.Metas[i].IsFromOuterJoin {
				t.Fatalf("expected people columns to be marked nullable/outer-joined, got %+v for %+v", mq.Metas[i], c)
			}
		}
	}
}

func TestBuild_CursorFieldPullsInRequiredSiblingWithoutExposingIt(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Select{Name: "isLong", Child: algebra.Empty{}}

	mq, err := Build(reg, q, nil, "Movie")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var sawRuntime bool
	for _, c := range mq.Columns {
		if c.Table == "movies" && c.Column == "runtime_minutes" {
			sawRuntime = true
		}
	}
	if !sawRuntime {
		t.Fatalf("expected runtime_minutes to be projected for isLong's required sibling, got %v", mq.Columns)
	}
}

func TestBuild_InPredicateResolvesPathAndRegistersEntry(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Filter{
		Pred:  algebra.In{Left: algebra.Path{Hops: []string{"genre"}}, Values: []any{"comedy", "drama"}},
		Child: algebra.Select{Name: "title", Child: algebra.Empty{}},
	}

	mq, err := Build(reg, q, nil, "Movie")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mq.Predicates) != 1 {
		t.Fatalf("expected one predicate entry, got %d", len(mq.Predicates))
	}
	pe := mq.Predicates[0]
	rc, ok := pe.ResolvedPaths["genre"]
	if !ok {
		t.Fatalf("expected genre path to be resolved, got %v", pe.ResolvedPaths)
	}
	if rc.Table != "movies" || rc.Column != "genre" {
		t.Fatalf("unexpected resolution for genre: %+v", rc)
	}

	frag, err := mq.Fragment(encoderFor)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if len(frag.Binds) != 2 {
		t.Fatalf("expected two bind values for the IN list, got %d", len(frag.Binds))
	}
}

func TestBuild_EmptyInValuesFailsPredicateCompilation(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Filter{
		Pred:  algebra.In{Left: algebra.Path{Hops: []string{"genre"}}, Values: nil},
		Child: algebra.Select{Name: "title", Child: algebra.Empty{}},
	}

	mq, err := Build(reg, q, nil, "Movie")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := mq.Fragment(encoderFor); err == nil {
		t.Fatalf("expected Fragment to fail compiling an empty IN list")
	}
}

func TestBuild_UnmappedTypeIsFatal(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Select{Name: "whatever", Child: algebra.Empty{}}

	_, err := Build(reg, q, nil, "NoSuchType")
	if err == nil {
		t.Fatalf("expected a MappingError for an unregistered type")
	}
	if _, ok := err.(*MappingError); !ok {
		t.Fatalf("expected *MappingError, got %T", err)
	}
}

func TestElaborate_PassesThroughSimpleNesting(t *testing.T) {
	reg := testRegistry(t)
	q := algebra.Select{Name: "director", Child: algebra.Select{Name: "name", Child: algebra.Empty{}}}

	out, err := Elaborate(reg, q, nil, "Movie", "Movie")
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	sel, ok := out.(algebra.Select)
	if !ok {
		t.Fatalf("expected Select to pass through unchanged in shape, got %T", out)
	}
	if _, ok := sel.Child.(algebra.Select); !ok {
		t.Fatalf("expected nested Select child, got %T", sel.Child)
	}
}

func TestElaborate_StagesSelfReferencingManagerChain(t *testing.T) {
	reg := testRegistry(t)
	// Person -> manager -> manager re-enters Person, which must be staged.
	q := algebra.Select{
		Name: "manager",
		Child: algebra.Select{
			Name:  "manager",
			Child: algebra.Select{Name: "name", Child: algebra.Empty{}},
		},
	}

	out, err := Elaborate(reg, q, nil, "Person", "Person")
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	outer, ok := out.(algebra.Select)
	if !ok {
		t.Fatalf("expected outer Select, got %T", out)
	}
	// The re-entrant inner "manager" selection is replaced entirely by a
	// Wrap carrying the staged Defer, per §4.F.
	wrap, ok := outer.Child.(algebra.Wrap)
	if !ok {
		t.Fatalf("expected the re-entrant manager to be staged behind a Wrap, got %T", outer.Child)
	}
	if wrap.Name != "manager" {
		t.Fatalf("expected the Wrap to carry the staged field's name, got %q", wrap.Name)
	}
	defer_, ok := wrap.Child.(algebra.Defer)
	if !ok {
		t.Fatalf("expected Wrap to contain a Defer, got %T", wrap.Child)
	}
	if defer_.ParentType != "Person" {
		t.Fatalf("expected the Defer's parent type to be Person, got %q", defer_.ParentType)
	}
}
