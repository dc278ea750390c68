package mapping

import "testing"

type stubCodec struct{ name string }

func (c stubCodec) Name() string { return c.name }

func movieMapping(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	om, err := NewObjectMapping("Movie", []FieldMapping{
		SqlField{Name: "id", Col: ColumnRef{Table: "movies", Column: "id", Codec: stubCodec{"uuid"}}, Key: true},
		SqlField{Name: "title", Col: ColumnRef{Table: "movies", Column: "title", Codec: stubCodec{"text"}}},
		SqlField{Name: "genre", Col: ColumnRef{Table: "movies", Column: "genre", Codec: stubCodec{"text"}}},
	}, nil)
	if err != nil {
		t.Fatalf("NewObjectMapping: %v", err)
	}
	reg.Register(om)
	return reg
}

func TestNewObjectMapping_RequiresAKeyField(t *testing.T) {
	_, err := NewObjectMapping("Movie", []FieldMapping{
		SqlField{Name: "title", Col: ColumnRef{Table: "movies", Column: "title"}},
	}, nil)
	if err == nil {
		t.Fatalf("expected error when no field is marked key")
	}
}

func TestNewObjectMapping_RejectsDuplicateFieldNames(t *testing.T) {
	_, err := NewObjectMapping("Movie", []FieldMapping{
		SqlField{Name: "id", Col: ColumnRef{Table: "movies", Column: "id"}, Key: true},
		SqlAttribute{Name: "id", Col: ColumnRef{Table: "movies", Column: "id2"}},
	}, nil)
	if err == nil {
		t.Fatalf("expected error on duplicate field name")
	}
}

func TestRegistry_ResolvesUnprefixedMappingByDefault(t *testing.T) {
	reg := movieMapping(t)
	om, ok := reg.ObjectMappingFor("Movie", []string{"theater", "nowShowing"})
	if !ok {
		t.Fatalf("expected a mapping to resolve")
	}
	if len(om.KeyColumns()) != 1 || om.KeyColumns()[0].Column != "id" {
		t.Fatalf("expected id to be the sole key column, got %v", om.KeyColumns())
	}
}

func TestRegistry_PrefersMostSpecificPrefix(t *testing.T) {
	reg := NewRegistry()
	base, _ := NewObjectMapping("Movie", []FieldMapping{
		SqlField{Name: "id", Col: ColumnRef{Table: "movies", Column: "id"}, Key: true},
	}, nil)
	reg.Register(base)

	scoped, _ := NewObjectMapping("Movie", []FieldMapping{
		SqlField{Name: "id", Col: ColumnRef{Table: "archived_movies", Column: "id"}, Key: true},
	}, []string{"archive"})
	reg.Register(scoped)

	om, ok := reg.ObjectMappingFor("Movie", []string{"archive", "item"})
	if !ok {
		t.Fatalf("expected a mapping to resolve")
	}
	if om.KeyColumns()[0].Table != "archived_movies" {
		t.Fatalf("expected the prefixed override to win, got table %q", om.KeyColumns()[0].Table)
	}

	unscoped, ok := reg.ObjectMappingFor("Movie", []string{"featured"})
	if !ok || unscoped.KeyColumns()[0].Table != "movies" {
		t.Fatalf("expected the unprefixed mapping outside the scoped path, got %+v", unscoped)
	}
}

func TestJoin_NormalizesEndpointOrderForDeduplication(t *testing.T) {
	a := ColumnRef{Table: "movies", Column: "manager_id"}
	b := ColumnRef{Table: "people", Column: "id"}

	j1 := Join{Parent: a, Child: b}
	j2 := Join{Parent: b, Child: a}

	if j1.NormalKey() != j2.NormalKey() {
		t.Fatalf("expected Join(a,b) and Join(b,a) to share a normal form")
	}

	deduped := DedupJoins([]Join{j1, j2})
	if len(deduped) != 1 {
		t.Fatalf("expected deduplication to collapse to one join, got %d", len(deduped))
	}
}
