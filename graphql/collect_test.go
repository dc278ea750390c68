package graphql

import (
	"testing"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/eddieafk/mapperql/algebra"
)

const testSDL = `
type Person {
	id: ID!
	name: String!
}

type Movie {
	id: ID!
	title: String!
	director: Person
}

type Query {
	movieById(id: ID!): Movie
	movies: [Movie!]!
}
`

func mustLoadSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := LoadSchema(testSDL)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	return s
}

func mustParse(t *testing.T, schema *Schema, query string) *ast.QueryDocument {
	t.Helper()
	doc, errs := gqlparser.LoadQuery(schema.AST(), query)
	if len(errs) > 0 {
		t.Fatalf("LoadQuery: %v", errs[0])
	}
	return doc
}

func TestCollector_SimpleFieldBecomesSelect(t *testing.T) {
	schema := mustLoadSchema(t)
	doc := mustParse(t, schema, `{ movies { title } }`)

	c := NewCollector(schema, nil, nil, nil)
	q, err := c.Collect(doc.Operations[0].SelectionSet, "Query")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	sel, ok := q.(algebra.Select)
	if !ok {
		t.Fatalf("expected a single Select at the root, got %T", q)
	}
	if sel.Name != "movies" {
		t.Fatalf("expected field 'movies', got %q", sel.Name)
	}
	inner, ok := sel.Child.(algebra.Select)
	if !ok || inner.Name != "title" {
		t.Fatalf("expected nested 'title' select, got %#v", sel.Child)
	}
}

func TestCollector_ArgumentBecomesEqlFilter(t *testing.T) {
	schema := mustLoadSchema(t)
	doc := mustParse(t, schema, `{ movieById(id: "m1") { title } }`)

	c := NewCollector(schema, nil, nil, nil)
	q, err := c.Collect(doc.Operations[0].SelectionSet, "Query")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	sel, ok := q.(algebra.Select)
	if !ok {
		t.Fatalf("expected a Select, got %T", q)
	}
	filter, ok := sel.Child.(algebra.Filter)
	if !ok {
		t.Fatalf("expected the argument to compile to a Filter, got %T", sel.Child)
	}
	eql, ok := filter.Pred.(algebra.Eql)
	if !ok {
		t.Fatalf("expected an Eql predicate, got %T", filter.Pred)
	}
	path, ok := eql.Left.(algebra.Path)
	if !ok || len(path.Hops) != 1 || path.Hops[0] != "id" {
		t.Fatalf("expected the predicate to reference path 'id', got %#v", eql.Left)
	}
	constVal, ok := eql.Right.(algebra.Const)
	if !ok || constVal.Value != "m1" {
		t.Fatalf("expected const 'm1', got %#v", eql.Right)
	}
}

func TestCollector_VariableResolvesFromBoundValue(t *testing.T) {
	schema := mustLoadSchema(t)
	doc := mustParse(t, schema, `query($movieId: ID!) { movieById(id: $movieId) { title } }`)

	c := NewCollector(schema, nil, map[string]any{"movieId": "m7"}, nil)
	q, err := c.Collect(doc.Operations[0].SelectionSet, "Query")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	sel := q.(algebra.Select)
	filter := sel.Child.(algebra.Filter)
	eql := filter.Pred.(algebra.Eql)
	constVal := eql.Right.(algebra.Const)
	if constVal.Value != "m7" {
		t.Fatalf("expected variable to resolve to 'm7', got %v", constVal.Value)
	}
}

func TestCollector_UndeclaredVariableIsAnError(t *testing.T) {
	schema := mustLoadSchema(t)
	doc := mustParse(t, schema, `query($movieId: ID!) { movieById(id: $movieId) { title } }`)

	c := NewCollector(schema, nil, nil, nil)
	_, err := c.Collect(doc.Operations[0].SelectionSet, "Query")
	if err == nil {
		t.Fatalf("expected an error for an unbound variable")
	}
}

func TestSchema_FieldTypeNameUnwrapsListAndNonNull(t *testing.T) {
	schema := mustLoadSchema(t)
	if got := schema.FieldTypeName("Query", "movies"); got != "Movie" {
		t.Fatalf("FieldTypeName(movies): got %q want Movie", got)
	}
	if !schema.FieldIsList("Query", "movies") {
		t.Fatalf("expected 'movies' to be reported as a list field")
	}
	if schema.FieldIsList("Query", "movieById") {
		t.Fatalf("expected 'movieById' not to be a list field")
	}
}
