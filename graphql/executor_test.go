package graphql

import (
	"context"
	"testing"

	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/rowcursor"
)

func col(table, column string) mapping.ColumnRef {
	return mapping.ColumnRef{Table: table, Column: column}
}

func testRegistry(t *testing.T) *mapping.Registry {
	t.Helper()
	reg := mapping.NewRegistry()

	person, err := mapping.NewObjectMapping("Person", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("people", "id"), Key: true},
		mapping.SqlField{Name: "name", Col: col("people", "name")},
	}, nil)
	if err != nil {
		t.Fatalf("Person mapping: %v", err)
	}
	reg.Register(person)

	movie, err := mapping.NewObjectMapping("Movie", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("movies", "id"), Key: true},
		mapping.SqlField{Name: "title", Col: col("movies", "title")},
		mapping.SqlObject{
			Name:       "director",
			Joins:      []mapping.Join{{Parent: col("movies", "director_id"), Child: col("people", "id")}},
			TargetType: "Person",
		},
	}, nil)
	if err != nil {
		t.Fatalf("Movie mapping: %v", err)
	}
	reg.Register(movie)

	root, err := mapping.NewObjectMapping("Query", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("query_root", "id"), Key: true},
		mapping.SqlObject{Name: "movieById", TargetType: "Movie"},
		mapping.SqlObject{Name: "movies", TargetType: "Movie", List: true},
	}, nil)
	if err != nil {
		t.Fatalf("Query mapping: %v", err)
	}
	reg.Register(root)

	return reg
}

// tableFetcher answers each successive Fetch from a fixed sequence of
// canned tables, in the order the executor plans its root fields (document
// order), simulating the SQL driver boundary for executor tests that plan
// more than one statement per operation.
type tableFetcher struct {
	responses []rowcursor.Table
	calls     int
}

func (f *tableFetcher) Fetch(ctx context.Context, mq *planner.MappedQuery) (rowcursor.Table, error) {
	table := f.responses[f.calls]
	f.calls++
	return table, nil
}

func TestExecutor_SingleRootFieldRootsAtItsOwnTargetType(t *testing.T) {
	reg := testRegistry(t)
	schema := mustLoadSchema(t)
	fetcher := &tableFetcher{responses: []rowcursor.Table{
		{{rowcursor.StringCell("m1"), rowcursor.StringCell("Alien"), rowcursor.StringCell("p1"), rowcursor.StringCell("p1"), rowcursor.StringCell("Ridley Scott")}},
	}}
	exec := NewExecutor(schema, reg, fetcher)

	resp := exec.Execute(context.Background(), &Request{Query: `{ movieById(id: "m1") { title director { name } } }`})
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.calls)
	}

	cursor, ok := resp.Cursor.(rowcursor.Cursor)
	if !ok {
		t.Fatalf("expected a rowcursor.Cursor, got %T", resp.Cursor)
	}
	movie, err := cursor.Field("movieById")
	if err != nil {
		t.Fatalf("Field(movieById): %v", err)
	}
	title, err := movie.Field("title")
	if err != nil {
		t.Fatalf("Field(title): %v", err)
	}
	leaf, err := title.AsLeaf()
	if err != nil {
		t.Fatalf("AsLeaf: %v", err)
	}
	if leaf.Value() != "Alien" {
		t.Fatalf("expected title Alien, got %v", leaf.Value())
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected Data to be a map[string]any, got %T", resp.Data)
	}
	movieData, ok := data["movieById"].(map[string]any)
	if !ok {
		t.Fatalf("expected movieById in Data, got %v", data)
	}
	if movieData["title"] != "Alien" {
		t.Fatalf("expected Data.movieById.title = Alien, got %v", movieData["title"])
	}
	directorData, ok := movieData["director"].(map[string]any)
	if !ok {
		t.Fatalf("expected director in Data.movieById, got %v", movieData)
	}
	if directorData["name"] != "Ridley Scott" {
		t.Fatalf("expected Data.movieById.director.name = Ridley Scott, got %v", directorData["name"])
	}
}

func TestExecutor_MultipleRootFieldsPlanAndFetchIndependently(t *testing.T) {
	reg := testRegistry(t)
	schema := mustLoadSchema(t)
	fetcher := &tableFetcher{responses: []rowcursor.Table{
		{{rowcursor.StringCell("m1"), rowcursor.StringCell("Alien")}},
		{{rowcursor.StringCell("m1"), rowcursor.StringCell("Alien")}},
	}}
	exec := NewExecutor(schema, reg, fetcher)

	resp := exec.Execute(context.Background(), &Request{Query: `{
		movieById(id: "m1") { title }
		movies { title }
	}`})
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected one fetch per root field, got %d", fetcher.calls)
	}

	cursor := resp.Cursor.(rowcursor.Cursor)
	if _, err := cursor.Field("movieById"); err != nil {
		t.Fatalf("Field(movieById): %v", err)
	}
	moviesField, err := cursor.Field("movies")
	if err != nil {
		t.Fatalf("Field(movies): %v", err)
	}
	if !moviesField.IsList() {
		t.Fatalf("expected the 'movies' root field to be list-valued")
	}

	data := resp.Data.(map[string]any)
	moviesData, ok := data["movies"].([]any)
	if !ok {
		t.Fatalf("expected Data.movies to be a list, got %T", data["movies"])
	}
	if len(moviesData) != 1 || moviesData[0].(map[string]any)["title"] != "Alien" {
		t.Fatalf("expected Data.movies[0].title = Alien, got %v", moviesData)
	}
}

// TestExecutor_AliasRenamesDataKeyButNotCursorField asserts alias handling
// is purely a Collector.Assemble response-shaping concern: the root
// Cursor's Field name stays the mapping name ("movieById"), only the Data
// map key changes to the query's alias ("aka").
func TestExecutor_AliasRenamesDataKeyButNotCursorField(t *testing.T) {
	reg := testRegistry(t)
	schema := mustLoadSchema(t)
	fetcher := &tableFetcher{responses: []rowcursor.Table{
		{{rowcursor.StringCell("m1"), rowcursor.StringCell("Alien")}},
	}}
	exec := NewExecutor(schema, reg, fetcher)

	resp := exec.Execute(context.Background(), &Request{Query: `{ aka: movieById(id: "m1") { title } }`})
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}

	cursor := resp.Cursor.(rowcursor.Cursor)
	if _, err := cursor.Field("movieById"); err != nil {
		t.Fatalf("Field(movieById) should still resolve by mapping name: %v", err)
	}

	data := resp.Data.(map[string]any)
	akaData, ok := data["aka"].(map[string]any)
	if !ok {
		t.Fatalf("expected Data to key the aliased field as 'aka', got %v", data)
	}
	if akaData["title"] != "Alien" {
		t.Fatalf("expected Data.aka.title = Alien, got %v", akaData["title"])
	}
}
