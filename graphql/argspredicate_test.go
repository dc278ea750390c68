package graphql

import (
	"context"
	"testing"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/rowcursor"
)

const argsSchemaSDL = `
type Person {
	id: ID!
	name: String!
}

type Movie {
	id: ID!
	title: String!
	genre: String!
	releaseDateAttr: String!
}

type Query {
	movieById(id: ID!): Movie
	moviesByGenres(genres: [String!]!): [Movie!]!
	moviesReleasedBetween(from: String!, to: String!): [Movie!]!
}
`

func argsTestRegistry(t *testing.T) *mapping.Registry {
	t.Helper()
	reg := mapping.NewRegistry()

	movie, err := mapping.NewObjectMapping("Movie", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("movies", "id"), Key: true},
		mapping.SqlField{Name: "title", Col: col("movies", "title")},
		mapping.SqlField{Name: "genre", Col: col("movies", "genre")},
		mapping.SqlAttribute{Name: "releaseDateAttr", Col: col("movies", "releasedate")},
	}, nil)
	if err != nil {
		t.Fatalf("Movie mapping: %v", err)
	}
	reg.Register(movie)

	root, err := mapping.NewObjectMapping("Query", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("query_root", "id"), Key: true},
		mapping.SqlObject{
			Name:       "moviesByGenres",
			TargetType: "Movie",
			List:       true,
			ArgsPredicate: func(args map[string]any) (algebra.Predicate, error) {
				genres, _ := args["genres"].([]any)
				return algebra.In{Left: algebra.Path{Hops: []string{"genre"}}, Values: genres}, nil
			},
		},
		mapping.SqlObject{
			Name:       "moviesReleasedBetween",
			TargetType: "Movie",
			List:       true,
			ArgsPredicate: func(args map[string]any) (algebra.Predicate, error) {
				path := algebra.Path{Hops: []string{"releaseDateAttr"}}
				from := algebra.NewGtEql(path, algebra.Const{Value: args["from"]})
				to := algebra.NewLtEql(path, algebra.Const{Value: args["to"]})
				return algebra.And{Left: from, Right: to}, nil
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("Query mapping: %v", err)
	}
	reg.Register(root)

	return reg
}

// TestExecutor_MoviesByGenresTranslatesArgumentsThroughMapping guards against
// a GraphQL argument being rendered straight into a path predicate with no
// name translation: genres must resolve to the "genre" field via the root
// mapping's ArgsPredicate, not fail as an unresolvable "genres" path.
func TestExecutor_MoviesByGenresTranslatesArgumentsThroughMapping(t *testing.T) {
	reg := argsTestRegistry(t)
	schema, err := LoadSchema(argsSchemaSDL)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	fetcher := &tableFetcher{responses: []rowcursor.Table{
		{{rowcursor.StringCell("m1"), rowcursor.StringCell("scifi"), rowcursor.StringCell("Alien")}},
	}}
	exec := NewExecutor(schema, reg, fetcher)

	resp := exec.Execute(context.Background(), &Request{Query: `{ moviesByGenres(genres: ["scifi", "horror"]) { title } }`})
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected Data to be a map[string]any, got %T", resp.Data)
	}
	movies, ok := data["moviesByGenres"].([]any)
	if !ok || len(movies) != 1 {
		t.Fatalf("expected one movie in Data.moviesByGenres, got %v", data["moviesByGenres"])
	}
	if movies[0].(map[string]any)["title"] != "Alien" {
		t.Fatalf("expected title Alien, got %v", movies[0])
	}
}

// TestExecutor_MoviesReleasedBetweenTranslatesArgumentsIntoAComparisonPredicate
// guards the other argument-translation path: from/to don't name fields
// directly, they each seed one half of a range predicate over
// releaseDateAttr.
func TestExecutor_MoviesReleasedBetweenTranslatesArgumentsIntoAComparisonPredicate(t *testing.T) {
	reg := argsTestRegistry(t)
	schema, err := LoadSchema(argsSchemaSDL)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	fetcher := &tableFetcher{responses: []rowcursor.Table{
		{{rowcursor.StringCell("m2"), rowcursor.StringCell("2010-01-01"), rowcursor.StringCell("Arrival")}},
	}}
	exec := NewExecutor(schema, reg, fetcher)

	resp := exec.Execute(context.Background(), &Request{Query: `{
		moviesReleasedBetween(from: "2000-01-01", to: "2020-01-01") { title }
	}`})
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected Data to be a map[string]any, got %T", resp.Data)
	}
	movies, ok := data["moviesReleasedBetween"].([]any)
	if !ok || len(movies) != 1 {
		t.Fatalf("expected one movie in Data.moviesReleasedBetween, got %v", data["moviesReleasedBetween"])
	}
	if movies[0].(map[string]any)["title"] != "Arrival" {
		t.Fatalf("expected title Arrival, got %v", movies[0])
	}
}
