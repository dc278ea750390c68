package interp

import (
	"context"
	"testing"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/rowcursor"
)

func col(table, column string) mapping.ColumnRef {
	return mapping.ColumnRef{Table: table, Column: column}
}

func rootRegistry(t *testing.T) *mapping.Registry {
	t.Helper()
	reg := mapping.NewRegistry()

	movie, err := mapping.NewObjectMapping("Movie", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("movies", "id"), Key: true},
		mapping.SqlField{Name: "title", Col: col("movies", "title")},
	}, nil)
	if err != nil {
		t.Fatalf("movie mapping: %v", err)
	}
	reg.Register(movie)

	root, err := mapping.NewObjectMapping("Query", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("query_root", "id"), Key: true},
		mapping.SqlObject{Name: "movieById", Joins: nil, TargetType: "Movie"},
	}, nil)
	if err != nil {
		t.Fatalf("root mapping: %v", err)
	}
	reg.Register(root)

	return reg
}

// fakeFetcher returns the same canned rows for every fetch and counts its
// calls, used to simulate the SQL driver boundary for coalescing tests.
type fakeFetcher struct {
	calls int
	table rowcursor.Table
}

func (f *fakeFetcher) Fetch(ctx context.Context, mq *planner.MappedQuery) (rowcursor.Table, error) {
	f.calls++
	return f.table, nil
}

func TestResolve_CoalescesSiblingRequestsIntoOneFetch(t *testing.T) {
	reg := rootRegistry(t)

	// Columns, in the order Build accumulates them: the matched movie's id
	// and title. The plan is rooted at Movie directly (the virtual Query
	// type never contributes a column of its own here) since root-field
	// coalescing is a key-based refetch, not a join from a Query row.
	table := rowcursor.Table{
		{rowcursor.I32Cell(1), rowcursor.StringCell("Alpha")},
		{rowcursor.I32Cell(2), rowcursor.StringCell("Beta")},
		{rowcursor.I32Cell(3), rowcursor.StringCell("Gamma")},
	}
	fetcher := &fakeFetcher{table: table}

	child := algebra.Select{Name: "title", Child: algebra.Empty{}}
	reqs := []Request{
		{Field: "movieById", KeyPath: []string{"id"}, KeyValue: int32(1), Child: child, Type: "Query"},
		{Field: "movieById", KeyPath: []string{"id"}, KeyValue: int32(2), Child: child, Type: "Query"},
		{Field: "movieById", KeyPath: []string{"id"}, KeyValue: int32(3), Child: child, Type: "Query"},
	}

	results, err := Resolve(context.Background(), reg, fetcher, reqs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected sibling requests to coalesce into a single fetch, got %d calls", fetcher.calls)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("result %d: unexpected error %v", i, r.Err)
		}
		if r.Cursor == nil {
			t.Fatalf("result %d: expected a matching cursor", i)
		}
	}

	titleCursor, err := results[1].Cursor.Field("title")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	leaf, err := titleCursor.AsLeaf()
	if err != nil {
		t.Fatalf("AsLeaf: %v", err)
	}
	if leaf.Value() != "Beta" {
		t.Fatalf("expected result[1] to scatter back to key 2 (Beta), got %v", leaf.Value())
	}
}

func TestResolve_MissingKeyYieldsNilCursorNoError(t *testing.T) {
	reg := rootRegistry(t)
	fetcher := &fakeFetcher{table: rowcursor.Table{
		{rowcursor.I32Cell(1), rowcursor.StringCell("Alpha")},
	}}

	child := algebra.Select{Name: "title", Child: algebra.Empty{}}
	reqs := []Request{
		{Field: "movieById", KeyPath: []string{"id"}, KeyValue: int32(99), Child: child, Type: "Query"},
	}

	results, err := Resolve(context.Background(), reg, fetcher, reqs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("expected no error for an unmatched key, got %v", results[0].Err)
	}
	if results[0].Cursor != nil {
		t.Fatalf("expected a nil cursor for an unmatched key, got %v", results[0].Cursor)
	}
}
