// Package movies is the worked mapping used by the S1-S6 scenarios and by
// `cmd/mapperql bench`: a "movies" table with a self-referencing "people"
// table standing in for a director, plus the cyclic Person.manager relation
// the Staging Elaborator's re-entrancy test exercises.
package movies

import (
	"github.com/google/uuid"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
)

type uuidCodec struct{}

func (uuidCodec) Name() string { return "uuid" }

type stringCodec struct{}

func (stringCodec) Name() string { return "string" }

type intCodec struct{}

func (intCodec) Name() string { return "int" }

type timeCodec struct{}

func (timeCodec) Name() string { return "time" }

type stringArrayCodec struct{}

func (stringArrayCodec) Name() string { return "string_array" }

// Codecs used throughout the fixture, exported so driver wiring (or tests)
// can recognize them by identity.
var (
	UUID        mapping.Codec = uuidCodec{}
	String      mapping.Codec = stringCodec{}
	Int         mapping.Codec = intCodec{}
	Time        mapping.Codec = timeCodec{}
	StringArray mapping.Codec = stringArrayCodec{}
)

func col(table, column string, codec mapping.Codec) mapping.ColumnRef {
	return mapping.ColumnRef{Table: table, Column: column, Codec: codec}
}

// CursorFuncs is the registry of named cursor functions the YAML document
// references by "fn:" key (mapping.Document.Build's second argument).
// IsLongMovie (cursorfn.go) is grounded directly against the rowcursor.Cursor
// interface.
func CursorFuncs() map[string]mapping.CursorFn {
	return map[string]mapping.CursorFn{
		"isLong": IsLongMovie,
	}
}

// Codecs resolves every (table, column) pair used by this fixture's
// mapping.Document to its Codec, matching the mapping.CodecLookup contract.
func Codecs(table, column string) mapping.Codec {
	switch {
	case column == "id":
		return UUID
	case column == "releasedate", column == "showtime", column == "nextshowing":
		return Time
	case column == "duration":
		return Int
	case column == "categories", column == "features":
		return StringArray
	default:
		return String
	}
}

// Registry builds the movies/people Registry directly in Go, for callers
// that don't want to round-trip through ParseDocument. It is a superset of
// what YAMLDocument describes.
func Registry() (*mapping.Registry, error) {
	reg := mapping.NewRegistry()

	person, err := mapping.NewObjectMapping("Person", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("people", "id", UUID), Key: true},
		mapping.SqlField{Name: "name", Col: col("people", "name", String)},
		mapping.SqlAttribute{Name: "managerIdAttr", Col: col("people", "manager_id", UUID), Nullable: true},
		mapping.SqlObject{
			Name: "manager",
			Joins: []mapping.Join{
				{Parent: col("people", "manager_id", UUID), Child: col("people", "id", UUID)},
			},
			TargetType: "Person",
		},
	}, nil)
	if err != nil {
		return nil, err
	}
	reg.Register(person)

	movie, err := mapping.NewObjectMapping("Movie", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("movies", "id", UUID), Key: true},
		mapping.SqlField{Name: "title", Col: col("movies", "title", String)},
		mapping.SqlField{Name: "genre", Col: col("movies", "genre", String)},
		mapping.SqlAttribute{Name: "releaseDateAttr", Col: col("movies", "releasedate", Time)},
		mapping.SqlField{Name: "showtime", Col: col("movies", "showtime", Time)},
		mapping.SqlField{Name: "nextShowing", Col: col("movies", "nextshowing", Time)},
		mapping.SqlAttribute{Name: "durationAttr", Col: col("movies", "duration", Int)},
		mapping.SqlField{Name: "categories", Col: col("movies", "categories", StringArray)},
		mapping.SqlField{Name: "features", Col: col("movies", "features", StringArray)},
		mapping.CursorField{
			Name:             "isLong",
			Fn:               IsLongMovie,
			RequiredSiblings: []string{"durationAttr"},
		},
		mapping.SqlObject{
			Name: "director",
			Joins: []mapping.Join{
				{Parent: col("movies", "director_id", UUID), Child: col("people", "id", UUID)},
			},
			TargetType: "Person",
		},
	}, nil)
	if err != nil {
		return nil, err
	}
	reg.Register(movie)

	root, err := mapping.NewObjectMapping("Query", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("query_root", "id", Int), Key: true},
		mapping.SqlObject{Name: "movieById", TargetType: "Movie"},
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
		mapping.SqlObject{
			Name:       "longMovies",
			TargetType: "Movie",
			List:       true,
			Filter:     algebra.NewEql(algebra.Path{Hops: []string{"isLong"}}, algebra.Const{Value: true}),
		},
	}, nil)
	if err != nil {
		return nil, err
	}
	reg.Register(root)

	return reg, nil
}

// NewUUID is a thin wrapper kept so callers don't need a direct
// google/uuid import just to seed fixture keys.
func NewUUID() uuid.UUID { return uuid.New() }
