package movies

import (
	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/rowcursor"
)

// MovieByIDQuery builds the algebra for `movieById(id: $id) { title director
// { name } }` below the root field itself (the S1 scenario shape): resolving
// which SqlObject a root field name answers to is the Interpreter shell's
// job (§4.H, see interp.Resolve), not something the algebra tree encodes, so
// this is already rooted at Movie via the id filter.
func MovieByIDQuery(id string) algebra.Query {
	return algebra.Filter{
		Pred: algebra.NewEql(algebra.Path{Hops: []string{"id"}}, algebra.Const{Value: id}),
		Child: algebra.Group{Children: []algebra.Query{
			algebra.Select{Name: "title", Child: algebra.Empty{}},
			algebra.Select{Name: "director", Child: algebra.Select{Name: "name", Child: algebra.Empty{}}},
		}},
	}
}

// PlanMovieByID elaborates and plans MovieByIDQuery against Registry(),
// rooted at Movie: the virtual Query type only matters for resolving which
// SqlObject a root field name maps to, not for the plan itself, since Query
// has no SQL table of its own for §4.E step 6 to ever select as the root.
func PlanMovieByID(id string) (*mapping.Registry, *planner.MappedQuery, error) {
	reg, err := Registry()
	if err != nil {
		return nil, nil, err
	}
	q := MovieByIDQuery(id)
	elaborated, err := planner.Elaborate(reg, q, nil, "Movie", "Query")
	if err != nil {
		return nil, nil, err
	}
	mq, err := planner.Build(reg, elaborated, nil, "Movie")
	if err != nil {
		return nil, nil, err
	}
	return reg, mq, nil
}

// FixtureTable returns canned rows standing in for a SQL driver's answer to
// PlanMovieByID: one movie ("Alien") joined to its director ("Ridley Scott"),
// in the column order Build would produce: movies.id, movies.title,
// movies.director_id (the join's parent endpoint, still projected even
// though it backs no GraphQL field of its own), people.id, people.name.
func FixtureTable() rowcursor.Table {
	return rowcursor.Table{
		{
			rowcursor.StringCell("m-alien"),
			rowcursor.StringCell("Alien"),
			rowcursor.StringCell("p-scott"),
			rowcursor.StringCell("p-scott"),
			rowcursor.StringCell("Ridley Scott"),
		},
	}
}
