// Package planner implements the SQL Projection Planner ("MappedQuery",
// spec §4.E) and the Staging Elaborator (§4.F): given an elaborated query and
// the mapping metadata it refers to, it computes the minimum column set,
// topologically ordered joins, WHERE-clause predicates, and per-column
// codec/nullability metadata needed to answer the query with one SQL
// statement, plus the lazy Fragment producing that statement's text.
package planner

import (
	"fmt"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/sqlfrag"
)

// ColumnMeta is the per-column metadata the driver boundary needs to decode
// a cell: whether the column's table is the child of any join (so a null
// must be read as FailedJoin rather than a decoded absence), its codec, and
// whether the column itself is nullable in the GraphQL sense.
type ColumnMeta struct {
	IsFromOuterJoin bool
	Codec           mapping.Codec
	Nullable        bool
}

// PredicateEntry is one (path, type, predicate) triple scheduled for WHERE
// compilation. ResolvedPaths maps each path referenced by Pred (keyed by
// pathKey) to the ColumnRef it resolves to, computed once during Build so
// Fragment rendering never needs the mapping registry.
type PredicateEntry struct {
	Path          []string
	Type          string
	Pred          algebra.Predicate
	ResolvedPaths map[string]mapping.ColumnRef
}

// DeferredFetch records one field the Staging Elaborator cut over to a
// second round trip (§4.F): FieldName on OwnerType/OwnerPath resolves to
// TargetType by invoking StagingJoin against the first fetch's row.
type DeferredFetch struct {
	Path        []string
	OwnerPath   []string
	OwnerType   string
	FieldName   string
	StagingJoin algebra.StagingJoin
	TargetType  string
	List        bool
}

// MappedQuery is the planner's output (§4.E).
type MappedQuery struct {
	Table      string
	Columns    []mapping.ColumnRef
	Metas      []ColumnMeta // parallel to Columns
	Predicates []PredicateEntry
	Joins      []mapping.Join

	// PostFilters holds predicate entries that reference at least one
	// cursor-computed path (§4.B): paths Fragment cannot render into SQL, so
	// the Row-table Cursor evaluates them against the fetched row instead.
	PostFilters []PredicateEntry

	// Deferred holds the fields this query cut over to a second round trip.
	Deferred []DeferredFetch
}

// MetaFor returns the ColumnMeta for col, if col is present in Columns.
func (mq *MappedQuery) MetaFor(col mapping.ColumnRef) (ColumnMeta, bool) {
	for i, c := range mq.Columns {
		if c.Equal(col) {
			return mq.Metas[i], true
		}
	}
	return ColumnMeta{}, false
}

// Fragment lazily renders the planner's output as the final parameterised
// SQL statement (§4.E "Fragment emission"):
//
//	SELECT c1, c2, … FROM rootTable
//	  LEFT JOIN childTable ON parentCol = childCol  (one per join, in order)
//	  WHERE <AND of all non-empty predicate fragments>
//
// encoderFor resolves the Encoder a codec presents to sqlfrag for binding
// (the planner deals in mapping.Codec; sqlfrag deals in sqlfrag.Encoder —
// this indirection is the seam the driver boundary controls).
func (mq *MappedQuery) Fragment(encoderFor func(mapping.Codec) sqlfrag.Encoder) (sqlfrag.Fragment, error) {
	if mq.Table == "" {
		return sqlfrag.Empty, fmt.Errorf("planner: no root table selected")
	}

	cols := make([]string, len(mq.Columns))
	for i, c := range mq.Columns {
		cols[i] = c.Table + "." + c.Column
	}
	colList := ""
	for i, c := range cols {
		if i > 0 {
			colList += ", "
		}
		colList += c
	}

	sql := "SELECT " + colList + " FROM " + mq.Table
	for _, j := range mq.Joins {
		sql += fmt.Sprintf("\nLEFT JOIN %s ON %s.%s = %s.%s",
			j.Child.Table, j.Parent.Table, j.Parent.Column, j.Child.Table, j.Child.Column)
	}

	predFrags := make([]sqlfrag.Fragment, 0, len(mq.Predicates))
	for _, pe := range mq.Predicates {
		f, err := compilePredicate(pe.Pred, pe.ResolvedPaths, encoderFor)
		if err != nil {
			return sqlfrag.Empty, &PredicateError{Path: pe.Path, Type: pe.Type, Err: err}
		}
		predFrags = append(predFrags, f)
	}
	where := sqlfrag.WhereAndOpt(predFrags...)

	base := sqlfrag.Const(sql)
	if where.IsEmpty() {
		return base, nil
	}
	return sqlfrag.Concat(base, sqlfrag.Const("\n"), where), nil
}
