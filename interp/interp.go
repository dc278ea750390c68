// Package interp implements the Query Interpreter shell (spec §4.H):
// coalescing sibling root queries of the shape
//
//	Context(p, Select(f, nil, Filter(Eql(path, Const(v)), child)))
//
// sharing (context, field, key path, child, type) into a single IN-list
// query, fetching it once, and scattering results back to each request's
// original position. Requests outside this shape are the caller's
// responsibility to plan and fetch directly; this shell only ever handles
// the one coalescable shape the spec names.
package interp

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/rowcursor"
)

// Request is one coalescable root query: select Field at Type (rooted at
// ContextPath), filtered to the single row whose KeyPath equals KeyValue,
// continuing into Child.
type Request struct {
	ContextPath []string
	Field       string
	KeyPath     []string
	KeyValue    any
	Child       algebra.Query
	Type        string
}

// Fetcher executes a planned query against the SQL driver boundary
// (external collaborator, §6). The interpreter shell is parameterised over
// it so the core never imports database/sql directly.
type Fetcher interface {
	Fetch(ctx context.Context, mq *planner.MappedQuery) (rowcursor.Table, error)
}

// Result pairs a resolved cursor with any error encountered resolving it.
// Cursor is nil with a nil Err when the key had no matching row.
type Result struct {
	Cursor rowcursor.Cursor
	Err    error
}

type groupKey struct {
	contextKey string
	field      string
	keyPathKey string
	typ        string
	childIdx   int
}

// Resolve groups reqs by (context, field, key path, child shape, type),
// fetches each group once as a single IN-list query, and returns results in
// reqs' original order (§4.H "results preserve original positional order").
func Resolve(ctx context.Context, reg *mapping.Registry, f Fetcher, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	var childTemplates []algebra.Query
	groups := map[groupKey][]int{}

	for i, r := range reqs {
		childIdx := -1
		for ci, tmpl := range childTemplates {
			if reflect.DeepEqual(tmpl, r.Child) {
				childIdx = ci
				break
			}
		}
		if childIdx == -1 {
			childIdx = len(childTemplates)
			childTemplates = append(childTemplates, r.Child)
		}
		gk := groupKey{
			contextKey: pathKey(r.ContextPath),
			field:      r.Field,
			keyPathKey: pathKey(r.KeyPath),
			typ:        r.Type,
			childIdx:   childIdx,
		}
		groups[gk] = append(groups[gk], i)
	}

	keys := make([]groupKey, 0, len(groups))
	for gk := range groups {
		keys = append(keys, gk)
	}
	sort.Slice(keys, func(i, j int) bool { return groupSortKey(keys[i]) < groupSortKey(keys[j]) })

	for _, gk := range keys {
		resolveGroup(ctx, reg, f, reqs, groups[gk], results)
	}

	return results, nil
}

func resolveGroup(ctx context.Context, reg *mapping.Registry, f Fetcher, reqs []Request, idxs []int, results []Result) {
	r0 := reqs[idxs[0]]

	obj, err := resolveFieldAsObject(reg, r0.ContextPath, r0.Type, r0.Field)
	if err != nil {
		fillErr(results, idxs, err)
		return
	}

	values := make([]any, len(idxs))
	for i, idx := range idxs {
		values[i] = reqs[idx].KeyValue
	}

	// Plan rooted directly at the field's own TargetType rather than at
	// r0.Type (e.g. the schema's Query type): a root field like this one
	// is a key-based refetch, not a SQL join from its context table, so
	// there is no real row for r0.Type to contribute to the projection.
	q := algebra.Filter{
		Pred:  algebra.In{Left: algebra.Path{Hops: r0.KeyPath}, Values: values},
		Child: r0.Child,
	}

	mq, err := planner.Build(reg, q, r0.ContextPath, obj.TargetType)
	if err != nil {
		fillErr(results, idxs, err)
		return
	}

	table, err := f.Fetch(ctx, mq)
	if err != nil {
		fillErr(results, idxs, err)
		return
	}

	root := rowcursor.NewRoot(mq, reg, obj.TargetType, table, true)
	items, err := root.AsList()
	if err != nil {
		fillErr(results, idxs, err)
		return
	}

	byKey := map[string][]rowcursor.Cursor{}
	if len(r0.KeyPath) == 1 {
		for _, item := range items {
			leafCursor, err := item.Field(r0.KeyPath[0])
			if err != nil {
				continue
			}
			leaf, err := leafCursor.AsLeaf()
			if err != nil {
				continue
			}
			k := fmt.Sprintf("%v", leaf.Value())
			byKey[k] = append(byKey[k], item)
		}
	}

	for _, idx := range idxs {
		k := fmt.Sprintf("%v", reqs[idx].KeyValue)
		matches := byKey[k]
		if len(matches) == 0 {
			results[idx] = Result{}
			continue
		}
		results[idx] = Result{Cursor: matches[0]}
		if len(matches) > 1 {
			byKey[k] = matches[1:]
		} else {
			delete(byKey, k)
		}
	}
}

func resolveFieldAsObject(reg *mapping.Registry, path []string, tpe, field string) (mapping.SqlObject, error) {
	om, ok := reg.ObjectMappingFor(tpe, path)
	if !ok {
		return mapping.SqlObject{}, fmt.Errorf("interp: no mapping registered for type %s", tpe)
	}
	fm, ok := om.Field(field)
	if !ok {
		return mapping.SqlObject{}, fmt.Errorf("interp: no field mapping for %s", field)
	}
	obj, ok := fm.(mapping.SqlObject)
	if !ok {
		return mapping.SqlObject{}, fmt.Errorf("interp: field %s is not a coalescable object field", field)
	}
	return obj, nil
}

func fillErr(results []Result, idxs []int, err error) {
	for _, idx := range idxs {
		results[idx] = Result{Err: err}
	}
}

func pathKey(p []string) string { return strings.Join(p, ".") }

func groupSortKey(gk groupKey) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s\x1f%d", gk.contextKey, gk.field, gk.keyPathKey, gk.typ, gk.childIdx)
}
