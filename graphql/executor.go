package graphql

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/rowcursor"
)

// Fetcher executes a planned query against the SQL driver boundary. Both
// sqldriver.DB and interp's coalescing entry point satisfy narrower shapes
// of this; Executor only ever needs the single-shot form.
type Fetcher interface {
	Fetch(ctx context.Context, mq *planner.MappedQuery) (rowcursor.Table, error)
}

// Executor wires the external collaborators (parsing, schema, field
// collection) into the core (Staging Elaborator, Planner, Row-table
// Cursor), adapted from the teacher's graph/executor.go but replacing
// reflection-driven per-field resolution with one algebra compile + one
// planned fetch per root selection.
type Executor struct {
	schema  *Schema
	reg     *mapping.Registry
	fetcher Fetcher
}

// NewExecutor builds an Executor over a loaded schema, a mapping registry,
// and the SQL driver boundary that will answer planned fetches.
func NewExecutor(schema *Schema, reg *mapping.Registry, fetcher Fetcher) *Executor {
	return &Executor{schema: schema, reg: reg, fetcher: fetcher}
}

// Execute parses req.Query, compiles its selected root fields into the
// algebra, elaborates and plans each independently, fetches, and stitches
// the results into one root Cursor spanning every top-level field.
//
// Each top-level field is planned on its own, rooted at the type its own
// SqlObject targets, rather than all being planned as one MappedQuery
// rooted at the schema's Query type: Query has no backing SQL table, so a
// plan rooted there has nothing to select it as the driving FROM (§4.E
// step 6 only ever picks a table that columns actually reference).
func (e *Executor) Execute(ctx context.Context, req *Request) *Response {
	doc, errs := gqlparser.LoadQuery(e.schema.AST(), req.Query)
	if len(errs) > 0 {
		return newErrorResponse(errs[0])
	}

	op, err := findOperation(doc, req.OperationName)
	if err != nil {
		return newErrorResponse(err)
	}

	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		fragments[f.Name] = f
	}

	rootType := e.schema.QueryTypeName()
	collector := NewCollector(e.schema, fragments, req.Variables, e.reg)
	query, err := collector.Collect(op.SelectionSet, rootType)
	if err != nil {
		return newErrorResponse(err)
	}

	rootOM, ok := e.reg.ObjectMappingFor(rootType, nil)
	if !ok {
		return newErrorResponse(fmt.Errorf("graphql: no mapping registered for root type %q", rootType))
	}

	fields := make(map[string]rowcursor.Cursor, len(rootFields(query)))
	for _, sel := range rootFields(query) {
		fm, ok := rootOM.Field(sel.Name)
		if !ok {
			return newErrorResponse(fmt.Errorf("graphql: no mapping registered for root field %q", sel.Name))
		}
		obj, ok := fm.(mapping.SqlObject)
		if !ok {
			return newErrorResponse(fmt.Errorf("graphql: root field %q is not a queryable object", sel.Name))
		}

		selChild := sel.Child
		if obj.Filter != nil {
			selChild = algebra.Filter{Pred: obj.Filter, Child: selChild}
		}

		elaborated, err := planner.Elaborate(e.reg, selChild, nil, obj.TargetType, rootType)
		if err != nil {
			return newErrorResponse(err)
		}

		mq, err := planner.Build(e.reg, elaborated, nil, obj.TargetType)
		if err != nil {
			return newErrorResponse(err)
		}

		table, err := e.fetcher.Fetch(ctx, mq)
		if err != nil {
			return newErrorResponse(err)
		}

		// Keyed by the field's own name, not ResultName/alias: Cursor.Field
		// only ever deals in mapping field names, the same as SqlCursor.Field
		// does for every non-root object. Aliasing is purely a response-shape
		// concern Collector.Assemble applies when it writes a field's value
		// under its alias.
		root := rowcursor.NewRoot(mq, e.reg, obj.TargetType, table, obj.List)
		root, err = e.resolveAllDeferred(ctx, root, mq)
		if err != nil {
			return newErrorResponse(err)
		}
		fields[sel.Name] = root
	}

	root := newRootCursor(fields)
	data, err := collector.Assemble(root, op.SelectionSet, rootType)
	if err != nil {
		return newErrorResponse(err)
	}

	return &Response{Cursor: root, Data: data}
}

// resolveAllDeferred attaches every field mq.Deferred recorded (§4.F) to
// root, running the second fetch each one needs and splicing its result in
// under the field's own name.
func (e *Executor) resolveAllDeferred(ctx context.Context, root rowcursor.Cursor, mq *planner.MappedQuery) (rowcursor.Cursor, error) {
	cur := root
	for _, d := range mq.Deferred {
		updated, err := e.resolveDeferred(ctx, cur, d.OwnerPath, d)
		if err != nil {
			return nil, err
		}
		cur = updated
	}
	return cur, nil
}

// resolveDeferred walks cur down to d's owner, expanding any list or
// nullable wrapper crossed along the way (a staged field's owner can sit
// beneath the first fetch's own list, e.g. every movie's own director),
// then attaches the deferred field at the owner.
func (e *Executor) resolveDeferred(ctx context.Context, cur rowcursor.Cursor, hops []string, d planner.DeferredFetch) (rowcursor.Cursor, error) {
	if cur.IsNullable() {
		inner, ok, err := cur.AsNullable()
		if err != nil {
			return nil, err
		}
		if !ok {
			return cur, nil
		}
		cur = inner
	}

	if cur.IsList() {
		items, err := cur.AsList()
		if err != nil {
			return nil, err
		}
		if items == nil {
			return cur, nil
		}
		resolvedItems := make([]rowcursor.Cursor, len(items))
		for i, item := range items {
			resolved, err := e.resolveDeferred(ctx, item, hops, d)
			if err != nil {
				return nil, err
			}
			resolvedItems[i] = resolved
		}
		return &rowcursor.ListOverride{Cursor: cur, Items: resolvedItems}, nil
	}

	if len(hops) == 0 {
		return e.attachDeferred(ctx, cur, d)
	}

	next, err := cur.Field(hops[0])
	if err != nil {
		return nil, err
	}
	resolvedNext, err := e.resolveDeferred(ctx, next, hops[1:], d)
	if err != nil {
		return nil, err
	}
	return &rowcursor.StagedCursor{Cursor: cur, FieldName: hops[0], Result: resolvedNext}, nil
}

// attachDeferred invokes d's StagingJoin against owner (the fully-resolved
// cursor at the field's owning object), plans and fetches the second round
// trip if a key resolved, and wraps owner so Field(d.FieldName) returns that
// result instead of whatever the first fetch would otherwise answer with.
func (e *Executor) attachDeferred(ctx context.Context, owner rowcursor.Cursor, d planner.DeferredFetch) (rowcursor.Cursor, error) {
	cv, ok := owner.(algebra.CursorValue)
	if !ok {
		return nil, fmt.Errorf("graphql: staged field %q: owner cursor cannot resolve join-key values", d.FieldName)
	}

	q, ok, err := d.StagingJoin(nil, cv)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &rowcursor.StagedCursor{
			Cursor:    owner,
			FieldName: d.FieldName,
			Result:    rowcursor.NewNullCursor(d.Path, d.TargetType),
		}, nil
	}

	elaborated, err := planner.Elaborate(e.reg, q, nil, d.TargetType, d.TargetType)
	if err != nil {
		return nil, err
	}
	mq2, err := planner.Build(e.reg, elaborated, nil, d.TargetType)
	if err != nil {
		return nil, err
	}
	table2, err := e.fetcher.Fetch(ctx, mq2)
	if err != nil {
		return nil, err
	}

	result := rowcursor.NewRoot(mq2, e.reg, d.TargetType, table2, d.List)
	result, err = e.resolveAllDeferred(ctx, result, mq2)
	if err != nil {
		return nil, err
	}

	return &rowcursor.StagedCursor{Cursor: owner, FieldName: d.FieldName, Result: result}, nil
}

// rootFields extracts the top-level field selections from a collected
// query, peeling apart the Group NewGroup collapses a single field into.
func rootFields(q algebra.Query) []algebra.Select {
	switch v := q.(type) {
	case algebra.Select:
		return []algebra.Select{v}
	case algebra.Group:
		out := make([]algebra.Select, 0, len(v.Children))
		for _, c := range v.Children {
			if sel, ok := c.(algebra.Select); ok {
				out = append(out, sel)
			}
		}
		return out
	default:
		return nil
	}
}

func findOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, fmt.Errorf("graphql: no operations in document")
	}
	if name == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0], nil
		}
		return nil, fmt.Errorf("graphql: operation name required when document has multiple operations")
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op, nil
		}
	}
	return nil, fmt.Errorf("graphql: operation %q not found", name)
}

