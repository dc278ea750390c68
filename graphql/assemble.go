package graphql

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/eddieafk/mapperql/rowcursor"
)

// Assemble walks sel against an already-fetched Cursor and returns the
// plain value tree (nested map[string]any/[]any/scalars) a response's
// "data" field needs. This is the external JSON assembler (§6): the core
// Cursor only ever answers "give me field X"; deciding which fields a
// caller asked for and in what shape is GraphQL-selection bookkeeping, the
// same split the teacher draws between graph/executor.go's resolver walk
// and graph/marshal's scalar writers, just driven by Cursor.Field instead
// of a reflection-built resolver tree.
func (c *Collector) Assemble(cur rowcursor.Cursor, sel ast.SelectionSet, parentType string) (any, error) {
	out := make(map[string]any)
	if err := c.assembleInto(cur, sel, parentType, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collector) assembleInto(cur rowcursor.Cursor, sel ast.SelectionSet, parentType string, out map[string]any) error {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if !c.shouldInclude(v.Directives) {
				continue
			}
			name := v.Alias
			if name == "" {
				name = v.Name
			}
			if v.Name == "__typename" {
				out[name] = parentType
				continue
			}

			fc, err := cur.Field(v.Name)
			if err != nil {
				return err
			}
			childType := c.schema.FieldTypeName(parentType, v.Name)
			val, err := c.assembleValue(fc, v.SelectionSet, childType)
			if err != nil {
				return err
			}
			out[name] = val

		case *ast.FragmentSpread:
			if !c.shouldInclude(v.Directives) {
				continue
			}
			frag, ok := c.fragments[v.Name]
			if !ok {
				return &CollectError{Field: v.Name, Reason: "unknown fragment"}
			}
			if frag.TypeCondition != "" && frag.TypeCondition != parentType && !c.implements(parentType, frag.TypeCondition) {
				continue
			}
			if err := c.assembleInto(cur, frag.SelectionSet, parentType, out); err != nil {
				return err
			}

		case *ast.InlineFragment:
			if !c.shouldInclude(v.Directives) {
				continue
			}
			if v.TypeCondition != "" && v.TypeCondition != parentType {
				narrowed, ok, err := cur.Narrow(v.TypeCondition)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				if err := c.assembleInto(narrowed, v.SelectionSet, v.TypeCondition, out); err != nil {
					return err
				}
				continue
			}
			if err := c.assembleInto(cur, v.SelectionSet, parentType, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// assembleValue dispatches on a field's own cursor shape: nullable wrapper
// first (a nil result short-circuits to a JSON null regardless of what the
// underlying shape would otherwise be), then list, then leaf, then nested
// object.
func (c *Collector) assembleValue(cur rowcursor.Cursor, sel ast.SelectionSet, tpe string) (any, error) {
	if cur.IsNullable() {
		inner, ok, err := cur.AsNullable()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		cur = inner
	}

	if cur.IsList() {
		items, err := cur.AsList()
		if err != nil {
			return nil, err
		}
		if items == nil {
			return nil, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := c.assembleValue(item, sel, tpe)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	if cur.IsLeaf() {
		cell, err := cur.AsLeaf()
		if err != nil {
			return nil, err
		}
		return cell.Value(), nil
	}

	return c.Assemble(cur, sel, tpe)
}
