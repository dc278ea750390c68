package graphql

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
)

// Collector walks a parsed GraphQL selection set and builds the algebra.Query
// tree it denotes, resolving fragment spreads/inline fragments and directive
// skip/include the way the teacher's FieldCollector does (graph/field_collector.go),
// but emitting algebra nodes directly instead of an intermediate
// SelectedField tree — the core never sees GraphQL shapes, only algebra ones.
type Collector struct {
	schema    *Schema
	fragments map[string]*ast.FragmentDefinition
	variables map[string]any
	reg       *mapping.Registry
}

// NewCollector builds a Collector for one operation's fragment set and
// variable bindings. reg lets a field's own mapping (mapping.SqlObject's
// ArgsPredicate) override how its GraphQL arguments translate into a
// predicate; nil falls back to the identity per-argument translation for
// every field.
func NewCollector(schema *Schema, fragments map[string]*ast.FragmentDefinition, variables map[string]any, reg *mapping.Registry) *Collector {
	return &Collector{schema: schema, fragments: fragments, variables: variables, reg: reg}
}

// Collect translates a selection set at parentType into the Group of
// algebra.Query siblings it denotes.
func (c *Collector) Collect(sel ast.SelectionSet, parentType string) (algebra.Query, error) {
	children := make([]algebra.Query, 0, len(sel))
	if err := c.collectInto(sel, parentType, &children); err != nil {
		return nil, err
	}
	return algebra.NewGroup(children...), nil
}

func (c *Collector) collectInto(sel ast.SelectionSet, parentType string, out *[]algebra.Query) error {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if !c.shouldInclude(v.Directives) {
				continue
			}
			if v.Name == "__typename" {
				continue
			}
			q, err := c.collectField(v, parentType)
			if err != nil {
				return err
			}
			*out = append(*out, q)

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
			if err := c.collectInto(frag.SelectionSet, parentType, out); err != nil {
				return err
			}

		case *ast.InlineFragment:
			if !c.shouldInclude(v.Directives) {
				continue
			}
			if v.TypeCondition != "" && v.TypeCondition != parentType {
				// Narrow wraps the fragment's own fields, not the sibling
				// accumulator, since it applies only to this fragment's type.
				narrowed := make([]algebra.Query, 0)
				if err := c.collectInto(v.SelectionSet, v.TypeCondition, &narrowed); err != nil {
					return err
				}
				*out = append(*out, algebra.Narrow{TargetType: v.TypeCondition, Child: algebra.NewGroup(narrowed...)})
				continue
			}
			if err := c.collectInto(v.SelectionSet, parentType, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) collectField(v *ast.Field, parentType string) (algebra.Query, error) {
	childType := c.schema.FieldTypeName(parentType, v.Name)

	var child algebra.Query = algebra.Empty{}
	if len(v.SelectionSet) > 0 {
		grouped, err := c.Collect(v.SelectionSet, childType)
		if err != nil {
			return nil, err
		}
		child = grouped
	}

	pred, err := c.argumentsPredicate(parentType, v)
	if err != nil {
		return nil, err
	}
	if pred != nil {
		child = algebra.Filter{Pred: pred, Child: child}
	}

	return algebra.Select{Name: v.Name, Alias: v.Alias, Child: child}, nil
}

// argumentsPredicate turns field v's arguments into a predicate. If the
// registry's mapping for v within parentType declares an ArgsPredicate, that
// translation wins — needed whenever an argument name doesn't correspond
// directly to a field name on the target type (moviesByGenres's "genres"
// plural against a singular "genre" field, moviesReleasedBetween's "from"/
// "to" range against a single "releaseDateAttr" column). Otherwise every
// argument becomes an Eql (or In, for a list-valued argument) keyed by its
// own name, the convention a `(id: ...)`-style lookup field follows. Returns
// nil if there are no arguments.
func (c *Collector) argumentsPredicate(parentType string, v *ast.Field) (algebra.Predicate, error) {
	if len(v.Arguments) == 0 {
		return nil, nil
	}

	argMap := make(map[string]any, len(v.Arguments))
	for _, arg := range v.Arguments {
		val, err := c.evaluateValue(arg.Value)
		if err != nil {
			return nil, err
		}
		argMap[arg.Name] = val
	}

	if c.reg != nil {
		if om, ok := c.reg.ObjectMappingFor(parentType, nil); ok {
			if fm, ok := om.Field(v.Name); ok {
				if obj, ok := fm.(mapping.SqlObject); ok && obj.ArgsPredicate != nil {
					return obj.ArgsPredicate(argMap)
				}
			}
		}
	}
	return identityArgsPredicate(v.Arguments, argMap), nil
}

// identityArgsPredicate is the fallback translation: argument name becomes
// path hop, argument value becomes the Eql/In right-hand side.
func identityArgsPredicate(args ast.ArgumentList, argMap map[string]any) algebra.Predicate {
	var pred algebra.Predicate
	for _, arg := range args {
		v := argMap[arg.Name]
		var p algebra.Predicate
		if list, ok := v.([]any); ok {
			p = algebra.In{Left: algebra.Path{Hops: []string{arg.Name}}, Values: list}
		} else {
			p = algebra.NewEql(algebra.Path{Hops: []string{arg.Name}}, algebra.Const{Value: v})
		}
		if pred == nil {
			pred = p
		} else {
			pred = algebra.And{Left: pred, Right: p}
		}
	}
	return pred
}

func (c *Collector) shouldInclude(dirs ast.DirectiveList) bool {
	for _, d := range dirs {
		switch d.Name {
		case "skip":
			if arg := d.Arguments.ForName("if"); arg != nil {
				if v, err := c.evaluateValue(arg.Value); err == nil {
					if b, ok := v.(bool); ok && b {
						return false
					}
				}
			}
		case "include":
			if arg := d.Arguments.ForName("if"); arg != nil {
				if v, err := c.evaluateValue(arg.Value); err == nil {
					if b, ok := v.(bool); ok && !b {
						return false
					}
				}
			}
		}
	}
	return true
}

func (c *Collector) implements(concreteType, interfaceType string) bool {
	for _, name := range c.schema.Implementors(interfaceType) {
		if name == concreteType {
			return true
		}
	}
	return false
}

func (c *Collector) evaluateValue(v *ast.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Kind {
	case ast.Variable:
		val, ok := c.variables[v.Raw]
		if !ok {
			return nil, &CollectError{Field: v.Raw, Reason: "undeclared variable"}
		}
		return val, nil
	case ast.IntValue, ast.FloatValue, ast.StringValue, ast.BlockValue, ast.EnumValue:
		return v.Raw, nil
	case ast.BooleanValue:
		return v.Raw == "true", nil
	case ast.NullValue:
		return nil, nil
	case ast.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, child := range v.Children {
			cv, err := c.evaluateValue(child.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	case ast.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, child := range v.Children {
			cv, err := c.evaluateValue(child.Value)
			if err != nil {
				return nil, err
			}
			out[child.Name] = cv
		}
		return out, nil
	default:
		return v.Raw, nil
	}
}

// CollectError marks a failure translating an operation's AST into algebra
// (unknown fragment, undeclared variable).
type CollectError struct {
	Field  string
	Reason string
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("graphql: %s: %s", e.Field, e.Reason)
}
