// Package graphql is the external collaborator shell (§1 Non-goals: "GraphQL
// source-text parsing, schema loading"): a thin adapter translating a parsed
// GraphQL operation, against a loaded SDL schema, directly into the
// algebra.Query tree the core Staging Elaborator and Planner operate on,
// instead of driving the teacher's own reflection-based field resolution.
// None of this package is planned or tested against spec invariants; it
// exists only so the core has a realistic caller.
package graphql

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Schema wraps a parsed GraphQL SDL document. Unlike the teacher's
// graph/schema.go, which rebuilds its own ObjectType/FieldDefinition/TypeRef
// model on top of gqlparser's ast.Schema, this wrapper defers directly to
// ast.Schema for type lookups — the mapping.Registry is the source of truth
// for SQL shape, so duplicating gqlparser's own definition model here would
// just be two schemas to keep in sync.
type Schema struct {
	doc *ast.Schema
}

// LoadSchema parses sdl and returns a Schema, or a *SchemaError on failure.
func LoadSchema(sdl string) (*Schema, error) {
	doc, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, &SchemaError{Err: err}
	}
	return &Schema{doc: doc}, nil
}

// AST exposes the underlying gqlparser schema for query-document validation.
func (s *Schema) AST() *ast.Schema { return s.doc }

// QueryTypeName returns the name of the schema's root query type.
func (s *Schema) QueryTypeName() string {
	if s.doc.Query == nil {
		return "Query"
	}
	return s.doc.Query.Name
}

// FieldTypeName returns the unwrapped (list/non-null stripped) return type
// name of parentType's field, or "" if either is unknown to the schema.
func (s *Schema) FieldTypeName(parentType, field string) string {
	def, ok := s.doc.Types[parentType]
	if !ok {
		return ""
	}
	for _, f := range def.Fields {
		if f.Name == field {
			return unwrapTypeName(f.Type)
		}
	}
	return ""
}

// FieldIsList reports whether parentType's field returns a list type.
func (s *Schema) FieldIsList(parentType, field string) bool {
	def, ok := s.doc.Types[parentType]
	if !ok {
		return false
	}
	for _, f := range def.Fields {
		if f.Name == field {
			return isListType(f.Type)
		}
	}
	return false
}

// Implementors returns the concrete object type names implementing an
// interface or belonging to a union, tpe.
func (s *Schema) Implementors(tpe string) []string {
	def, ok := s.doc.Types[tpe]
	if !ok {
		return nil
	}
	if len(def.Types) > 0 {
		// Union: member types are listed directly.
		names := make([]string, len(def.Types))
		copy(names, def.Types)
		return names
	}

	// Interface: scan every object type for one that declares tpe among
	// its Interfaces.
	var names []string
	for name, candidate := range s.doc.Types {
		for _, iface := range candidate.Interfaces {
			if iface == tpe {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

func unwrapTypeName(t *ast.Type) string {
	if t == nil {
		return ""
	}
	if t.NamedType != "" {
		return t.NamedType
	}
	return unwrapTypeName(t.Elem)
}

func isListType(t *ast.Type) bool {
	if t == nil {
		return false
	}
	if t.NamedType != "" {
		return false
	}
	return true
}

// SchemaError wraps an SDL load failure.
type SchemaError struct{ Err error }

func (e *SchemaError) Error() string { return fmt.Sprintf("graphql: load schema: %v", e.Err) }
func (e *SchemaError) Unwrap() error { return e.Err }
