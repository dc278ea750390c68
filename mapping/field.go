package mapping

import "github.com/eddieafk/mapperql/algebra"

// FieldMapping is the tagged sum of ways a GraphQL field can be backed by SQL
// (spec §3). The discriminant is the concrete Go type, matched with a type
// switch at each call site that needs to branch on it (planner, cursor).
type FieldMapping interface {
	fieldMapping()
	// FieldName is the GraphQL field name this mapping answers for.
	FieldName() string
}

// SqlField is a simple column projection.
type SqlField struct {
	Name          string
	Col           ColumnRef
	Key           bool
	Discriminator bool
}

func (SqlField) fieldMapping()     {}
func (f SqlField) FieldName() string { return f.Name }

// SqlObject reaches a nested object through zero or more joins. TargetType
// names the GraphQL type reached at the far end of Joins; the planner and
// elaborator need it to know which ObjectMapping to recurse into, since the
// core never loads a GraphQL schema itself (§1 Non-goals). List marks
// whether this field's cardinality is a list (as opposed to a singular
// nested object) — another piece of cardinality information the staging
// elaborator needs from the mapping itself, for the same reason.
type SqlObject struct {
	Name       string
	Joins      []Join
	TargetType string
	List       bool

	// Filter is a mapping-intrinsic predicate applied to this field
	// regardless of any GraphQL arguments — e.g. a root field that only ever
	// surfaces a filtered subset of its target table.
	Filter algebra.Predicate

	// ArgsPredicate translates this field's GraphQL arguments into a
	// predicate over the target type, when the argument names don't map
	// directly onto field names (or need a comparison shape the collector's
	// default per-argument equality/IN translation can't express). nil means
	// the default translation applies.
	ArgsPredicate func(args map[string]any) (algebra.Predicate, error)
}

func (SqlObject) fieldMapping()     {}
func (o SqlObject) FieldName() string { return o.Name }

// SqlAttribute is a hidden column used for joins/filters; it is never
// exposed as a GraphQL field itself.
type SqlAttribute struct {
	Name          string
	Col           ColumnRef
	Key           bool
	Nullable      bool
	Discriminator bool
}

func (SqlAttribute) fieldMapping()     {}
func (a SqlAttribute) FieldName() string { return a.Name }

// SqlJson is an embedded JSON subtree stored in a single column.
type SqlJson struct {
	Name string
	Col  ColumnRef
}

func (SqlJson) fieldMapping()     {}
func (j SqlJson) FieldName() string { return j.Name }

// CursorFn computes a derived field's value from a fully-populated cursor.
// The cursor parameter is `any` here to avoid an import cycle with the
// rowcursor package, which itself depends on mapping; rowcursor performs the
// type assertion back to its own Cursor interface.
type CursorFn func(cursor any) (any, error)

// CursorField is a derived field computed post-fetch. RequiredSiblings names
// the sibling fields/attributes that must be in the same projection before
// Fn can run.
type CursorField struct {
	Name             string
	Fn               CursorFn
	RequiredSiblings []string
	Hidden           bool
}

func (CursorField) fieldMapping()     {}
func (c CursorField) FieldName() string { return c.Name }

// CursorAttribute is a derived hidden attribute, analogous to CursorField
// but never exposed as a GraphQL field.
type CursorAttribute struct {
	Name             string
	Fn               CursorFn
	RequiredSiblings []string
}

func (CursorAttribute) fieldMapping()     {}
func (c CursorAttribute) FieldName() string { return c.Name }

// IsKey reports whether a FieldMapping is declared as (part of) the key for
// its ObjectMapping.
func IsKey(fm FieldMapping) bool {
	switch v := fm.(type) {
	case SqlField:
		return v.Key
	case SqlAttribute:
		return v.Key
	default:
		return false
	}
}

// IsDiscriminator reports whether a FieldMapping is declared as a
// discriminator column.
func IsDiscriminator(fm FieldMapping) bool {
	switch v := fm.(type) {
	case SqlField:
		return v.Discriminator
	case SqlAttribute:
		return v.Discriminator
	default:
		return false
	}
}

// ColumnOf returns the single ColumnRef a FieldMapping projects, if it
// projects exactly one (SqlField/SqlAttribute/SqlJson); ok is false for
// SqlObject (which contributes join endpoints, not a single column) and for
// cursor-computed fields (which contribute no column of their own).
func ColumnOf(fm FieldMapping) (ColumnRef, bool) {
	switch v := fm.(type) {
	case SqlField:
		return v.Col, true
	case SqlAttribute:
		return v.Col, true
	case SqlJson:
		return v.Col, true
	default:
		return ColumnRef{}, false
	}
}
