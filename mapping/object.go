package mapping

import "fmt"

// ObjectMapping describes how one GraphQL object type is backed by SQL: its
// root table (carried implicitly by its field mappings' ColumnRefs) and its
// field mappings, keyed by field name. Path, if non-empty, scopes this
// mapping to a path prefix (a "PrefixedMapping" override per §4.C); the
// zero-value path means this is the type's unprefixed, default mapping.
type ObjectMapping struct {
	Type   string
	Fields map[string]FieldMapping
	Path   []string
	// Implements lists the interface types (registered separately via
	// RegisterInterface) this object type satisfies. The planner adds each
	// implemented interface's discriminator columns at every visited node
	// (§4.E step 1: "every interface it implements").
	Implements []string
}

// NewObjectMapping builds an ObjectMapping, validating the §3 invariant that
// at least one field is marked as a key.
func NewObjectMapping(tpe string, fields []FieldMapping, path []string) (ObjectMapping, error) {
	m := ObjectMapping{Type: tpe, Fields: make(map[string]FieldMapping, len(fields)), Path: path}
	hasKey := false
	for _, f := range fields {
		name := f.FieldName()
		if _, dup := m.Fields[name]; dup {
			return ObjectMapping{}, fmt.Errorf("mapping: field %q resolves more than once in type %q", name, tpe)
		}
		m.Fields[name] = f
		if IsKey(f) {
			hasKey = true
		}
	}
	if !hasKey {
		return ObjectMapping{}, fmt.Errorf("mapping: type %q has no field marked as key", tpe)
	}
	return m, nil
}

// Field looks up a field mapping by name within this ObjectMapping.
func (m ObjectMapping) Field(name string) (FieldMapping, bool) {
	fm, ok := m.Fields[name]
	return fm, ok
}

// KeyColumns returns the ColumnRefs of every field/attribute marked as key,
// in a stable (declaration map iteration is not stable, so this sorts by
// field name) order.
func (m ObjectMapping) KeyColumns() []ColumnRef {
	return m.columnsWhere(IsKey)
}

// DiscriminatorColumns returns the ColumnRefs of every field/attribute
// marked as a discriminator.
func (m ObjectMapping) DiscriminatorColumns() []ColumnRef {
	return m.columnsWhere(IsDiscriminator)
}

func (m ObjectMapping) columnsWhere(pred func(FieldMapping) bool) []ColumnRef {
	names := sortedFieldNames(m.Fields)
	var out []ColumnRef
	for _, name := range names {
		fm := m.Fields[name]
		if !pred(fm) {
			continue
		}
		if col, ok := ColumnOf(fm); ok {
			out = append(out, col)
		}
	}
	return out
}

func sortedFieldNames(fields map[string]FieldMapping) []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	// insertion order is not preserved by a Go map; callers that need
	// deterministic output (tests, SQL generation) sort lexicographically.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// DiscriminatorFn maps a discriminator cell value to the concrete subtype
// name for an interface mapping.
type DiscriminatorFn func(value any) (string, bool)

// SqlInterfaceMapping is an interface type with a run-time discriminator
// deciding the concrete subtype.
type SqlInterfaceMapping struct {
	Type          string
	Fields        map[string]FieldMapping
	Discriminator DiscriminatorFn
}

// HasDiscriminator reports whether this interface mapping can decide its
// subtype from SQL alone (§4.F: "interface field with no discriminator" is
// one of the three staging triggers).
func (m SqlInterfaceMapping) HasDiscriminator() bool {
	return m.Discriminator != nil
}

// LeafMapping encodes a scalar/enum GraphQL leaf type with an Encoder
// function converting a decoded Go value to the wire representation; it
// carries no SQL codec of its own (that is SqlLeafMapping's job).
type LeafMapping struct {
	Type    string
	Encoder func(v any) (any, error)
}

// SqlLeafMapping additionally carries the SQL Codec used to decode/encode
// the column this leaf type is read from.
type SqlLeafMapping struct {
	Type    string
	Encoder func(v any) (any, error)
	Codec   Codec
}
