package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the YAML-loadable declaration of a mapping: which GraphQL
// types map to which tables, columns, joins, and cursor functions. It
// generalizes the teacher CLI's `models:`/`fields:`/`relations:` YAML shape
// (cmd/goinmonster/init.go) into the full §3 field-mapping sum.
//
// CursorField/CursorAttribute closures cannot be expressed in YAML; the
// document instead names a function key ("fn:") that the host application
// resolves against a CursorFuncs registry it supplies when building the
// Registry (see Document.Build).
type Document struct {
	Types map[string]TypeDoc `yaml:"types"`
}

// TypeDoc is one entry of Document.Types.
type TypeDoc struct {
	Path       []string             `yaml:"path,omitempty"`
	Implements []string             `yaml:"implements,omitempty"`
	Fields     map[string]FieldDoc `yaml:"fields"`
}

// FieldDoc is the YAML shape of one FieldMapping variant, discriminated by
// Kind.
type FieldDoc struct {
	Kind          string    `yaml:"kind"`
	Column        string    `yaml:"column,omitempty"`
	Table         string    `yaml:"table,omitempty"`
	Key           bool      `yaml:"key,omitempty"`
	Nullable      bool      `yaml:"nullable,omitempty"`
	Discriminator bool      `yaml:"discriminator,omitempty"`
	Joins         []JoinDoc `yaml:"joins,omitempty"`
	Target        string    `yaml:"target,omitempty"`
	Fn            string    `yaml:"fn,omitempty"`
	Required      []string  `yaml:"required,omitempty"`
	Hidden        bool      `yaml:"hidden,omitempty"`
	List          bool      `yaml:"list,omitempty"`
}

// JoinDoc is the YAML shape of a Join: the field's own table/column (parent)
// joining to a child table/column.
type JoinDoc struct {
	ParentTable  string `yaml:"parent_table"`
	ParentColumn string `yaml:"parent_column"`
	ChildTable   string `yaml:"child_table"`
	ChildColumn  string `yaml:"child_column"`
}

// ParseDocument parses a YAML mapping document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mapping: parse document: %w", err)
	}
	return &doc, nil
}

// CodecLookup resolves a column's declared codec name (if any) to a Codec.
// The default mapping document doesn't declare per-column codec names (they
// are inferred from the SQL driver's type registry at fetch time), so most
// callers pass a CodecLookup that always returns a single fallback codec;
// this indirection exists so tests and the real driver integration can
// supply distinct codecs per column kind.
type CodecLookup func(table, column string) Codec

// Build resolves this Document against a CodecLookup and a CursorFuncs
// registry, producing a ready-to-use Registry. Fields whose Kind names an
// unknown cursor function, or whose Kind is not one of the recognized field
// mapping kinds, cause Build to fail fast rather than silently drop the
// field (per the §9 "unchecked match" design decision).
func (d *Document) Build(codecs CodecLookup, cursorFuncs map[string]CursorFn) (*Registry, error) {
	reg := NewRegistry()

	for typeName, td := range d.Types {
		var fields []FieldMapping
		for fieldName, fd := range td.Fields {
			fm, err := fd.build(typeName, fieldName, codecs, cursorFuncs)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fm)
		}
		om, err := NewObjectMapping(typeName, fields, td.Path)
		if err != nil {
			return nil, err
		}
		om.Implements = td.Implements
		reg.Register(om)
	}

	return reg, nil
}

func (fd FieldDoc) build(typeName, fieldName string, codecs CodecLookup, cursorFuncs map[string]CursorFn) (FieldMapping, error) {
	switch fd.Kind {
	case "sql_field":
		return SqlField{
			Name:          fieldName,
			Col:           ColumnRef{Table: fd.Table, Column: fd.Column, Codec: codecs(fd.Table, fd.Column)},
			Key:           fd.Key,
			Discriminator: fd.Discriminator,
		}, nil
	case "sql_attribute":
		return SqlAttribute{
			Name:          fieldName,
			Col:           ColumnRef{Table: fd.Table, Column: fd.Column, Codec: codecs(fd.Table, fd.Column)},
			Key:           fd.Key,
			Nullable:      fd.Nullable,
			Discriminator: fd.Discriminator,
		}, nil
	case "sql_json":
		return SqlJson{
			Name: fieldName,
			Col:  ColumnRef{Table: fd.Table, Column: fd.Column, Codec: codecs(fd.Table, fd.Column)},
		}, nil
	case "sql_object":
		joins := make([]Join, 0, len(fd.Joins))
		for _, jd := range fd.Joins {
			joins = append(joins, Join{
				Parent: ColumnRef{Table: jd.ParentTable, Column: jd.ParentColumn, Codec: codecs(jd.ParentTable, jd.ParentColumn)},
				Child:  ColumnRef{Table: jd.ChildTable, Column: jd.ChildColumn, Codec: codecs(jd.ChildTable, jd.ChildColumn)},
			})
		}
		return SqlObject{Name: fieldName, Joins: joins, TargetType: fd.Target, List: fd.List}, nil
	case "cursor_field":
		fn, ok := cursorFuncs[fd.Fn]
		if !ok {
			return nil, fmt.Errorf("mapping: type %q field %q names unknown cursor function %q", typeName, fieldName, fd.Fn)
		}
		return CursorField{Name: fieldName, Fn: fn, RequiredSiblings: fd.Required, Hidden: fd.Hidden}, nil
	case "cursor_attribute":
		fn, ok := cursorFuncs[fd.Fn]
		if !ok {
			return nil, fmt.Errorf("mapping: type %q field %q names unknown cursor function %q", typeName, fieldName, fd.Fn)
		}
		return CursorAttribute{Name: fieldName, Fn: fn, RequiredSiblings: fd.Required}, nil
	default:
		return nil, fmt.Errorf("mapping: type %q field %q has unrecognized kind %q", typeName, fieldName, fd.Kind)
	}
}
