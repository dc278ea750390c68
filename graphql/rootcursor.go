package graphql

import (
	"github.com/eddieafk/mapperql/rowcursor"
)

// rootCursor stitches together the independently planned-and-fetched
// cursors of an operation's top-level fields. The schema's Query type has
// no SQL table of its own (§1 Non-goals: the core never owns a "virtual
// root" row) — it only dispatches field names to whichever ObjectMapping
// the field's SqlObject targets, so each root field is planned and fetched
// on its own and only stitched together here, at the GraphQL boundary.
type rootCursor struct {
	fields map[string]rowcursor.Cursor
}

func newRootCursor(fields map[string]rowcursor.Cursor) rowcursor.Cursor {
	return &rootCursor{fields: fields}
}

func (c *rootCursor) Path() []string { return nil }
func (c *rootCursor) Type() string   { return "Query" }

func (c *rootCursor) IsLeaf() bool { return false }
func (c *rootCursor) AsLeaf() (rowcursor.Cell, error) {
	return rowcursor.Cell{}, &rowcursor.TypeError{Msg: "root: not a leaf"}
}

func (c *rootCursor) IsList() bool { return false }
func (c *rootCursor) AsList() ([]rowcursor.Cursor, error) {
	return nil, &rowcursor.TypeError{Msg: "root: not a list"}
}

func (c *rootCursor) IsNullable() bool { return false }
func (c *rootCursor) AsNullable() (rowcursor.Cursor, bool, error) {
	return c, true, nil
}

func (c *rootCursor) Narrow(subtype string) (rowcursor.Cursor, bool, error) {
	if subtype == "Query" {
		return c, true, nil
	}
	return nil, false, nil
}

func (c *rootCursor) Field(name string) (rowcursor.Cursor, error) {
	f, ok := c.fields[name]
	if !ok {
		return nil, &rowcursor.TypeError{Msg: "root: no such field " + name}
	}
	return f, nil
}

func (c *rootCursor) HasAttribute(name string) bool { return false }
func (c *rootCursor) Attribute(name string) (rowcursor.Cell, error) {
	return rowcursor.Cell{}, &rowcursor.TypeError{Msg: "root: no such attribute " + name}
}
