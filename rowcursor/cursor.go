package rowcursor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
)

// Cursor is the walking interface the external JSON assembler drives:
// narrow into a concrete type, select a field, expand a list, or read a
// scalar leaf. Every operation returns a fresh cursor; none mutate the
// receiver (§5 purity requirement).
type Cursor interface {
	Path() []string
	Type() string

	IsLeaf() bool
	AsLeaf() (Cell, error)

	IsList() bool
	AsList() ([]Cursor, error)

	IsNullable() bool
	AsNullable() (Cursor, bool, error)

	Narrow(subtype string) (Cursor, bool, error)

	Field(name string) (Cursor, error)
	HasAttribute(name string) bool
	Attribute(name string) (Cell, error)
}

// TypeError reports a cursor operation attempted against the wrong shape:
// narrowing to a type the mapping doesn't represent, treating a non-leaf as
// a leaf, or treating a leaf as a list (§7 kind 2).
type TypeError struct {
	Path []string
	Msg  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("rowcursor: type error at %v: %s", e.Path, e.Msg)
}

// NewRoot builds the root cursor over a fetched Table, per the planner's
// MappedQuery and the mapping registry it was planned against. list
// indicates whether the query this table answers is list-valued at the
// root (a "many" root selection) or singular.
func NewRoot(mq *planner.MappedQuery, reg *mapping.Registry, tpe string, table Table, list bool) Cursor {
	return &SqlCursor{tpe: tpe, table: table, mq: mq, reg: reg, list: list}
}

// SqlCursor is a non-leaf cursor: its focus is a Table, either representing
// one grouped item (list=false) or the whole ungrouped slice awaiting
// AsList (list=true).
type SqlCursor struct {
	path  []string
	tpe   string
	table Table
	mq    *planner.MappedQuery
	reg   *mapping.Registry
	list  bool
}

func (c *SqlCursor) Path() []string { return c.path }
func (c *SqlCursor) Type() string   { return c.tpe }

func (c *SqlCursor) IsLeaf() bool { return false }

func (c *SqlCursor) AsLeaf() (Cell, error) {
	return Cell{}, &TypeError{Path: c.path, Msg: "not a leaf"}
}

func (c *SqlCursor) IsList() bool { return c.list }

// AsList implements §4.G: if every row fails every key column of the
// current mapping, the list is empty; otherwise rows are stripped of any
// row whose key columns are FailedJoin, then grouped by key-column
// projection into ordered item cursors.
func (c *SqlCursor) AsList() ([]Cursor, error) {
	if !c.list {
		return nil, &TypeError{Path: c.path, Msg: "not a list-valued cursor"}
	}
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return nil, &TypeError{Path: c.path, Msg: "no mapping registered for type " + c.tpe}
	}
	keyCols := om.KeyColumns()

	allFailed := true
	for _, row := range c.table {
		if !c.rowKeyFailed(row, keyCols) {
			allFailed = false
			break
		}
	}
	if allFailed {
		return nil, nil
	}

	groups := c.groupByKey(keyCols)
	out := make([]Cursor, 0, len(groups))
	for _, g := range groups {
		item := &SqlCursor{path: c.path, tpe: c.tpe, table: g, mq: c.mq, reg: c.reg, list: false}
		keep, err := c.passesPostFilters(item)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, item)
		}
	}
	return out, nil
}

// passesPostFilters evaluates every PostFilters entry scheduled at c.path
// against item (§4.B: the predicates the SQL Projection Planner could not
// resolve to a column, because they terminate in a cursor-computed field or
// attribute).
func (c *SqlCursor) passesPostFilters(item *SqlCursor) (bool, error) {
	for _, pe := range c.mq.PostFilters {
		if !pathsEqual(pe.Path, c.path) {
			continue
		}
		ok, err := pe.Pred.Evaluate(item)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func pathsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *SqlCursor) IsNullable() bool {
	if c.list {
		return true
	}
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return true
	}
	if len(c.table) == 0 {
		return true
	}
	return c.rowKeyFailed(c.table[0], om.KeyColumns())
}

// AsNullable reports None iff the list focus is empty or, for a to-one
// object cursor, its single row's key columns are FailedJoin.
func (c *SqlCursor) AsNullable() (Cursor, bool, error) {
	if c.list {
		if len(c.table) == 0 {
			return nil, false, nil
		}
		return c, true, nil
	}
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return nil, false, &TypeError{Path: c.path, Msg: "no mapping registered for type " + c.tpe}
	}
	if len(c.table) == 0 || c.rowKeyFailed(c.table[0], om.KeyColumns()) {
		return nil, false, nil
	}
	keep, err := c.passesPostFilters(c)
	if err != nil {
		return nil, false, err
	}
	if !keep {
		return nil, false, nil
	}
	return c, true, nil
}

// Narrow delegates to the interface mapping's discriminator if one exists;
// otherwise it checks every row's key columns for the target subtype's own
// mapping are non-FailedJoin.
func (c *SqlCursor) Narrow(subtype string) (Cursor, bool, error) {
	if c.reg.IsInterface(c.tpe) {
		im, _ := c.reg.InterfaceMapping(c.tpe)
		if im.HasDiscriminator() {
			discCol, ok := discriminatorColumn(im)
			if !ok {
				return nil, false, &TypeError{Path: c.path, Msg: "interface mapping declares a discriminator function but no discriminator column"}
			}
			if len(c.table) == 0 {
				return nil, false, nil
			}
			cell, ok := c.cellAt(0, discCol)
			if !ok {
				return nil, false, nil
			}
			name, ok := im.Discriminator(cell.Value())
			if !ok || name != subtype {
				return nil, false, nil
			}
			return &SqlCursor{path: c.path, tpe: subtype, table: c.table, mq: c.mq, reg: c.reg, list: c.list}, true, nil
		}
	}

	om, ok := c.reg.ObjectMappingFor(subtype, c.path)
	if !ok {
		return nil, false, &TypeError{Path: c.path, Msg: "no mapping registered for narrowed type " + subtype}
	}
	keyCols := om.KeyColumns()
	for _, row := range c.table {
		if c.rowKeyFailed(row, keyCols) {
			return nil, false, nil
		}
	}
	return &SqlCursor{path: c.path, tpe: subtype, table: c.table, mq: c.mq, reg: c.reg, list: c.list}, true, nil
}

func (c *SqlCursor) Field(name string) (Cursor, error) {
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return nil, &TypeError{Path: c.path, Msg: "no mapping registered for type " + c.tpe}
	}
	fm, ok := om.Field(name)
	if !ok {
		return nil, &TypeError{Path: c.path, Msg: "no field mapping for " + name}
	}

	childPath := append(append([]string{}, c.path...), name)

	switch v := fm.(type) {
	case mapping.SqlField:
		cell, err := c.headCell(v.Col)
		if err != nil {
			return nil, err
		}
		return &LeafCursor{path: childPath, tpe: c.tpe, cell: cell}, nil
	case mapping.SqlAttribute:
		cell, err := c.headCell(v.Col)
		if err != nil {
			return nil, err
		}
		return &LeafCursor{path: childPath, tpe: c.tpe, cell: cell}, nil
	case mapping.SqlJson:
		cell, err := c.headCell(v.Col)
		if err != nil {
			return nil, err
		}
		return &LeafCursor{path: childPath, tpe: c.tpe, cell: cell}, nil
	case mapping.SqlObject:
		return &SqlCursor{path: childPath, tpe: v.TargetType, table: c.table, mq: c.mq, reg: c.reg, list: v.List}, nil
	case mapping.CursorField:
		val, err := v.Fn(c)
		if err != nil {
			return nil, err
		}
		return &LeafCursor{path: childPath, tpe: c.tpe, cell: CustomCell(val)}, nil
	default:
		return nil, &TypeError{Path: c.path, Msg: fmt.Sprintf("field %q is not selectable", name)}
	}
}

// PathValue resolves a field/attribute path against the first row of the
// cursor's current focus, descending through SqlObject hops as needed. It
// satisfies algebra.CursorValue structurally so post-fetch predicate
// evaluation (§4.B) can read a row without rowcursor importing algebra. A
// FailedJoin or null cell, or any hop this mapping doesn't recognize,
// resolves to ok=false rather than an error.
func (c *SqlCursor) PathValue(hops []string) (any, bool, error) {
	if len(hops) == 0 || len(c.table) == 0 {
		return nil, false, nil
	}
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return nil, false, nil
	}
	fm, ok := om.Field(hops[0])
	if !ok {
		return nil, false, nil
	}

	switch v := fm.(type) {
	case mapping.SqlField:
		if len(hops) != 1 {
			return nil, false, nil
		}
		return cellPathValue(c.cellAt(0, v.Col))
	case mapping.SqlAttribute:
		if len(hops) != 1 {
			return nil, false, nil
		}
		return cellPathValue(c.cellAt(0, v.Col))
	case mapping.SqlJson:
		if len(hops) != 1 {
			return nil, false, nil
		}
		return cellPathValue(c.cellAt(0, v.Col))
	case mapping.CursorField:
		if len(hops) != 1 {
			return nil, false, nil
		}
		val, err := v.Fn(c)
		if err != nil {
			return nil, false, err
		}
		return val, true, nil
	case mapping.CursorAttribute:
		if len(hops) != 1 {
			return nil, false, nil
		}
		val, err := v.Fn(c)
		if err != nil {
			return nil, false, err
		}
		return val, true, nil
	case mapping.SqlObject:
		if len(hops) == 1 {
			return nil, false, nil
		}
		childPath := append(append([]string{}, c.path...), hops[0])
		child := &SqlCursor{path: childPath, tpe: v.TargetType, table: c.table, mq: c.mq, reg: c.reg, list: false}
		return child.PathValue(hops[1:])
	default:
		return nil, false, nil
	}
}

// cellPathValue adapts a (Cell, bool) lookup to PathValue's (any, bool,
// error) shape: a cell that wasn't projected, or one that is null or a
// failed join, resolves to "unresolved" rather than a zero value.
func cellPathValue(cell Cell, found bool) (any, bool, error) {
	if !found || cell.IsFailedJoin() || cell.IsNull() {
		return nil, false, nil
	}
	return cell.Value(), true, nil
}

func (c *SqlCursor) HasAttribute(name string) bool {
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return false
	}
	fm, ok := om.Field(name)
	if !ok {
		return false
	}
	switch fm.(type) {
	case mapping.SqlAttribute, mapping.CursorAttribute:
		return true
	default:
		return false
	}
}

func (c *SqlCursor) Attribute(name string) (Cell, error) {
	om, ok := c.reg.ObjectMappingFor(c.tpe, c.path)
	if !ok {
		return Cell{}, &TypeError{Path: c.path, Msg: "no mapping registered for type " + c.tpe}
	}
	fm, ok := om.Field(name)
	if !ok {
		return Cell{}, &TypeError{Path: c.path, Msg: "no attribute mapping for " + name}
	}
	switch v := fm.(type) {
	case mapping.SqlAttribute:
		return c.headCell(v.Col)
	case mapping.CursorAttribute:
		val, err := v.Fn(c)
		if err != nil {
			return Cell{}, err
		}
		return CustomCell(val), nil
	default:
		return Cell{}, &TypeError{Path: c.path, Msg: name + " is not an attribute"}
	}
}

func (c *SqlCursor) headCell(col mapping.ColumnRef) (Cell, error) {
	if len(c.table) == 0 {
		return Cell{}, &TypeError{Path: c.path, Msg: "no row to read " + col.Column + " from"}
	}
	cell, ok := c.cellAt(0, col)
	if !ok {
		return Cell{}, &TypeError{Path: c.path, Msg: "column " + col.Table + "." + col.Column + " was not projected"}
	}
	return cell, nil
}

func (c *SqlCursor) cellAt(rowIdx int, col mapping.ColumnRef) (Cell, bool) {
	idx, ok := columnIndex(c.mq, col)
	if !ok || rowIdx >= len(c.table) || idx >= len(c.table[rowIdx]) {
		return Cell{}, false
	}
	return c.table[rowIdx][idx], true
}

func (c *SqlCursor) rowKeyFailed(row Row, keyCols []mapping.ColumnRef) bool {
	for _, kc := range keyCols {
		idx, ok := columnIndex(c.mq, kc)
		if !ok || idx >= len(row) {
			return true
		}
		if row[idx].IsFailedJoin() {
			return true
		}
	}
	return false
}

// groupByKey strips rows with any FailedJoin key column, groups the rest by
// their key-column projection, and returns the groups ordered
// deterministically by the stringified key projection.
func (c *SqlCursor) groupByKey(keyCols []mapping.ColumnRef) []Table {
	order := make([]string, 0, len(c.table))
	groups := make(map[string]Table)

	for _, row := range c.table {
		if c.rowKeyFailed(row, keyCols) {
			continue
		}
		key := c.keyProjection(row, keyCols)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	sort.Strings(order)
	out := make([]Table, len(order))
	for i, k := range order {
		out[i] = groups[k]
	}
	return out
}

func (c *SqlCursor) keyProjection(row Row, keyCols []mapping.ColumnRef) string {
	parts := make([]string, len(keyCols))
	for i, kc := range keyCols {
		idx, ok := columnIndex(c.mq, kc)
		if !ok || idx >= len(row) {
			parts[i] = ""
			continue
		}
		parts[i] = fmt.Sprintf("%v", row[idx].Value())
	}
	return strings.Join(parts, "\x1f")
}

func columnIndex(mq *planner.MappedQuery, col mapping.ColumnRef) (int, bool) {
	for i, c := range mq.Columns {
		if c.Equal(col) {
			return i, true
		}
	}
	return 0, false
}

func discriminatorColumn(im mapping.SqlInterfaceMapping) (mapping.ColumnRef, bool) {
	names := make([]string, 0, len(im.Fields))
	for name := range im.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fm := im.Fields[name]
		if mapping.IsDiscriminator(fm) {
			if col, ok := mapping.ColumnOf(fm); ok {
				return col, true
			}
		}
	}
	return mapping.ColumnRef{}, false
}

// LeafCursor is a scalar-focus cursor.
type LeafCursor struct {
	path []string
	tpe  string
	cell Cell
}

func (c *LeafCursor) Path() []string { return c.path }
func (c *LeafCursor) Type() string   { return c.tpe }

func (c *LeafCursor) IsLeaf() bool          { return true }
func (c *LeafCursor) AsLeaf() (Cell, error) { return c.cell, nil }

func (c *LeafCursor) IsList() bool { return false }
func (c *LeafCursor) AsList() ([]Cursor, error) {
	return nil, &TypeError{Path: c.path, Msg: "leaf cursor is not list-valued"}
}

func (c *LeafCursor) IsNullable() bool {
	return c.cell.IsFailedJoin() || c.cell.IsNull()
}

func (c *LeafCursor) AsNullable() (Cursor, bool, error) {
	if c.IsNullable() {
		return nil, false, nil
	}
	return c, true, nil
}

func (c *LeafCursor) Narrow(subtype string) (Cursor, bool, error) {
	return nil, false, &TypeError{Path: c.path, Msg: "cannot narrow a leaf cursor"}
}

func (c *LeafCursor) Field(name string) (Cursor, error) {
	return nil, &TypeError{Path: c.path, Msg: "leaf cursor has no field " + name}
}

func (c *LeafCursor) HasAttribute(name string) bool { return false }

func (c *LeafCursor) Attribute(name string) (Cell, error) {
	return Cell{}, &TypeError{Path: c.path, Msg: "leaf cursor has no attribute " + name}
}
