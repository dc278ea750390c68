// Package rowcursor implements the Row-table Cursor (spec §4.G): a stateless
// walker that interprets a flat row table, shaped by the planner's
// MappedQuery, as a nested value tree a JSON assembler (external, §6) can
// drive field by field. No mutation: narrowing, field selection, and list
// expansion all return fresh cursors.
package rowcursor

// Kind discriminates a Cell's payload.
type Kind int

const (
	KindNull Kind = iota
	KindI32
	KindI64
	KindF64
	KindBool
	KindString
	KindBytes
	KindJSON
	// KindFailedJoin marks a cell from an unmatched LEFT JOIN row: the SQL
	// driver boundary produces these in place of a decoded null whenever the
	// column's table is the child side of a join (planner.ColumnMeta.
	// IsFromOuterJoin), so the cursor can tell "no related row" apart from
	// "related row has a null column".
	KindFailedJoin
	KindCustom
)

// Cell is one decoded value in a Row. Exactly one of the typed fields is
// meaningful, selected by Kind.
type Cell struct {
	Kind   Kind
	I32    int32
	I64    int64
	F64    float64
	Bool   bool
	Str    string
	Bytes  []byte
	Custom any
}

func NullCell() Cell             { return Cell{Kind: KindNull} }
func I32Cell(v int32) Cell       { return Cell{Kind: KindI32, I32: v} }
func I64Cell(v int64) Cell       { return Cell{Kind: KindI64, I64: v} }
func F64Cell(v float64) Cell     { return Cell{Kind: KindF64, F64: v} }
func BoolCell(v bool) Cell       { return Cell{Kind: KindBool, Bool: v} }
func StringCell(v string) Cell   { return Cell{Kind: KindString, Str: v} }
func BytesCell(v []byte) Cell    { return Cell{Kind: KindBytes, Bytes: v} }
func JSONCell(v []byte) Cell     { return Cell{Kind: KindJSON, Bytes: v} }
func FailedJoinCell() Cell       { return Cell{Kind: KindFailedJoin} }
func CustomCell(v any) Cell      { return Cell{Kind: KindCustom, Custom: v} }

// IsFailedJoin reports whether this cell stands in for an unmatched LEFT
// JOIN row.
func (c Cell) IsFailedJoin() bool { return c.Kind == KindFailedJoin }

// IsNull reports whether this cell is a genuine SQL null (as opposed to a
// FailedJoin sentinel).
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// Value returns the cell's payload as an untyped Go value, for callers (the
// external JSON assembler, cursor function closures) that just need the
// underlying scalar.
func (c Cell) Value() any {
	switch c.Kind {
	case KindNull, KindFailedJoin:
		return nil
	case KindI32:
		return c.I32
	case KindI64:
		return c.I64
	case KindF64:
		return c.F64
	case KindBool:
		return c.Bool
	case KindString:
		return c.Str
	case KindBytes, KindJSON:
		return c.Bytes
	case KindCustom:
		return c.Custom
	default:
		return nil
	}
}

// Row is a positional sequence of cell values, one per MappedQuery column.
type Row []Cell

// Table is an ordered sequence of rows.
type Table []Row
