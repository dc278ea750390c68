// Package sqlfrag implements the Fragment Builder (spec §4.D): an
// accumulator for parameterised SQL text with typed bind slots. Fragment is
// an immutable value — unlike the teacher's mutable StringBuilder
// (sql/stringifiers/stringbuilder.go) and PostgreSQLMarshaler
// (graph/marshal/postgresql.go), which append into a shared buffer, a
// Fragment is built by concatenation and never mutated in place, matching
// the monoid the spec requires: an associative Concat with Empty as the
// identity.
package sqlfrag

// Encoder is the bind-value encoder half of the Codec contract (§6): it
// converts a Go value to whatever representation the SQL driver boundary
// expects to bind. Encoders are compared by identity (reference equality)
// per the Codec contract, never by value.
type Encoder interface {
	Encode(v any) (any, error)
}

// Bind is one parameter slot: a value plus the encoder that will convert it
// at fetch time.
type Bind struct {
	Value   any
	Encoder Encoder
}

// Fragment is parameterised SQL text plus its ordered bind list. The zero
// value is the monoid identity (empty text, no binds).
type Fragment struct {
	Text  string
	Binds []Bind
}

// Empty is the Fragment monoid identity.
var Empty = Fragment{}

// IsEmpty reports whether f carries no SQL text (and therefore no binds).
func (f Fragment) IsEmpty() bool {
	return f.Text == ""
}

// Const builds a Fragment of literal SQL text with no bind slots.
func Const(sql string) Fragment {
	return Fragment{Text: sql}
}

// BindValue builds a single `?`-placeholder Fragment carrying one bind value. The
// concrete placeholder syntax (`?` vs `$1`) is a rendering concern handled
// by the SQL driver boundary when the Fragment is finally stringified; the
// core only ever manipulates placeholder-agnostic Fragments.
func BindValue(encoder Encoder, value any) Fragment {
	return Fragment{Text: "?", Binds: []Bind{{Value: value, Encoder: encoder}}}
}

// Concat is the Fragment monoid operation: concatenates SQL text and bind
// lists, in order. Concat(a, Empty) == a and Concat(Empty, a) == a.
func Concat(fs ...Fragment) Fragment {
	var textLen int
	var bindLen int
	for _, f := range fs {
		textLen += len(f.Text)
		bindLen += len(f.Binds)
	}
	text := make([]byte, 0, textLen)
	binds := make([]Bind, 0, bindLen)
	for _, f := range fs {
		text = append(text, f.Text...)
		binds = append(binds, f.Binds...)
	}
	return Fragment{Text: string(text), Binds: binds}
}

// Join concatenates fs with sep inserted between non-empty fragments, empty
// fragments skipped entirely.
func Join(sep string, fs ...Fragment) Fragment {
	nonEmpty := make([]Fragment, 0, len(fs))
	for _, f := range fs {
		if !f.IsEmpty() {
			nonEmpty = append(nonEmpty, f)
		}
	}
	if len(nonEmpty) == 0 {
		return Empty
	}
	parts := make([]Fragment, 0, len(nonEmpty)*2-1)
	for i, f := range nonEmpty {
		if i > 0 {
			parts = append(parts, Const(sep))
		}
		parts = append(parts, f)
	}
	return Concat(parts...)
}

// AndOpt joins non-empty fragments with AND, each wrapped in parentheses.
// Fewer than two non-empty fragments skip the parentheses/AND entirely.
func AndOpt(fs ...Fragment) Fragment {
	return boolJoin(" AND ", fs)
}

// OrOpt joins non-empty fragments with OR, each wrapped in parentheses.
func OrOpt(fs ...Fragment) Fragment {
	return boolJoin(" OR ", fs)
}

func boolJoin(sep string, fs []Fragment) Fragment {
	nonEmpty := make([]Fragment, 0, len(fs))
	for _, f := range fs {
		if !f.IsEmpty() {
			nonEmpty = append(nonEmpty, f)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return Empty
	case 1:
		return nonEmpty[0]
	default:
		wrapped := make([]Fragment, len(nonEmpty))
		for i, f := range nonEmpty {
			wrapped[i] = Concat(Const("("), f, Const(")"))
		}
		return Join(sep, wrapped...)
	}
}

// WhereAndOpt prefixes the AND of fs with "WHERE " only if at least one
// fragment is non-empty; otherwise it returns Empty (no WHERE clause at
// all).
func WhereAndOpt(fs ...Fragment) Fragment {
	body := AndOpt(fs...)
	if body.IsEmpty() {
		return Empty
	}
	return Concat(Const("WHERE "), body)
}

// In builds `col IN (?, ?, …)`. An empty vs fails compilation (§4.E: "empty
// vs fails the compilation") by returning an error rather than emitting
// malformed SQL like `col IN ()`.
func In(col string, vs []any, encoder Encoder) (Fragment, error) {
	if len(vs) == 0 {
		return Empty, errEmptyIn{col: col}
	}
	binds := make([]Fragment, len(vs))
	for i, v := range vs {
		binds[i] = BindValue(encoder, v)
	}
	return Concat(Const(col+" IN ("), Join(", ", binds...), Const(")")), nil
}

type errEmptyIn struct{ col string }

func (e errEmptyIn) Error() string {
	return "sqlfrag: IN predicate over " + e.col + " has no values"
}
