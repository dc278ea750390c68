package sqldriver

import (
	"errors"
	"testing"

	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/sqlfrag"
)

type stubEncoder struct {
	out any
	err error
}

func (e stubEncoder) Encode(v any) (any, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.out != nil {
		return e.out, nil
	}
	return v, nil
}

func TestRender_RewritesPlaceholdersAndEncodesBinds(t *testing.T) {
	frag := sqlfrag.Concat(
		sqlfrag.Const("SELECT movies.id FROM movies WHERE movies.title = "),
		sqlfrag.BindValue(stubEncoder{}, "Alien"),
		sqlfrag.Const(" AND movies.year = "),
		sqlfrag.BindValue(stubEncoder{}, 1979),
	)

	sql, args, err := Render(Postgres{}, frag)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "SELECT movies.id FROM movies WHERE movies.title = $1 AND movies.year = $2"
	if sql != want {
		t.Fatalf("sql mismatch:\n got: %s\nwant: %s", sql, want)
	}
	if len(args) != 2 || args[0] != "Alien" || args[1] != 1979 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestRender_EncoderErrorWrapsAsDriverError(t *testing.T) {
	boom := errors.New("boom")
	frag := sqlfrag.BindValue(stubEncoder{err: boom}, "x")

	_, _, err := Render(Postgres{}, frag)
	if err == nil {
		t.Fatalf("expected an error")
	}
	var de *DriverError
	if !errors.As(err, &de) {
		t.Fatalf("expected a *DriverError, got %T", err)
	}
	if errors.Unwrap(de) != boom {
		t.Fatalf("expected DriverError to unwrap to the encoder error")
	}
}

func TestPostgres_QuoteIdentifierEscapesDoubleQuotes(t *testing.T) {
	got := Postgres{}.QuoteIdentifier(`weird"name`)
	want := `"weird""name"`
	if got != want {
		t.Fatalf("QuoteIdentifier: got %q want %q", got, want)
	}
}

func TestDecodeCell_NullFromOuterJoinBecomesFailedJoin(t *testing.T) {
	meta := planner.ColumnMeta{IsFromOuterJoin: true}
	cell := decodeCell(nil, meta)
	if !cell.IsFailedJoin() {
		t.Fatalf("expected a FailedJoin cell for a null outer-joined column, got %+v", cell)
	}
}

func TestDecodeCell_PlainNullBecomesNullCell(t *testing.T) {
	cell := decodeCell(nil, planner.ColumnMeta{})
	if cell.IsFailedJoin() {
		t.Fatalf("expected a plain NullCell, got FailedJoin")
	}
	if !cell.IsNull() {
		t.Fatalf("expected IsNull, got %+v", cell)
	}
}

func TestDecodeCell_TypedValuesRoundTrip(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{int64(7), int64(7)},
		{int32(3), int32(3)},
		{float64(1.5), float64(1.5)},
		{true, true},
		{"hello", "hello"},
		{[]byte("raw"), []byte("raw")},
	}
	for _, c := range cases {
		cell := decodeCell(c.in, planner.ColumnMeta{})
		got := cell.Value()
		switch want := c.want.(type) {
		case []byte:
			gb, ok := got.([]byte)
			if !ok || string(gb) != string(want) {
				t.Fatalf("decodeCell(%v): got %v want %v", c.in, got, c.want)
			}
		default:
			if got != c.want {
				t.Fatalf("decodeCell(%v): got %v want %v", c.in, got, c.want)
			}
		}
	}
}

func TestDecodeCell_UnknownGoTypeFallsBackToCustom(t *testing.T) {
	type weird struct{ A int }
	cell := decodeCell(weird{A: 1}, planner.ColumnMeta{})
	v, ok := cell.Value().(weird)
	if !ok || v.A != 1 {
		t.Fatalf("expected the custom value to round-trip unchanged, got %v", cell.Value())
	}
}

func TestEncoderRegistry_FallsBackToDefaultEncoder(t *testing.T) {
	reg := EncoderRegistry{}
	enc := reg.EncoderFor(nil)
	v, err := enc.Encode(42)
	if err != nil || v != 42 {
		t.Fatalf("expected the default encoder to pass values through unchanged, got %v, %v", v, err)
	}
}
