package sqlfrag

import "testing"

type intEncoder struct{}

func (intEncoder) Encode(v any) (any, error) { return v, nil }

func TestConcat_IsAssociativeWithEmptyIdentity(t *testing.T) {
	a := Const("a")
	b := BindValue(intEncoder{}, 1)
	if Concat(a, Empty).Text != a.Text {
		t.Fatalf("Concat(a, Empty) should equal a")
	}
	if Concat(Empty, b).Text != b.Text || len(Concat(Empty, b).Binds) != 1 {
		t.Fatalf("Concat(Empty, b) should equal b")
	}
	c := Const("c")
	left, right := Concat(Concat(a, b), c), Concat(a, Concat(b, c))
	if left.Text != right.Text || len(left.Binds) != len(right.Binds) {
		t.Fatalf("Concat should be associative, got %q and %q", left.Text, right.Text)
	}
}

func TestWhereAndOpt_OmitsClauseWhenAllEmpty(t *testing.T) {
	f := WhereAndOpt(Empty, Empty)
	if !f.IsEmpty() {
		t.Fatalf("expected no WHERE clause, got %q", f.Text)
	}
}

func TestWhereAndOpt_JoinsNonEmptyWithAnd(t *testing.T) {
	f := WhereAndOpt(Const("a = ?"), Empty, Const("b = ?"))
	want := "WHERE (a = ?) AND (b = ?)"
	if f.Text != want {
		t.Fatalf("got %q want %q", f.Text, want)
	}
}

func TestIn_FailsOnEmptyValues(t *testing.T) {
	_, err := In("movies.genre", nil, intEncoder{})
	if err == nil {
		t.Fatalf("expected error for empty IN list")
	}
}

func TestIn_BuildsOnePlaceholderPerValue(t *testing.T) {
	f, err := In("movies.genre", []any{"ACTION", "COMEDY"}, intEncoder{})
	if err != nil {
		t.Fatalf("In: %v", err)
	}
	want := "movies.genre IN (?, ?)"
	if f.Text != want {
		t.Fatalf("got %q want %q", f.Text, want)
	}
	if len(f.Binds) != 2 {
		t.Fatalf("expected 2 binds, got %d", len(f.Binds))
	}
}
