package algebra

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CursorValue is the minimal read access Evaluate needs to resolve a Path
// term directly off an already-fetched row, instead of through SQL. Defined
// here rather than as rowcursor.Cursor so algebra carries no dependency on
// rowcursor; rowcursor.SqlCursor satisfies this structurally.
type CursorValue interface {
	// PathValue resolves hops (a field/attribute path relative to the
	// cursor's own type) to a scalar value. ok is false when the path is
	// unresolved (a failed join, a null, or simply not projected) rather
	// than an error — callers treat an unresolved path as "no match", not
	// a failure.
	PathValue(hops []string) (value any, ok bool, err error)
}

func evalTerm(t Term, cv CursorValue) (any, bool, error) {
	switch v := t.(type) {
	case Const:
		return v.Value, true, nil
	case Path:
		return cv.PathValue(v.Hops)
	default:
		return nil, false, fmt.Errorf("algebra: unsupported term type %T", t)
	}
}

func (a And) Evaluate(cv CursorValue) (bool, error) {
	l, err := a.Left.Evaluate(cv)
	if err != nil || !l {
		return false, err
	}
	return a.Right.Evaluate(cv)
}

func (o Or) Evaluate(cv CursorValue) (bool, error) {
	l, err := o.Left.Evaluate(cv)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return o.Right.Evaluate(cv)
}

func (n Not) Evaluate(cv CursorValue) (bool, error) {
	v, err := n.Operand.Evaluate(cv)
	if err != nil {
		return false, err
	}
	return !v, nil
}

func (b binaryComparison) evalTerms(cv CursorValue) (any, any, bool, error) {
	l, ok, err := evalTerm(b.Left, cv)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	r, ok, err := evalTerm(b.Right, cv)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	return l, r, true, nil
}

func (e Eql) Evaluate(cv CursorValue) (bool, error) {
	l, r, ok, err := e.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	return valuesEqual(l, r), nil
}

func (n NEql) Evaluate(cv CursorValue) (bool, error) {
	l, r, ok, err := n.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	return !valuesEqual(l, r), nil
}

func (l Lt) Evaluate(cv CursorValue) (bool, error) {
	a, b, ok, err := l.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	c, err := compareValues(a, b)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

func (l LtEql) Evaluate(cv CursorValue) (bool, error) {
	a, b, ok, err := l.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	c, err := compareValues(a, b)
	if err != nil {
		return false, err
	}
	return c <= 0, nil
}

func (g Gt) Evaluate(cv CursorValue) (bool, error) {
	a, b, ok, err := g.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	c, err := compareValues(a, b)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (g GtEql) Evaluate(cv CursorValue) (bool, error) {
	a, b, ok, err := g.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	c, err := compareValues(a, b)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

func (i In) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(i.Left, cv)
	if err != nil || !ok {
		return false, err
	}
	for _, candidate := range i.Values {
		if valuesEqual(v, candidate) {
			return true, nil
		}
	}
	return false, nil
}

func (c Contains) Evaluate(cv CursorValue) (bool, error) {
	l, ok, err := evalTerm(c.Left, cv)
	if err != nil || !ok {
		return false, err
	}
	r, ok, err := evalTerm(c.Right, cv)
	if err != nil || !ok {
		return false, err
	}
	return valuesEqual(l, r), nil
}

func (l Like) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(l.Left, cv)
	if err != nil || !ok {
		return false, err
	}
	s, ok := v.(string)
	if !ok {
		return false, nil
	}
	re, err := likePatternToRegexp(l.Pattern, l.CaseInsensitive)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

func (s StartsWith) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(s.Left, cv)
	if err != nil || !ok {
		return false, err
	}
	str, ok := v.(string)
	if !ok {
		return false, nil
	}
	return strings.HasPrefix(str, s.Prefix), nil
}

func (m Matches) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(m.Left, cv)
	if err != nil || !ok {
		return false, err
	}
	s, ok := v.(string)
	if !ok {
		return false, nil
	}
	re, err := regexp.Compile(m.Pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

func (a AndB) Evaluate(cv CursorValue) (bool, error) {
	l, r, ok, err := a.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	li, err := toInt(l)
	if err != nil {
		return false, err
	}
	ri, err := toInt(r)
	if err != nil {
		return false, err
	}
	return li&ri != 0, nil
}

func (o OrB) Evaluate(cv CursorValue) (bool, error) {
	l, r, ok, err := o.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	li, err := toInt(l)
	if err != nil {
		return false, err
	}
	ri, err := toInt(r)
	if err != nil {
		return false, err
	}
	return li|ri != 0, nil
}

func (x XorB) Evaluate(cv CursorValue) (bool, error) {
	l, r, ok, err := x.evalTerms(cv)
	if err != nil || !ok {
		return false, err
	}
	li, err := toInt(l)
	if err != nil {
		return false, err
	}
	ri, err := toInt(r)
	if err != nil {
		return false, err
	}
	return li^ri != 0, nil
}

func (n NotB) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(n.Operand, cv)
	if err != nil || !ok {
		return false, err
	}
	i, err := toInt(v)
	if err != nil {
		return false, err
	}
	return ^i != 0, nil
}

// ToUpperCase/ToLowerCase are mostly used as operands nested in a
// comparison; evaluated directly as a top-level predicate, "true" means the
// transform produced a non-empty string.
func (t ToUpperCase) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(t.Operand, cv)
	if err != nil || !ok {
		return false, err
	}
	s, ok := v.(string)
	if !ok {
		return false, nil
	}
	return strings.ToUpper(s) != "", nil
}

func (t ToLowerCase) Evaluate(cv CursorValue) (bool, error) {
	v, ok, err := evalTerm(t.Operand, cv)
	if err != nil || !ok {
		return false, err
	}
	s, ok := v.(string)
	if !ok {
		return false, nil
	}
	return strings.ToLower(s) != "", nil
}

// valuesEqual compares two decoded scalar values loosely across Go's
// numeric kinds (a column decoded as int64 must still equal a literal typed
// int by the caller), falling back to fmt.Sprintf equality for everything
// else (handles e.g. two distinct but printable-equal enum representations).
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloatOk(a); aok {
		if bf, bok := toFloatOk(b); bok {
			return af == bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareValues orders two scalar values, preferring numeric comparison,
// then time.Time (release dates, showtimes), then lexicographic string
// comparison.
func compareValues(a, b any) (int, error) {
	if af, aok := toFloatOk(a); aok {
		if bf, bok := toFloatOk(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1, nil
			case at.After(bt):
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), nil
	}
	return 0, fmt.Errorf("algebra: cannot compare %T and %T", a, b)
}

func toFloatOk(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("algebra: %T is not an integer", v)
	}
}

// likePatternToRegexp translates a SQL LIKE pattern ('%' any run, '_' one
// char) into an anchored regexp.
func likePatternToRegexp(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	expr := b.String()
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}
