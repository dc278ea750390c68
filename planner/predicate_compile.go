package planner

import (
	"fmt"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/sqlfrag"
)

// fallbackEncoder resolves an encoder for an untyped literal based on its Go
// type, the "small set of built-ins (int, string, double, boolean) injected
// as fallback encoders for untyped literals" from §6.
type fallbackEncoder struct{}

func (fallbackEncoder) Encode(v any) (any, error) { return v, nil }

// termInfo is a resolved predicate term: either a column reference (isPath)
// or a literal value.
type termInfo struct {
	isPath  bool
	sqlText string
	codec   mapping.Codec
	value   any
}

func resolveTerm(t algebra.Term, resolved map[string]mapping.ColumnRef) (termInfo, error) {
	switch v := t.(type) {
	case algebra.Const:
		return termInfo{value: v.Value}, nil
	case algebra.Path:
		col, ok := resolved[pathKey(v.Hops)]
		if !ok {
			return termInfo{}, fmt.Errorf("no resolved column for path %v", v.Hops)
		}
		return termInfo{isPath: true, sqlText: col.Table + "." + col.Column, codec: col.Codec}, nil
	default:
		return termInfo{}, fmt.Errorf("unsupported term type %T", t)
	}
}

// unifyEncoder implements §4.E's encoder unification: the literal side takes
// the typed side's encoder; two typed sides must agree; two constant sides
// use the fallback; otherwise compilation fails.
func unifyEncoder(left, right termInfo, encoderFor func(mapping.Codec) sqlfrag.Encoder) (sqlfrag.Encoder, error) {
	switch {
	case left.isPath && right.isPath:
		if left.codec != nil && right.codec != nil && left.codec.Name() != right.codec.Name() {
			return nil, fmt.Errorf("encoder disagreement between %s and %s", left.sqlText, right.sqlText)
		}
		return encoderFor(left.codec), nil
	case left.isPath:
		return encoderFor(left.codec), nil
	case right.isPath:
		return encoderFor(right.codec), nil
	default:
		return fallbackEncoder{}, nil
	}
}

func renderTerm(t termInfo, encoder sqlfrag.Encoder) sqlfrag.Fragment {
	if t.isPath {
		return sqlfrag.Const(t.sqlText)
	}
	return sqlfrag.BindValue(encoder, t.value)
}

func compileComparison(left, right algebra.Term, resolved map[string]mapping.ColumnRef, encoderFor func(mapping.Codec) sqlfrag.Encoder, op string) (sqlfrag.Fragment, error) {
	l, err := resolveTerm(left, resolved)
	if err != nil {
		return sqlfrag.Empty, err
	}
	r, err := resolveTerm(right, resolved)
	if err != nil {
		return sqlfrag.Empty, err
	}
	enc, err := unifyEncoder(l, r, encoderFor)
	if err != nil {
		return sqlfrag.Empty, err
	}
	return sqlfrag.Concat(renderTerm(l, enc), sqlfrag.Const(" "+op+" "), renderTerm(r, enc)), nil
}

// compilePredicate renders a Predicate to its SQL Fragment per the §4.E
// predicate compilation table. resolved maps a joined-hops path string (see
// pathKey) to the ColumnRef it was resolved to during planning.
func compilePredicate(pred algebra.Predicate, resolved map[string]mapping.ColumnRef, encoderFor func(mapping.Codec) sqlfrag.Encoder) (sqlfrag.Fragment, error) {
	switch p := pred.(type) {
	case algebra.And:
		l, err := compilePredicate(p.Left, resolved, encoderFor)
		if err != nil {
			return sqlfrag.Empty, err
		}
		r, err := compilePredicate(p.Right, resolved, encoderFor)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.AndOpt(l, r), nil
	case algebra.Or:
		l, err := compilePredicate(p.Left, resolved, encoderFor)
		if err != nil {
			return sqlfrag.Empty, err
		}
		r, err := compilePredicate(p.Right, resolved, encoderFor)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.OrOpt(l, r), nil
	case algebra.Not:
		inner, err := compilePredicate(p.Operand, resolved, encoderFor)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Concat(sqlfrag.Const("NOT ("), inner, sqlfrag.Const(")")), nil
	case algebra.Eql:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "=")
	case algebra.NEql:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "!=")
	case algebra.Lt:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "<")
	case algebra.LtEql:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "<=")
	case algebra.Gt:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, ">")
	case algebra.GtEql:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, ">=")
	case algebra.In:
		l, err := resolveTerm(p.Left, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		enc := encoderFor(l.codec)
		if enc == nil {
			enc = fallbackEncoder{}
		}
		return sqlfrag.In(l.sqlText, p.Values, enc)
	case algebra.StartsWith:
		l, err := resolveTerm(p.Left, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Concat(sqlfrag.Const(l.sqlText+" LIKE "), sqlfrag.BindValue(fallbackEncoder{}, p.Prefix+"%")), nil
	case algebra.Like:
		l, err := resolveTerm(p.Left, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		op := "LIKE"
		if p.CaseInsensitive {
			op = "ILIKE"
		}
		return sqlfrag.Concat(sqlfrag.Const(l.sqlText+" "+op+" "), sqlfrag.BindValue(fallbackEncoder{}, p.Pattern)), nil
	case algebra.Matches:
		l, err := resolveTerm(p.Left, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Concat(sqlfrag.Const(l.sqlText+" ~ "), sqlfrag.BindValue(fallbackEncoder{}, p.Pattern)), nil
	case algebra.ToUpperCase:
		l, err := resolveTerm(p.Operand, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Const("upper(" + l.sqlText + ")"), nil
	case algebra.ToLowerCase:
		l, err := resolveTerm(p.Operand, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Const("lower(" + l.sqlText + ")"), nil
	case algebra.AndB:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "&")
	case algebra.OrB:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "|")
	case algebra.XorB:
		return compileComparison(p.Left, p.Right, resolved, encoderFor, "#")
	case algebra.NotB:
		l, err := resolveTerm(p.Operand, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Const("~" + l.sqlText), nil
	case algebra.Contains:
		// x = y, with y not coerced to an encoder of its own (§4.E table).
		l, err := resolveTerm(p.Left, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		enc := encoderFor(l.codec)
		if enc == nil {
			enc = fallbackEncoder{}
		}
		r, err := resolveTerm(p.Right, resolved)
		if err != nil {
			return sqlfrag.Empty, err
		}
		return sqlfrag.Concat(renderTerm(l, enc), sqlfrag.Const(" = "), renderTerm(r, enc)), nil
	default:
		return sqlfrag.Empty, fmt.Errorf("planner: no compilation rule for predicate %T", pred)
	}
}
