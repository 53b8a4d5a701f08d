package store

import (
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
)

var errInvalidFilter = coreerrors.ErrInvalidFilter

// Op enumerates the structural filter operators.
type Op string

const (
	OpEquals     Op = "equals"
	OpNotEquals  Op = "not_equals"
	OpContains   Op = "contains"
	OpStartsWith Op = "starts_with"
	OpEndsWith   Op = "ends_with"
	OpGT         Op = ">"
	OpLT         Op = "<"
	OpGTE        Op = ">="
	OpLTE        Op = "<="
	OpIn         Op = "in"
	OpNotIn      Op = "not_in"
)

// Filter is one structural predicate clause: column <op> value.
type Filter struct {
	Key   string
	Op    Op
	Value any
}

// FilterSet is the structured filter tree: `all` clauses AND
// together, `any` clauses OR together, `none` clauses are AND-NOT'd in.
// `ALL AND ANY AND NOT(any of none)`.
type FilterSet struct {
	All  []Filter
	Any  []Filter
	None []Filter
}

// keyPattern is the identifier regex structural filter keys must satisfy;
// anything else is dropped rather than passed to the backend.
var keyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// InvalidClause records a dropped filter clause and why, so callers can
// log it; the surrounding query continues without the clause.
type InvalidClause struct {
	Filter Filter
	Reason string
}

// Compile turns a FilterSet into a squirrel predicate plus the list of
// clauses it had to drop. A nil/empty FilterSet compiles to no predicate
// (sq.And{} — always true).
func Compile(fs FilterSet) (sq.Sqlizer, []InvalidClause) {
	var dropped []InvalidClause

	build := func(filters []Filter) []sq.Sqlizer {
		out := make([]sq.Sqlizer, 0, len(filters))
		for _, f := range filters {
			pred, err := compileOne(f)
			if err != nil {
				dropped = append(dropped, InvalidClause{Filter: f, Reason: err.Error()})
				continue
			}
			out = append(out, pred)
		}
		return out
	}

	allPreds := build(fs.All)
	anyPreds := build(fs.Any)
	nonePreds := build(fs.None)

	var combined sq.And
	if len(allPreds) > 0 {
		combined = append(combined, sq.And(allPreds))
	}
	if len(anyPreds) > 0 {
		combined = append(combined, sq.Or(anyPreds))
	}
	if len(nonePreds) > 0 {
		combined = append(combined, notOf{sq.Or(nonePreds)})
	}

	if len(combined) == 0 {
		return sq.And{}, dropped
	}
	return combined, dropped
}

// notOf wraps a Sqlizer to render "NOT (<sql>)" while forwarding its args
// unchanged, since squirrel has no built-in negation combinator.
type notOf struct {
	inner sq.Sqlizer
}

func (n notOf) ToSql() (string, []any, error) {
	sqlStr, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sqlStr + ")", args, nil
}

func compileOne(f Filter) (sq.Sqlizer, error) {
	if !keyPattern.MatchString(f.Key) {
		return nil, fmt.Errorf("%w: key %q does not match identifier pattern", errInvalidFilter, f.Key)
	}

	switch f.Op {
	case OpEquals:
		return sq.Eq{f.Key: f.Value}, nil
	case OpNotEquals:
		return sq.NotEq{f.Key: f.Value}, nil
	case OpContains:
		return sq.Like{f.Key: likePattern(f.Value, true, true)}, nil
	case OpStartsWith:
		return sq.Like{f.Key: likePattern(f.Value, false, true)}, nil
	case OpEndsWith:
		return sq.Like{f.Key: likePattern(f.Value, true, false)}, nil
	case OpGT:
		return sq.Gt{f.Key: f.Value}, nil
	case OpLT:
		return sq.Lt{f.Key: f.Value}, nil
	case OpGTE:
		return sq.GtOrEq{f.Key: f.Value}, nil
	case OpLTE:
		return sq.LtOrEq{f.Key: f.Value}, nil
	case OpIn:
		vals, ok := asSlice(f.Value)
		if !ok || len(vals) == 0 {
			return nil, fmt.Errorf("%w: %q requires a non-empty array", errInvalidFilter, f.Op)
		}
		return sq.Eq{f.Key: vals}, nil
	case OpNotIn:
		vals, ok := asSlice(f.Value)
		if !ok || len(vals) == 0 {
			return nil, fmt.Errorf("%w: %q requires a non-empty array", errInvalidFilter, f.Op)
		}
		return sq.NotEq{f.Key: vals}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", errInvalidFilter, f.Op)
	}
}

func likePattern(v any, prefix, suffix bool) string {
	s := fmt.Sprintf("%v", v)
	escaped := escapeLike(s)
	if prefix {
		escaped = "%" + escaped
	}
	if suffix {
		escaped = escaped + "%"
	}
	return escaped
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func asSlice(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

