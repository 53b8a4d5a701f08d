package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codesearch/hybrid-search/internal/store"
)

// parseFilters turns repeated --filter "key<op>value" flags into a
// FilterSet every clause AND'd together. Supported operators, longest
// first so ">=" isn't swallowed by ">": >=, <=, !=, =, >, <, ~ (contains).
var filterOps = []struct {
	token string
	op    store.Op
}{
	{">=", store.OpGTE},
	{"<=", store.OpLTE},
	{"!=", store.OpNotEquals},
	{"~", store.OpContains},
	{"=", store.OpEquals},
	{">", store.OpGT},
	{"<", store.OpLT},
}

func parseFilters(exprs []string) (store.FilterSet, error) {
	var fs store.FilterSet
	for _, expr := range exprs {
		f, err := parseFilter(expr)
		if err != nil {
			return store.FilterSet{}, err
		}
		fs.All = append(fs.All, f)
	}
	return fs, nil
}

func parseFilter(expr string) (store.Filter, error) {
	for _, candidate := range filterOps {
		idx := strings.Index(expr, candidate.token)
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(expr[:idx])
		raw := strings.TrimSpace(expr[idx+len(candidate.token):])
		return store.Filter{Key: key, Op: candidate.op, Value: parseFilterValue(raw)}, nil
	}
	return store.Filter{}, fmt.Errorf("invalid filter %q: expected key<op>value", expr)
}

// parseFilterValue tries numeric and boolean conversion before falling
// back to a plain string, so "complexity>5" compares numerically rather
// than lexicographically.
func parseFilterValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
