package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/store"
)

func TestParseFilter_Equals(t *testing.T) {
	f, err := parseFilter("symbolType=function")
	require.NoError(t, err)
	require.Equal(t, store.Filter{Key: "symbolType", Op: store.OpEquals, Value: "function"}, f)
}

func TestParseFilter_NumericGreaterThan(t *testing.T) {
	f, err := parseFilter("complexity>5")
	require.NoError(t, err)
	require.Equal(t, "complexity", f.Key)
	require.Equal(t, store.OpGT, f.Op)
	require.Equal(t, int64(5), f.Value)
}

func TestParseFilter_GreaterEqualNotConfusedWithGreaterThan(t *testing.T) {
	f, err := parseFilter("complexity>=5")
	require.NoError(t, err)
	require.Equal(t, store.OpGTE, f.Op)
}

func TestParseFilter_BooleanValue(t *testing.T) {
	f, err := parseFilter("isExported=true")
	require.NoError(t, err)
	require.Equal(t, true, f.Value)
}

func TestParseFilter_ContainsOperator(t *testing.T) {
	f, err := parseFilter("file~handler")
	require.NoError(t, err)
	require.Equal(t, store.OpContains, f.Op)
	require.Equal(t, "handler", f.Value)
}

func TestParseFilter_InvalidExpressionErrors(t *testing.T) {
	_, err := parseFilter("no-operator-here")
	require.Error(t, err)
}

func TestParseFilters_BuildsAllClauses(t *testing.T) {
	fs, err := parseFilters([]string{"symbolType=function", "complexity>5"})
	require.NoError(t, err)
	require.Len(t, fs.All, 2)
}
