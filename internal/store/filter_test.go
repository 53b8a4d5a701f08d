package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileEmptyIsAlwaysTrue(t *testing.T) {
	pred, dropped := Compile(FilterSet{})
	require.Empty(t, dropped)
	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	require.Empty(t, args)
	require.NotContains(t, sql, "WHERE")
}

func TestCompileDropsBadKey(t *testing.T) {
	_, dropped := Compile(FilterSet{All: []Filter{{Key: "bad-key", Op: OpEquals, Value: "x"}}})
	require.Len(t, dropped, 1)
}

func TestCompileDropsEmptyInList(t *testing.T) {
	_, dropped := Compile(FilterSet{All: []Filter{{Key: "language", Op: OpIn, Value: []any{}}}})
	require.Len(t, dropped, 1)
}

func TestCompileInProducesClause(t *testing.T) {
	pred, dropped := Compile(FilterSet{All: []Filter{{Key: "language", Op: OpIn, Value: []string{"go", "py"}}}})
	require.Empty(t, dropped)
	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	require.Contains(t, sql, "language")
	require.Len(t, args, 2)
}

func TestCompileNoneNegatesClause(t *testing.T) {
	pred, dropped := Compile(FilterSet{None: []Filter{{Key: "is_exported", Op: OpEquals, Value: false}}})
	require.Empty(t, dropped)
	sql, _, err := pred.ToSql()
	require.NoError(t, err)
	require.Contains(t, sql, "NOT (")
}

func TestCompileAnyIsOred(t *testing.T) {
	pred, dropped := Compile(FilterSet{Any: []Filter{
		{Key: "symbol_type", Op: OpEquals, Value: "function"},
		{Key: "symbol_type", Op: OpEquals, Value: "method"},
	}})
	require.Empty(t, dropped)
	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	require.Contains(t, sql, "OR")
	require.Len(t, args, 2)
}
