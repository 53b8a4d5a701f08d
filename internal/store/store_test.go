package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenOrCreate(dir, "/project/root", 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func vec(vals ...float32) []float32 { return vals }

func sampleRow(id, file string, v []float32) model.EmbeddingRow {
	return model.EmbeddingRow{
		ID: id, Vector: v, Content: "func " + id, ContentRaw: "func " + id,
		File: file, StartLine: 1, EndLine: 3, ChunkIndex: 0,
		Type: "code", SymbolName: id, SymbolType: "function", Language: "go",
	}
}

func TestAddListSearch(t *testing.T) {
	s := newTestStore(t)

	rows := []model.EmbeddingRow{
		sampleRow("a.go:0", "a.go", vec(1, 0, 0, 0)),
		sampleRow("b.go:0", "b.go", vec(0, 1, 0, 0)),
	}
	require.NoError(t, s.AddDocuments(rows))

	listed, dropped, err := s.List(FilterSet{}, 0)
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, listed, 2)

	results, _, err := s.SearchByVector(vec(1, 0, 0, 0), FilterSet{}, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "a.go:0", results[0].Row.ID)
	require.InDelta(t, 0, results[0].Distance, 1e-6)
}

func TestSearchByVectorWrongDimension(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.SearchByVector(vec(1, 2), FilterSet{}, 5)
	require.Error(t, err)
}

func TestDeleteByFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddDocuments([]model.EmbeddingRow{
		sampleRow("a.go:0", "a.go", vec(1, 0, 0, 0)),
		sampleRow("a.go:1", "a.go", vec(0, 1, 0, 0)),
		sampleRow("b.go:0", "b.go", vec(0, 0, 1, 0)),
	}))

	require.NoError(t, s.DeleteByFile("a.go"))

	listed, _, err := s.List(FilterSet{}, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "b.go:0", listed[0].ID)
}

func TestListWithFilter(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddDocuments([]model.EmbeddingRow{
		sampleRow("a.go:0", "a.go", vec(1, 0, 0, 0)),
		sampleRow("b.py:0", "b.py", vec(0, 1, 0, 0)),
	}))

	listed, dropped, err := s.List(FilterSet{All: []Filter{{Key: "language", Op: OpEquals, Value: "go"}}}, 0)
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, listed, 1)
	require.Equal(t, "a.go:0", listed[0].ID)
}

func TestListDropsInvalidFilterKey(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddDocuments([]model.EmbeddingRow{
		sampleRow("a.go:0", "a.go", vec(1, 0, 0, 0)),
	}))

	listed, dropped, err := s.List(FilterSet{All: []Filter{{Key: "bad key!", Op: OpEquals, Value: "x"}}}, 0)
	require.NoError(t, err)
	require.Len(t, dropped, 1)
	require.Len(t, listed, 1)
}

func TestUpdateDocuments(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddDocuments([]model.EmbeddingRow{
		sampleRow("a.go:0", "a.go", vec(1, 0, 0, 0)),
	}))

	updated := sampleRow("a.go:0", "a.go", vec(0, 0, 0, 1))
	updated.Content = "func a changed"
	require.NoError(t, s.UpdateDocuments([]model.EmbeddingRow{updated}))

	listed, _, err := s.List(FilterSet{}, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "func a changed", listed[0].Content)
}

func TestDimensionMismatchOnReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenOrCreate(dir, "/project/root", 4)
	require.NoError(t, err)
	s.Close()

	_, err = OpenOrCreate(dir, "/project/root", 8)
	require.Error(t, err)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddDocuments([]model.EmbeddingRow{
		sampleRow("a.go:0", "a.go", vec(1, 0, 0, 0)),
		sampleRow("b.go:0", "b.go", vec(0, 1, 0, 0)),
	}))

	stats, err := s.GetStats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Count)
}
