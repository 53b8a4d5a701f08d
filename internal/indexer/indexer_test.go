package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/embed"
	"github.com/codesearch/hybrid-search/internal/store"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestIndexer(t *testing.T, root string) *Indexer {
	t.Helper()
	cfg := DefaultConfig(root, t.TempDir())
	idx, err := New(cfg, "mock", "mock-v1", embed.NewMockProvider(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

const sampleGo = `package sample

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`

func TestIndexFull_IndexesAllFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)
	writeFile(t, root, "README.md", "# title\n\nsome docs\n")

	idx := newTestIndexer(t, root)
	result, err := idx.IndexFull(context.Background())
	require.NoError(t, err)
	require.Equal(t, ModeFull, result.Mode)
	require.Equal(t, 2, result.Files)
	require.Empty(t, result.Errors)

	stats, err := idx.Stats()
	require.NoError(t, err)
	require.Greater(t, stats.RowCount, 0)
}

func TestIndexIncremental_SkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexFull(context.Background())
	require.NoError(t, err)

	result, err := idx.IndexIncremental(context.Background())
	require.NoError(t, err)
	require.Equal(t, ModeIncremental, result.Mode)
	require.Equal(t, 0, result.Files)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 0, result.Removed)
}

func TestIndexIncremental_ReindexesEditedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexFull(context.Background())
	require.NoError(t, err)

	statsBefore, err := idx.Stats()
	require.NoError(t, err)

	writeFile(t, root, "a.go", sampleGo+"\nfunc Mul(a, b int) int {\n\treturn a * b\n}\n")

	result, err := idx.IndexIncremental(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Files)
	require.Equal(t, 0, result.Skipped)

	statsAfter, err := idx.Stats()
	require.NoError(t, err)
	require.Greater(t, statsAfter.RowCount, statsBefore.RowCount)
}

func TestIndexIncremental_RemovesDeletedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)
	writeFile(t, root, "b.go", sampleGo)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexFull(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.go")))

	result, err := idx.IndexIncremental(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Removed)
	require.Equal(t, 1, result.Skipped)

	stats, err := idx.Stats()
	require.NoError(t, err)
	require.Equal(t, "mock-v1", stats.Embeddings.Model)

	verify, err := idx.Verify(context.Background())
	require.NoError(t, err)
	require.Empty(t, verify.Removed)
	require.Equal(t, 1, verify.Files)
}

func TestIndexIncremental_TouchWithoutContentChangeSkips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexFull(context.Background())
	require.NoError(t, err)

	// Rewrite identical content: mtime changes, hash does not.
	writeFile(t, root, "a.go", sampleGo)

	result, err := idx.IndexIncremental(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 0, result.Files)
}

func TestIndexIncremental_CompatibilityKeyChangePromotesFullRebuild(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)

	dataDir := t.TempDir()
	cfg := DefaultConfig(root, dataDir)

	idx1, err := New(cfg, "mock", "mock-v1", embed.NewMockProvider(), nil)
	require.NoError(t, err)
	_, err = idx1.IndexFull(context.Background())
	require.NoError(t, err)
	require.NoError(t, idx1.Close())

	// A different provider/model name changes the compatibility key even
	// though the mock's vector width is unchanged; the prior collection must
	// not silently mix with rows produced under the new key.
	idx2, err := New(cfg, "mock", "mock-v2", embed.NewMockProvider(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx2.Close() })

	result, err := idx2.IndexIncremental(context.Background())
	require.NoError(t, err)
	require.Equal(t, ModeFull, result.Mode)
	require.Equal(t, 1, result.Files)
}

func TestUpdateFileAndRemoveFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)
	writeFile(t, root, "b.go", sampleGo)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexFull(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "a.go", sampleGo+"\nfunc Mul(a, b int) int {\n\treturn a * b\n}\n")
	require.NoError(t, idx.UpdateFile(context.Background(), "a.go"))

	require.NoError(t, os.Remove(filepath.Join(root, "b.go")))
	require.NoError(t, idx.RemoveFile(context.Background(), "b.go"))

	verify, err := idx.Verify(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, verify.Files)
	require.Empty(t, verify.Changed)
}

func TestChunkIdentityStableAcrossIncrementalRuns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", sampleGo)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexFull(context.Background())
	require.NoError(t, err)

	before, _, err := idx.store.List(store.FilterSet{}, 0)
	require.NoError(t, err)
	idsBefore := make(map[string]bool, len(before))
	for _, row := range before {
		idsBefore[row.ID] = true
	}

	_, err = idx.IndexIncremental(context.Background())
	require.NoError(t, err)

	after, _, err := idx.store.List(store.FilterSet{}, 0)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for _, row := range after {
		require.True(t, idsBefore[row.ID], "chunk id %s changed identity across a no-op incremental run", row.ID)
	}
}
