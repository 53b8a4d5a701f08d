package fingerprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/model"
)

func openSidecar(t *testing.T) *Sidecar {
	t.Helper()
	sc, err := Open(t.TempDir(), "/some/project/root")
	require.NoError(t, err)
	return sc
}

func TestLoadMissingSidecarReturnsEmptyMeta(t *testing.T) {
	sc := openSidecar(t)

	meta, err := sc.Load()
	require.NoError(t, err)
	assert.Equal(t, SidecarVersion, meta.Version)
	assert.NotNil(t, meta.Files)
	assert.Empty(t, meta.Files)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	sc := openSidecar(t)

	meta := model.IndexMeta{
		Root:       "/some/project/root",
		Embeddings: model.EmbeddingsKey{Provider: "mock", Model: "mock-v1", Dimension: 384},
		Files: map[string]model.FileRecord{
			"src/a.go": {
				Path:        "src/a.go",
				Size:        120,
				MtimeMs:     1700000000000,
				ContentHash: "deadbeef",
				ChunkHashes: []string{"h0", "h1"},
				CollapsibleRegions: []model.CollapsibleRegion{
					{Kind: model.RegionFunction, Name: "Add", StartLine: 3, EndLine: 5, SignatureEndLine: 3},
				},
			},
		},
	}
	require.NoError(t, sc.Save(meta))

	got, err := sc.Load()
	require.NoError(t, err)
	assert.Equal(t, SidecarVersion, got.Version)
	assert.Equal(t, meta.Root, got.Root)
	assert.Equal(t, meta.Embeddings, got.Embeddings)
	assert.Equal(t, meta.Files["src/a.go"].ChunkHashes, got.Files["src/a.go"].ChunkHashes)
	assert.Equal(t, meta.Files["src/a.go"].CollapsibleRegions, got.Files["src/a.go"].CollapsibleRegions)
	assert.NotEmpty(t, got.UpdatedAt, "Save stamps updatedAt")
}

func TestUnknownFieldsSurviveRoundTrip(t *testing.T) {
	sc := openSidecar(t)
	require.NoError(t, sc.Save(model.IndexMeta{Root: "/r", Files: map[string]model.FileRecord{}}))

	// A newer writer added a top-level field this build doesn't know.
	path := filepath.Join(sc.Dir(), SidecarFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["futureField"] = json.RawMessage(`{"nested":true}`)
	patched, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, patched, 0o644))

	meta, err := sc.Load()
	require.NoError(t, err)
	require.NoError(t, sc.Save(meta))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	var after map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &after))
	assert.JSONEq(t, `{"nested":true}`, string(after["futureField"]))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	sc := openSidecar(t)
	require.NoError(t, sc.Save(model.IndexMeta{Files: map[string]model.FileRecord{}}))

	entries, err := os.ReadDir(sc.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestSidecarsAreNamespacedByProject(t *testing.T) {
	dataDir := t.TempDir()
	a, err := Open(dataDir, "/project/a")
	require.NoError(t, err)
	b, err := Open(dataDir, "/project/b")
	require.NoError(t, err)

	require.NoError(t, a.Save(model.IndexMeta{Root: "/project/a", Files: map[string]model.FileRecord{}}))

	metaB, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, metaB.Root, "project B must not see project A's sidecar")
	assert.NotEqual(t, a.Dir(), b.Dir())
}
