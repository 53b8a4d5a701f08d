package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/indexer"
)

func TestDefaultReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "onnx", cfg.Embedding.Provider)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Embedding.Model)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)

	assert.Equal(t, 800, cfg.Chunking.DocChunkSize)
	assert.Equal(t, 2000, cfg.Chunking.CodeChunkSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)

	assert.NotEmpty(t, cfg.Paths.Code)
	assert.Contains(t, cfg.Paths.Code, "**/*.go")
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")

	assert.Empty(t, cfg.Reranker.Provider, "reranking is off by default")

	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestDefaultPathsCoverEveryIndexableExtension(t *testing.T) {
	cfg := Default()
	derived := cfg.ToIndexerConfig("/project", "/data").Extensions

	for ext := range indexer.DefaultExtensions() {
		assert.True(t, derived[ext], "default path globs must cover .%s", ext)
	}
}

func TestLoadUsesDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().Embedding, cfg.Embedding)
	assert.Equal(t, Default().Chunking, cfg.Chunking)
}

func TestLoadReadsProjectConfigFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".codesearch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
embedding:
  provider: remote
  model: text-embedding-3-small
  dimensions: 1536
  endpoint: https://api.example.com/v1/embeddings
chunking:
  code_chunk_size: 1500
`), 0o644))

	cfg, err := LoadConfigFromDir(root)
	require.NoError(t, err)

	assert.Equal(t, "remote", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, 1500, cfg.Chunking.CodeChunkSize)
	// Unset keys fall back to defaults.
	assert.Equal(t, 800, cfg.Chunking.DocChunkSize)
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".codesearch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
embedding:
  model: from-file
`), 0o644))

	t.Setenv("CODESEARCH_EMBEDDING_MODEL", "from-env")

	cfg, err := LoadConfigFromDir(root)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Embedding.Model)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".codesearch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("embedding: [unclosed"), 0o644))

	_, err := LoadConfigFromDir(root)
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".codesearch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
embedding:
  provider: quantum
  dimensions: -5
`), 0o644))

	_, err := LoadConfigFromDir(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProvider)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestValidateProviderSet(t *testing.T) {
	for _, provider := range []string{"onnx", "remote", "mock", ""} {
		cfg := Default()
		cfg.Embedding.Provider = provider
		if provider == "remote" {
			cfg.Embedding.Endpoint = "https://example.com/embed"
		}
		assert.NoError(t, Validate(cfg), "provider %q should validate", provider)
	}

	cfg := Default()
	cfg.Embedding.Provider = "openai"
	assert.ErrorIs(t, Validate(cfg), ErrInvalidProvider)
}

func TestValidateRemoteRequiresEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "remote"
	cfg.Embedding.Endpoint = "  "
	assert.ErrorIs(t, Validate(cfg), ErrEmptyEndpoint)
}

func TestValidateOnnxDoesNotRequireEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "onnx"
	cfg.Embedding.Endpoint = ""
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsEmptyModel(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Model = "   "
	assert.ErrorIs(t, Validate(cfg), ErrEmptyModel)
}

func TestValidateRejectsBadChunkSizes(t *testing.T) {
	cfg := Default()
	cfg.Chunking.CodeChunkSize = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidChunkSize)

	cfg = Default()
	cfg.Chunking.Overlap = -1
	assert.ErrorIs(t, Validate(cfg), ErrInvalidOverlap)

	cfg = Default()
	cfg.Chunking.Overlap = cfg.Chunking.DocChunkSize
	assert.ErrorIs(t, Validate(cfg), ErrInvalidOverlap)
}

func TestValidateRerankerProviders(t *testing.T) {
	cfg := Default()
	cfg.Reranker.Provider = "http"
	assert.ErrorIs(t, Validate(cfg), ErrInvalidReranker, "http reranker without endpoint must fail")

	cfg.Reranker.Endpoint = "https://example.com/rerank"
	assert.NoError(t, Validate(cfg))

	cfg = Default()
	cfg.Reranker.Provider = "bert-service"
	assert.ErrorIs(t, Validate(cfg), ErrInvalidReranker)
}

func TestValidateRejectsNegativeCacheLimits(t *testing.T) {
	cfg := Default()
	cfg.Storage.CacheMaxAgeDays = -1
	assert.ErrorIs(t, Validate(cfg), ErrInvalidCacheSettings)

	cfg = Default()
	cfg.Storage.CacheMaxSizeMB = -0.5
	assert.ErrorIs(t, Validate(cfg), ErrInvalidCacheSettings)
}

func TestValidateReportsAllProblemsAtOnce(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "quantum"
	cfg.Embedding.Model = ""
	cfg.Chunking.CodeChunkSize = -3

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProvider)
	assert.ErrorIs(t, err, ErrEmptyModel)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}
