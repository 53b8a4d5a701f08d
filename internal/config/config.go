package config

import (
	"fmt"

	"github.com/codesearch/hybrid-search/internal/embed"
)

// Config represents the complete per-project configuration.
// It is loaded from .codesearch/config.yml with environment variable overrides.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker" mapstructure:"reranker"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
}

// RerankerConfig configures the optional cross-encoder reranker. An empty
// Provider disables reranking regardless of a search request's rerank flag.
type RerankerConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "", "http", or "mock"
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
}

// StorageConfig configures the on-disk vector store and sidecar cache.
// SQLite is the only backend: the "backend" field is kept for config-file
// compatibility but is otherwise unused.
type StorageConfig struct {
	Backend         string  `yaml:"backend" mapstructure:"backend"`
	CacheLocation   string  `yaml:"cache_location" mapstructure:"cache_location"`
	CacheMaxAgeDays int     `yaml:"cache_max_age_days" mapstructure:"cache_max_age_days"`
	CacheMaxSizeMB  float64 `yaml:"cache_max_size_mb" mapstructure:"cache_max_size_mb"`
}

// EmbeddingConfig configures the embedding provider. Provider, Model, and
// Dimensions form the index compatibility key: changing any of them after
// an index exists forces a full rebuild.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`     // "onnx", "remote", or "mock"
	Model      string `yaml:"model" mapstructure:"model"`           // e.g., "BAAI/bge-small-en-v1.5"
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"` // embedding vector dimensions
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`     // remote provider only
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for code files
	Docs   []string `yaml:"docs" mapstructure:"docs"`     // glob patterns for documentation
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// ChunkingConfig defines how content is chunked for indexing.
type ChunkingConfig struct {
	DocChunkSize  int `yaml:"doc_chunk_size" mapstructure:"doc_chunk_size"`   // max tokens per doc chunk
	CodeChunkSize int `yaml:"code_chunk_size" mapstructure:"code_chunk_size"` // max characters per code chunk
	Overlap       int `yaml:"overlap" mapstructure:"overlap"`                 // character overlap between text chunks
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   "onnx",
			Model:      "BAAI/bge-small-en-v1.5",
			Dimensions: 384,
			Endpoint:   fmt.Sprintf("http://%s:%d/embed", embed.DefaultEmbedServerHost, embed.DefaultEmbedServerPort),
		},
		Paths: PathsConfig{
			Code: []string{
				"**/*.go",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.py",
				"**/*.rs",
				"**/*.c",
				"**/*.cpp",
				"**/*.cc",
				"**/*.h",
				"**/*.hpp",
				"**/*.cs",
				"**/*.php",
				"**/*.rb",
				"**/*.java",
				"**/*.swift",
				"**/*.kt",
				"**/*.scala",
				"**/*.vue",
				"**/*.svelte",
				"**/*.json",
				"**/*.yaml",
				"**/*.yml",
				"**/*.toml",
			},
			Docs: []string{
				"**/*.md",
				"**/*.mdx",
				"**/*.txt",
				"**/*.rst",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				"*.test",
				"*.pyc",
			},
		},
		Chunking: ChunkingConfig{
			DocChunkSize:  800,
			CodeChunkSize: 2000,
			Overlap:       200,
		},
		Storage: StorageConfig{
			Backend:         "sqlite",
			CacheMaxAgeDays: 30,
			CacheMaxSizeMB:  500.0,
		},
	}
}
