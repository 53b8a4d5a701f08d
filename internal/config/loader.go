package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads a project's configuration.
type Loader interface {
	// Load resolves configuration with precedence: defaults, then the
	// config file, then CODESEARCH_* environment variables.
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader rooted at rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, ".codesearch"))

	v.SetEnvPrefix("CODESEARCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"embedding.provider",
		"embedding.model",
		"embedding.dimensions",
		"embedding.endpoint",
		"reranker.provider",
		"reranker.endpoint",
		"reranker.api_key",
		"chunking.doc_chunk_size",
		"chunking.code_chunk_size",
		"chunking.overlap",
		"storage.cache_location",
		"storage.cache_max_age_days",
		"storage.cache_max_size_mb",
	} {
		v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file just means defaults + env vars.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.dimensions", defaults.Embedding.Dimensions)
	v.SetDefault("embedding.endpoint", defaults.Embedding.Endpoint)

	v.SetDefault("reranker.provider", defaults.Reranker.Provider)
	v.SetDefault("reranker.endpoint", defaults.Reranker.Endpoint)
	v.SetDefault("reranker.api_key", defaults.Reranker.APIKey)

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.docs", defaults.Paths.Docs)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("chunking.doc_chunk_size", defaults.Chunking.DocChunkSize)
	v.SetDefault("chunking.code_chunk_size", defaults.Chunking.CodeChunkSize)
	v.SetDefault("chunking.overlap", defaults.Chunking.Overlap)

	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.cache_location", defaults.Storage.CacheLocation)
	v.SetDefault("storage.cache_max_age_days", defaults.Storage.CacheMaxAgeDays)
	v.SetDefault("storage.cache_max_size_mb", defaults.Storage.CacheMaxSizeMB)
}

// LoadConfig loads the configuration for the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
