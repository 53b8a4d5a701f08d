// Package config provides configuration loading for the search engine.
//
// Two scopes exist:
//
//  1. Global configuration (~/.codesearch/config.yml) — machine-wide
//     settings: the shared data directory every project's index lives
//     under, and the directory ONNX model files are downloaded to.
//     Loaded via LoadGlobalConfig().
//
//  2. Project configuration (.codesearch/config.yml) — per-project
//     settings: embedding provider/model/dimensions, path patterns,
//     chunking sizes, reranker selection. Loaded via LoadConfigFromDir().
//
// Precedence, highest to lowest: CODESEARCH_* environment variables, the
// config file, built-in defaults. Nested keys map to env vars with
// underscores (CODESEARCH_EMBEDDING_PROVIDER).
package config

// GlobalConfig holds machine-wide settings shared by every project on the
// machine. Loaded from ~/.codesearch/config.yml, never from a project's
// own .codesearch directory.
type GlobalConfig struct {
	Models ModelsConfig      `yaml:"models" mapstructure:"models"`
	Cache  GlobalCacheConfig `yaml:"cache" mapstructure:"cache"`
}

// ModelsConfig locates local embedding model files.
type ModelsConfig struct {
	// Dir is where ONNX model and tokenizer files are downloaded to and
	// loaded from (~/.codesearch/models by default).
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// GlobalCacheConfig holds the shared data directory settings.
type GlobalCacheConfig struct {
	// BaseDir is the root under which every project's vector store and
	// sidecar are namespaced by project hash (~/.codesearch/cache by
	// default).
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}
