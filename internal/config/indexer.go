package config

import (
	"strings"

	"github.com/codesearch/hybrid-search/internal/indexer"
)

// ToIndexerConfig converts a Config into an indexer.Config. rootDir is the
// absolute path being indexed; dataDir is the root data directory under
// which the project's namespaced store and sidecar live.
func (c *Config) ToIndexerConfig(rootDir, dataDir string) indexer.Config {
	cfg := indexer.DefaultConfig(rootDir, dataDir)
	cfg.IgnoreGlobs = append([]string{}, c.Paths.Ignore...)

	if exts := extensionsFromGlobs(c.Paths.Code, c.Paths.Docs); len(exts) > 0 {
		cfg.Extensions = exts
	}

	return cfg
}

// extensionsFromGlobs extracts the bare extension ("go", not ".go" or
// "*.go") from each "**/*.ext"-style glob in patterns. Patterns that don't
// follow that shape are skipped rather than rejected, since the indexer's
// ignore globs already handle the general case.
func extensionsFromGlobs(patternSets ...[]string) map[string]bool {
	out := make(map[string]bool)
	for _, patterns := range patternSets {
		for _, p := range patterns {
			idx := strings.LastIndex(p, "*.")
			if idx == -1 {
				continue
			}
			ext := p[idx+2:]
			if ext == "" || strings.ContainsAny(ext, "*/") {
				continue
			}
			out[ext] = true
		}
	}
	return out
}
