package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGlobalConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadGlobalConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "models"), cfg.Models.Dir)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.Cache.BaseDir)
}

func TestLoadGlobalConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
models:
  dir: /opt/models
cache:
  base_dir: /var/cache/codesearch
`), 0o644))

	cfg, err := LoadGlobalConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "/opt/models", cfg.Models.Dir)
	assert.Equal(t, "/var/cache/codesearch", cfg.Cache.BaseDir)
}

func TestLoadGlobalConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
cache:
  base_dir: /from/file
`), 0o644))

	t.Setenv("CODESEARCH_CACHE_BASE_DIR", "/from/env")

	cfg, err := LoadGlobalConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Cache.BaseDir)
}

func TestLoadGlobalConfigRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("models: [broken"), 0o644))

	_, err := LoadGlobalConfigFrom(dir)
	require.Error(t, err)
}

func TestSaveGlobalConfigRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".codesearch")

	want := &GlobalConfig{
		Models: ModelsConfig{Dir: "/models/here"},
		Cache:  GlobalCacheConfig{BaseDir: "/cache/there"},
	}
	require.NoError(t, SaveGlobalConfig(dir, want))

	got, err := LoadGlobalConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, want.Models.Dir, got.Models.Dir)
	assert.Equal(t, want.Cache.BaseDir, got.Cache.BaseDir)

	// The temp file used for the atomic write must be gone.
	_, statErr := os.Stat(filepath.Join(dir, ".config.yml.tmp"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveGlobalConfigOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveGlobalConfig(dir, &GlobalConfig{Cache: GlobalCacheConfig{BaseDir: "/first"}}))
	require.NoError(t, SaveGlobalConfig(dir, &GlobalConfig{Cache: GlobalCacheConfig{BaseDir: "/second"}}))

	got, err := LoadGlobalConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "/second", got.Cache.BaseDir)
}
