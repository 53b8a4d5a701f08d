package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadGlobalConfig loads ~/.codesearch/config.yml, falling back to
// defaults when the file doesn't exist. CODESEARCH_* environment
// variables override file values.
func LoadGlobalConfig() (*GlobalConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return LoadGlobalConfigFrom(filepath.Join(home, ".codesearch"))
}

// LoadGlobalConfigFrom loads global configuration from dir/config.yml.
// Split out from LoadGlobalConfig so tests don't have to write under the
// real home directory.
func LoadGlobalConfigFrom(dir string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("CODESEARCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("models.dir")
	v.BindEnv("cache.base_dir")

	v.SetDefault("models.dir", filepath.Join(dir, "models"))
	v.SetDefault("cache.base_dir", filepath.Join(dir, "cache"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read global config: %w", err)
		}
	}

	cfg := &GlobalConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal global config: %w", err)
	}
	return cfg, nil
}

// SaveGlobalConfig writes cfg to dir/config.yml, creating dir if needed.
// Used by first-run setup so the file the user later edits reflects the
// defaults that were actually in effect.
func SaveGlobalConfig(dir string, cfg *GlobalConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode global config: %w", err)
	}
	tmp := filepath.Join(dir, ".config.yml.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, "config.yml"))
}

// EnsureGlobalConfig loads the global configuration, writing the default
// config.yml on first run so subsequent edits have a file to start from.
func EnsureGlobalConfig() (*GlobalConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".codesearch")

	cfg, err := LoadGlobalConfigFrom(dir)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(filepath.Join(dir, "config.yml")); os.IsNotExist(statErr) {
		if saveErr := SaveGlobalConfig(dir, cfg); saveErr != nil {
			return nil, saveErr
		}
	}
	return cfg, nil
}
