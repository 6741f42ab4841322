// Package config loads the project-level configuration file written by
// `tutopanda init` and layers environment variable overrides on top,
// following the same envOr convention used throughout the corpus's
// command-line entry points.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/keremk/tutopanda/internal/errkind"
)

// Config is the on-disk project configuration, materialized at the
// storage root by `init` and read back by every other command.
type Config struct {
	StorageDir  string `toml:"storage_dir"`
	Concurrency int    `toml:"concurrency"`
	LogLevel    string `toml:"log_level"`
}

// Default returns the configuration `init` writes when no overrides are
// given.
func Default(storageDir string) Config {
	return Config{
		StorageDir:  storageDir,
		Concurrency: 4,
		LogLevel:    "info",
	}
}

// FileName is the config file's name at the storage root.
const FileName = "tutopanda.toml"

// Load reads and decodes the config file at path, then applies
// environment variable overrides:
//
//	TUTOPANDA_STORAGE_DIR
//	TUTOPANDA_CONCURRENCY
//	TUTOPANDA_LOG_LEVEL
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errkind.New(errkind.NotInitialized, "no config file at %q; run `tutopanda init` first", path)
		}
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, errkind.Wrap(errkind.UserInput, err, "config: parse %q", path)
	}

	cfg.StorageDir = envOr("TUTOPANDA_STORAGE_DIR", cfg.StorageDir)
	cfg.Concurrency = envIntOr("TUTOPANDA_CONCURRENCY", cfg.Concurrency)
	cfg.LogLevel = envOr("TUTOPANDA_LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

// Write encodes cfg as TOML and writes it to path, overwriting any
// existing file.
func Write(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %q: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// envOr returns the environment variable value or a default.
func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envIntOr returns the environment variable as int or a default.
func envIntOr(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
