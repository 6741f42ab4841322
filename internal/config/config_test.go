package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremk/tutopanda/internal/config"
	"github.com/keremk/tutopanda/internal/errkind"
)

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	cfg := config.Default(dir)
	cfg.Concurrency = 7
	require.NoError(t, config.Write(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFileIsNotInitialized(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.NotInitialized))
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, config.Write(path, config.Default(dir)))

	t.Setenv("TUTOPANDA_CONCURRENCY", "9")
	t.Setenv("TUTOPANDA_LOG_LEVEL", "debug")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Concurrency)
	assert.Equal(t, "debug", loaded.LogLevel)
}
