package config

import (
	"os"
	"path/filepath"
	"testing"

	"test-manifest/core/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "", cfg.Server.ApiKey)
	assert.Equal(t, ".", cfg.Manifest.TestsRoot)
	assert.Equal(t, "/", cfg.Manifest.URLBase)
	assert.Equal(t, manifest.BackendFile, cfg.Manifest.Backend)
	assert.Equal(t, "MANIFEST.json", cfg.Manifest.Path)
	assert.Equal(t, 8, cfg.Manifest.Workers)
	assert.Equal(t, "manifests", cfg.Storage.Bucket)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("MANIFEST_TESTS_ROOT", "/srv/tests")
	t.Setenv("MANIFEST_BACKEND", "database")
	t.Setenv("MANIFEST_CACHE_TTL_SECONDS", "30")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/srv/tests", cfg.Manifest.TestsRoot)
	assert.Equal(t, manifest.BackendDatabase, cfg.Manifest.Backend)
	assert.Equal(t, 30, cfg.Manifest.CacheTTLSeconds)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MANIFEST_URL_BASE=/tests/\nLOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("MANIFEST_URL_BASE")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tests/", cfg.Manifest.URLBase)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := "manifest:\n  tests_root: /data/tests\n  workers: 2\nserver:\n  port: \"7000\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	t.Setenv("SERVER_PORT", "7001")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/data/tests", cfg.Manifest.TestsRoot)
	assert.Equal(t, 2, cfg.Manifest.Workers)
	assert.Equal(t, "7001", cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "/", cfg.Manifest.URLBase)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("Malformed File", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("manifest: [\n"), 0o644))

		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		t.Setenv("MANIFEST_BACKEND", "ftp")

		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "unsupported manifest backend")
	})
}
