package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultDBPath, cfg.Storage.DBPath)
	assert.GreaterOrEqual(t, cfg.Indexer.Workers, 1)
	assert.Equal(t, DefaultBatchSize, cfg.Indexer.BatchSize)
	assert.True(t, cfg.Indexer.InferLanguage)
	assert.Equal(t, DefaultCacheSize, cfg.Search.CacheSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_LayersFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	user := writeConfig(t, dir, "user.yaml", `
storage:
  db_path: /var/lib/scipsym
indexer:
  workers: 2
  batch_size: 5
`)
	project := writeConfig(t, dir, "project.yaml", `
indexer:
  batch_size: 50
  root_prefix: repo/
  infer_language: false
`)

	cfg, err := Load(user, project)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/scipsym", cfg.Storage.DBPath)
	assert.Equal(t, 2, cfg.Indexer.Workers)
	assert.Equal(t, 50, cfg.Indexer.BatchSize)
	assert.Equal(t, "repo/", cfg.Indexer.RootPrefix)
	assert.False(t, cfg.Indexer.InferLanguage)
	assert.Equal(t, DefaultCacheSize, cfg.Search.CacheSize)
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "indexer:\n  workers: 2\n")

	t.Setenv("SCIPSYM_DB_PATH", "/tmp/catalog")
	t.Setenv("SCIPSYM_WORKERS", "8")
	t.Setenv("SCIPSYM_BATCH_SIZE", "40")
	t.Setenv("SCIPSYM_CACHE_SIZE", "10")
	t.Setenv("SCIPSYM_LANGUAGE", "Go")
	t.Setenv("SCIPSYM_INFER_LANGUAGE", "false")
	t.Setenv("SCIPSYM_ROOT_PREFIX", "src/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/catalog", cfg.Storage.DBPath)
	assert.Equal(t, 8, cfg.Indexer.Workers)
	assert.Equal(t, 40, cfg.Indexer.BatchSize)
	assert.Equal(t, 10, cfg.Search.CacheSize)
	assert.Equal(t, "Go", cfg.Indexer.DefaultLanguage)
	assert.False(t, cfg.Indexer.InferLanguage)
	assert.Equal(t, "src/", cfg.Indexer.RootPrefix)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "bad.yaml", "indexer: [unclosed")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("non-numeric env", func(t *testing.T) {
		t.Setenv("SCIPSYM_WORKERS", "many")
		_, err := Load()
		assert.ErrorContains(t, err, "SCIPSYM_WORKERS")
	})

	t.Run("non-boolean env", func(t *testing.T) {
		t.Setenv("SCIPSYM_INFER_LANGUAGE", "sometimes")
		_, err := Load()
		assert.ErrorContains(t, err, "SCIPSYM_INFER_LANGUAGE")
	})

	t.Run("invalid value", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "zero.yaml", "indexer:\n  batch_size: 0\n")
		_, err := Load(path)
		assert.ErrorContains(t, err, "batch_size")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"zero workers", func(c *Config) { c.Indexer.Workers = 0 }},
		{"negative batch size", func(c *Config) { c.Indexer.BatchSize = -1 }},
		{"zero cache size", func(c *Config) { c.Search.CacheSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseFile(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		dbPath string
		want   string
	}{
		{"~/.scipsym", filepath.Join(home, ".scipsym", DatabaseFileName)},
		{"~", filepath.Join(home, DatabaseFileName)},
		{"/data/catalog", filepath.Join("/data/catalog", DatabaseFileName)},
		{"relative/dir", filepath.Join("relative/dir", DatabaseFileName)},
		{"~user/dir", filepath.Join("~user/dir", DatabaseFileName)},
	}

	for _, tt := range tests {
		t.Run(tt.dbPath, func(t *testing.T) {
			cfg := &Config{Storage: StorageConfig{DBPath: tt.dbPath}}
			got, err := cfg.DatabaseFile()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, ".scipsym.yaml", paths[len(paths)-1])

	if home, err := os.UserHomeDir(); err == nil {
		assert.Equal(t, filepath.Join(home, ".scipsym", "config.yaml"), paths[0])
	}
}
