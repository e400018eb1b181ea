// Package config loads scipsym settings from defaults, YAML files and the
// environment, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDBPath is the default directory for the catalog database
	DefaultDBPath = "~/.scipsym"
	// DatabaseFileName is the catalog file created inside DBPath
	DatabaseFileName = "scipsym.db"
	// DefaultBatchSize is the number of documents stored per transaction
	DefaultBatchSize = 20
	// DefaultCacheSize is the number of search responses kept in memory
	DefaultCacheSize = 1000
)

// Config holds every tunable setting
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Indexer IndexerConfig `yaml:"indexer"`
	Search  SearchConfig  `yaml:"search"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

type IndexerConfig struct {
	Workers         int    `yaml:"workers"`
	BatchSize       int    `yaml:"batch_size"`
	DefaultLanguage string `yaml:"default_language"`
	InferLanguage   bool   `yaml:"infer_language"`
	RootPrefix      string `yaml:"root_prefix"`
}

type SearchConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: DefaultDBPath,
		},
		Indexer: IndexerConfig{
			Workers:       runtime.NumCPU(),
			BatchSize:     DefaultBatchSize,
			InferLanguage: true,
		},
		Search: SearchConfig{
			CacheSize: DefaultCacheSize,
		},
	}
}

// DefaultPaths returns the user and project config files, lowest priority
// first. The user file is omitted when the home directory is unknown.
func DefaultPaths() []string {
	paths := make([]string, 0, 2)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".scipsym", "config.yaml"))
	}
	return append(paths, ".scipsym.yaml")
}

// Load starts from Default, applies each YAML file that exists and then the
// SCIPSYM_* environment variables
func Load(paths ...string) (*Config, error) {
	cfg := Default()

	for _, path := range paths {
		if err := loadYAMLFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) error {
	if v := os.Getenv("SCIPSYM_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("SCIPSYM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCIPSYM_WORKERS: %w", err)
		}
		cfg.Indexer.Workers = n
	}
	if v := os.Getenv("SCIPSYM_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCIPSYM_BATCH_SIZE: %w", err)
		}
		cfg.Indexer.BatchSize = n
	}
	if v := os.Getenv("SCIPSYM_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCIPSYM_CACHE_SIZE: %w", err)
		}
		cfg.Search.CacheSize = n
	}
	if v := os.Getenv("SCIPSYM_LANGUAGE"); v != "" {
		cfg.Indexer.DefaultLanguage = v
	}
	if v := os.Getenv("SCIPSYM_INFER_LANGUAGE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("SCIPSYM_INFER_LANGUAGE: %w", err)
		}
		cfg.Indexer.InferLanguage = b
	}
	if v := os.Getenv("SCIPSYM_ROOT_PREFIX"); v != "" {
		cfg.Indexer.RootPrefix = v
	}
	return nil
}

// Validate rejects settings the indexer and searcher cannot run with
func (c *Config) Validate() error {
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path must not be empty")
	}
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer.workers must be at least 1, got %d", c.Indexer.Workers)
	}
	if c.Indexer.BatchSize < 1 {
		return fmt.Errorf("indexer.batch_size must be at least 1, got %d", c.Indexer.BatchSize)
	}
	if c.Search.CacheSize < 1 {
		return fmt.Errorf("search.cache_size must be at least 1, got %d", c.Search.CacheSize)
	}
	return nil
}

// DatabaseFile returns the catalog file path with a leading ~ expanded
func (c *Config) DatabaseFile() (string, error) {
	dir, err := expandHome(c.Storage.DBPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFileName), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
