package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/scipsym/internal/config"
	"github.com/dshills/scipsym/internal/storage"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	dbPath     string
}

// NewRootCmd builds the scipsym command tree
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "scipsym",
		Short:         "scipsym decodes SCIP symbols and searches SCIP indexes",
		Long:          "Parse SCIP symbol strings, convert .scip files to JSON, and keep a searchable catalog of their symbols.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.scipsym/config.yaml and ./.scipsym.yaml)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "catalog directory (overrides storage.db_path)")

	root.AddCommand(newParseCmd())
	root.AddCommand(newConvertCmd(flags))
	root.AddCommand(newIndexCmd(flags))
	root.AddCommand(newSearchCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

// loadConfig layers the default files, an explicit --config file and --db
func (f *globalFlags) loadConfig() (*config.Config, error) {
	paths := config.DefaultPaths()
	if f.configPath != "" {
		if _, err := os.Stat(f.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		paths = append(paths, f.configPath)
	}

	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}

	if f.dbPath != "" {
		cfg.Storage.DBPath = f.dbPath
	}
	return cfg, nil
}

// openStorage opens the catalog named by cfg, creating its directory
func openStorage(cfg *config.Config) (storage.Storage, error) {
	dbFile, err := cfg.DatabaseFile()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return store, nil
}
