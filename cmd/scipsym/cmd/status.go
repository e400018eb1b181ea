package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [file.scip]",
		Short: "Show catalog statistics for one index, or list all indexes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				indexes, err := store.ListIndexes(ctx)
				if err != nil {
					return err
				}
				if len(indexes) == 0 {
					fmt.Fprintln(out, "No indexes in catalog")
				}
				for _, index := range indexes {
					fmt.Fprintf(out, "%s\t%d documents\t%d symbols\n", index.SourcePath, index.TotalDocuments, index.TotalSymbols)
				}
				return nil
			}

			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			index, err := store.GetIndex(ctx, absPath)
			if err != nil {
				return fmt.Errorf("index %s not found in catalog: %w", args[0], err)
			}

			status, err := store.GetStatus(ctx, index.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Index:        %s\n", index.SourcePath)
			fmt.Fprintf(out, "Tool:         %s %s\n", index.ToolName, index.ToolVersion)
			fmt.Fprintf(out, "Project root: %s\n", index.ProjectRoot)
			fmt.Fprintf(out, "Indexed at:   %s\n", index.LastIndexedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Documents:    %d (%d with errors)\n", status.DocumentsCount, status.Health.DocumentsWithErrors)
			fmt.Fprintf(out, "Symbols:      %d global, %d local\n", status.SymbolsCount, status.LocalSymbolsCount)
			fmt.Fprintf(out, "Occurrences:  %d (%d definitions)\n", status.OccurrencesCount, status.DefinitionsCount)
			fmt.Fprintf(out, "Catalog size: %.2f MB\n", status.IndexSizeMB)
			return nil
		},
	}
}
