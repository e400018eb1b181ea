package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/scipsym/internal/searcher"
	"github.com/dshills/scipsym/internal/storage"
)

type searchOptions struct {
	limit        int
	mode         string
	schemes      []string
	kinds        []string
	includeLocal bool
	json         bool
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <file.scip> <query>",
		Short: "Search the symbols of an ingested index",
		Args:  cobra.ExactArgs(2),
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

			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			index, err := store.GetIndex(cmd.Context(), absPath)
			if err != nil {
				return fmt.Errorf("index %s not found in catalog (run scipsym index first): %w", args[0], err)
			}

			s := searcher.NewSearcher(store, cfg.Search.CacheSize)
			resp, err := s.Search(cmd.Context(), searcher.SearchRequest{
				Query:   args[1],
				Limit:   opts.limit,
				Mode:    searcher.SearchMode(opts.mode),
				IndexID: index.ID,
				Filters: &storage.SearchFilters{
					Schemes:      opts.schemes,
					Kinds:        opts.kinds,
					IncludeLocal: opts.includeLocal,
				},
			})
			if err != nil {
				return err
			}

			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp.Results)
			}
			printResults(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 10, "maximum number of results (1-100)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(searcher.SearchModeKeyword), "keyword or exact")
	cmd.Flags().StringSliceVar(&opts.schemes, "scheme", nil, "only symbols with this scheme (repeatable)")
	cmd.Flags().StringSliceVar(&opts.kinds, "kind", nil, "only symbols whose last descriptor has this kind (repeatable)")
	cmd.Flags().BoolVar(&opts.includeLocal, "include-local", false, "include document-local symbols")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")

	return cmd
}

func printResults(out io.Writer, resp *searcher.SearchResponse) {
	if resp.TotalResults == 0 {
		fmt.Fprintln(out, "No results")
		return
	}

	for _, r := range resp.Results {
		fmt.Fprintf(out, "%2d. %s (%.2f)\n", r.Rank, r.Symbol, r.RelevanceScore)
		for _, def := range r.Definitions {
			fmt.Fprintf(out, "    %s:%d:%d\n", def.Path, def.Range.Start.Line, def.Range.Start.Column)
		}
	}
}
