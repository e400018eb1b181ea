package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/scipsym/internal/indexer"
	"github.com/dshills/scipsym/internal/watcher"
)

type indexOptions struct {
	force   bool
	watch   bool
	workers int
}

func newIndexCmd(flags *globalFlags) *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index <file.scip>",
		Short: "Ingest a SCIP index into the catalog",
		Args:  cobra.ExactArgs(1),
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

			idxCfg := &indexer.Config{
				Workers:         cfg.Indexer.Workers,
				BatchSize:       cfg.Indexer.BatchSize,
				Force:           opts.force,
				DefaultLanguage: cfg.Indexer.DefaultLanguage,
				InferLanguage:   cfg.Indexer.InferLanguage,
				RootPrefix:      cfg.Indexer.RootPrefix,
			}
			if opts.workers > 0 {
				idxCfg.Workers = opts.workers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			idx := indexer.New(store)
			stats, err := idx.IndexFile(ctx, args[0], idxCfg)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), args[0], stats)

			if !opts.watch {
				return nil
			}

			// Only the first run honors --force
			idxCfg.Force = false
			return watchIndex(ctx, idx, args[0], idxCfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "re-ingest every document ignoring content hashes")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "keep running and re-ingest when the file changes")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent batches (default from config)")

	return cmd
}

// watchIndex re-ingests path whenever it changes until ctx is cancelled.
// Changes that arrive while an ingest is running are dropped; the running
// ingest or the next write picks them up.
func watchIndex(ctx context.Context, idx *indexer.Indexer, path string, cfg *indexer.Config, out io.Writer) error {
	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	var lock indexer.IndexLock
	err = w.Watch(path, func(changed string) {
		if !lock.TryAcquire() {
			log.Printf("ingest already running, skipping change to %s", changed)
			return
		}
		defer lock.Release()

		stats, err := idx.IndexFile(ctx, changed, cfg)
		if err != nil {
			log.Printf("re-index of %s failed: %v", changed, err)
			return
		}
		printStats(out, changed, stats)
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	log.Printf("Watching %s for changes (Ctrl+C to stop)", path)
	<-ctx.Done()

	// Returns after an in-flight re-index, before the caller closes storage
	if err := w.Stop(); err != nil {
		log.Printf("watcher: %v", err)
	}
	log.Println("Watcher stopped")
	return nil
}

func printStats(out io.Writer, path string, stats *indexer.Statistics) {
	if stats.Unchanged {
		fmt.Fprintf(out, "%s unchanged (%d documents)\n", path, stats.DocumentsSkipped)
		return
	}

	fmt.Fprintf(out, "Indexed %s in %v\n", path, stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  documents:   %d indexed, %d skipped, %d failed, %d removed\n",
		stats.DocumentsIndexed, stats.DocumentsSkipped, stats.DocumentsFailed, stats.DocumentsRemoved)
	fmt.Fprintf(out, "  symbols:     %d global, %d local, %d removed\n", stats.SymbolsStored, stats.LocalSymbols, stats.SymbolsRemoved)
	fmt.Fprintf(out, "  occurrences: %d\n", stats.OccurrencesStored)
	for _, msg := range stats.ErrorMessages {
		log.Printf("warning: %s", msg)
	}
}
