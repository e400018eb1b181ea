package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/scipsym/internal/parser"
	"github.com/dshills/scipsym/internal/storage"
	"github.com/dshills/scipsym/pkg/types"
)

// Indexer coordinates the ingest pipeline: decode -> catalog -> store.
// It holds no per-run state, so one Indexer may serve concurrent calls.
type Indexer struct {
	storage storage.Storage
}

// Config contains configuration for the indexer
type Config struct {
	Workers         int    // Number of concurrent batches (default: runtime.NumCPU())
	BatchSize       int    // Number of documents to commit per transaction (default: 20)
	Force           bool   // Re-ingest even when content hashes match
	DefaultLanguage string // Language for documents that declare none
	InferLanguage   bool   // Guess missing languages from file extensions
	RootPrefix      string // Prepended to every document path
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	IndexID           int64
	Unchanged         bool // The .scip file matched the stored hash and was not read
	DocumentsIndexed  int
	DocumentsSkipped  int
	DocumentsFailed   int
	DocumentsRemoved  int
	SymbolsStored     int // Global symbols
	SymbolsRemoved    int // Globals the index no longer mentions
	LocalSymbols      int
	OccurrencesStored int
	ParseErrors       int
	Duration          time.Duration
	ErrorMessages     []string
}

// counters are shared by concurrent batches
type counters struct {
	indexed     atomic.Int32
	skipped     atomic.Int32
	failed      atomic.Int32
	locals      atomic.Int32
	occurrences atomic.Int32
}

// New creates a new Indexer instance
func New(storage storage.Storage) *Indexer {
	return &Indexer{
		storage: storage,
	}
}

// DefaultConfig returns the configuration used when IndexFile gets nil
func DefaultConfig() *Config {
	return &Config{
		Workers:   runtime.NumCPU(),
		BatchSize: 20,
	}
}

// IndexFile ingests a serialized SCIP index into the catalog.
//
// The file hash is recorded only when every document was stored, so a run
// with DocumentsFailed > 0 is retried in full by the next call.
func (idx *Indexer) IndexFile(ctx context.Context, indexPath string, cfg *Config) (*Statistics, error) {
	config := DefaultConfig()
	if cfg != nil {
		c := *cfg
		config = &c
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	absPath, err := filepath.Abs(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve index path: %w", err)
	}

	hash, err := computeFileHash(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash index: %w", err)
	}

	index, created, err := idx.getOrCreateIndex(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create index: %w", err)
	}
	stats.IndexID = index.ID

	if !created && !config.Force && index.ContentHash == hash {
		stats.Unchanged = true
		stats.DocumentsSkipped = index.TotalDocuments
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	p := parser.New(
		parser.WithDefaultLanguage(config.DefaultLanguage),
		parser.WithInferLanguage(config.InferLanguage),
		parser.WithRootPrefix(config.RootPrefix),
	)
	result, err := p.ParseFile(absPath)
	if err != nil {
		return nil, err
	}

	// Non-fatal decode problems are kept per document
	parseErrors := make(map[string]string)
	for _, pe := range result.Errors {
		stats.ErrorMessages = append(stats.ErrorMessages, pe.Error())
		if _, seen := parseErrors[pe.File]; !seen {
			parseErrors[pe.File] = pe.Message
		}
	}
	stats.ParseErrors = len(result.Errors)

	globalIDs, err := idx.storeGlobalSymbols(ctx, index.ID, result)
	if err != nil {
		return nil, fmt.Errorf("failed to store symbols: %w", err)
	}
	stats.SymbolsStored = len(globalIDs)

	if err := idx.indexDocuments(ctx, index, result.Documents, globalIDs, parseErrors, config, stats); err != nil {
		return nil, fmt.Errorf("failed to index documents: %w", err)
	}

	removed, err := idx.removeStaleDocuments(ctx, index.ID, result.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to remove stale documents: %w", err)
	}
	stats.DocumentsRemoved = removed

	pruned, err := idx.pruneGlobalSymbols(ctx, index.ID, globalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to prune symbols: %w", err)
	}
	stats.SymbolsRemoved = pruned

	// Update index statistics
	index.ProjectRoot = result.ProjectRoot
	index.ToolName = result.Tool.Name
	index.ToolVersion = result.Tool.Version
	if stats.DocumentsFailed == 0 {
		index.ContentHash = hash
	}
	index.TotalDocuments = len(result.Documents)
	index.TotalSymbols = len(globalIDs)
	index.LastIndexedAt = time.Now()
	if err := idx.storage.UpdateIndex(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to update index stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// getOrCreateIndex retrieves an existing index row or creates a new one
func (idx *Indexer) getOrCreateIndex(ctx context.Context, sourcePath string) (*storage.Index, bool, error) {
	index, err := idx.storage.GetIndex(ctx, sourcePath)
	if err == nil {
		return index, false, nil
	}

	if err != storage.ErrNotFound {
		return nil, false, err
	}

	index = &storage.Index{
		SourcePath:   sourcePath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateIndex(ctx, index); err != nil {
		return nil, false, err
	}

	return index, true, nil
}

// storeGlobalSymbols upserts every distinct global symbol the index mentions
// in a single transaction and returns their IDs by symbol text. Documents are
// then processed concurrently against this read-only map.
func (idx *Indexer) storeGlobalSymbols(ctx context.Context, indexID int64, result *types.ParseResult) (map[string]int64, error) {
	symbols := make(map[string]*storage.Symbol)

	addInfo := func(info *types.SymbolInfo) {
		if info.Symbol == "" || info.Parsed.IsLocal() {
			return
		}
		sym, ok := symbols[info.Symbol]
		if !ok {
			sym = storage.FromTypesSymbol(info.Symbol, info.Parsed, indexID, storage.GlobalDocumentID)
			symbols[info.Symbol] = sym
		}
		applyInfo(sym, info)
	}

	for i := range result.ExternalSymbols {
		addInfo(&result.ExternalSymbols[i])
	}
	for d := range result.Documents {
		doc := &result.Documents[d]
		for i := range doc.Symbols {
			addInfo(&doc.Symbols[i])
		}
		for _, occ := range doc.Occurrences {
			if occ.Symbol == "" || occ.Parsed.IsLocal() {
				continue
			}
			if _, ok := symbols[occ.Symbol]; !ok {
				symbols[occ.Symbol] = storage.FromTypesSymbol(occ.Symbol, occ.Parsed, indexID, storage.GlobalDocumentID)
			}
		}
	}

	texts := make([]string, 0, len(symbols))
	for text := range symbols {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make(map[string]int64, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sym := symbols[text]
		if err := tx.UpsertSymbol(ctx, sym); err != nil {
			return nil, fmt.Errorf("%s: %w", text, err)
		}
		ids[text] = sym.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

// applyInfo fills catalog fields from SymbolInformation. The first non-empty
// display name and documentation win.
func applyInfo(sym *storage.Symbol, info *types.SymbolInfo) {
	if info.DisplayName != "" && sym.DisplayName == types.DisplayName(info.Parsed) {
		sym.DisplayName = info.DisplayName
	}
	if sym.Documentation == "" && len(info.Documentation) > 0 {
		sym.Documentation = strings.Join(info.Documentation, "\n\n")
	}
}

// indexDocuments stores documents in batches concurrently
func (idx *Indexer) indexDocuments(ctx context.Context, index *storage.Index, docs []types.Document,
	globalIDs map[string]int64, parseErrors map[string]string, config *Config, stats *Statistics) error {

	// Create worker pool with semaphore
	semaphore := make(chan struct{}, config.Workers)

	var c counters

	// Use errgroup for concurrent processing with error propagation
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for i := 0; i < len(docs); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[i:end]

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			return idx.indexBatch(gctx, index, batch, globalIDs, parseErrors, config.Force, &c, &mu, stats)
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return err
	}

	stats.DocumentsIndexed = int(c.indexed.Load())
	stats.DocumentsSkipped = int(c.skipped.Load())
	stats.DocumentsFailed = int(c.failed.Load())
	stats.LocalSymbols = int(c.locals.Load())
	stats.OccurrencesStored = int(c.occurrences.Load())

	return nil
}

// indexBatch stores a batch of documents within a transaction
func (idx *Indexer) indexBatch(ctx context.Context, index *storage.Index, docs []types.Document,
	globalIDs map[string]int64, parseErrors map[string]string, force bool,
	c *counters, mu *sync.Mutex, stats *Statistics) error {

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := &docs[i]
		err := idx.indexDocument(ctx, tx, index, doc, globalIDs, parseErrors[doc.Path], force, c)
		if err != nil {
			// Drop the partial rows so the next run retries the document
			if stored, gerr := tx.GetDocument(ctx, index.ID, doc.Path); gerr == nil {
				_ = tx.DeleteDocument(ctx, stored.ID)
			}
			c.failed.Add(1)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", doc.Path, err))
			mu.Unlock()
			// Continue with other documents
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// indexDocument stores one document with its local symbols and occurrences
func (idx *Indexer) indexDocument(ctx context.Context, store storage.Storage, index *storage.Index,
	doc *types.Document, globalIDs map[string]int64, parseError string, force bool, c *counters) error {

	shouldSkip, err := idx.checkDocumentChanged(ctx, store, index.ID, doc, force)
	if err != nil {
		return err
	}
	if shouldSkip {
		c.skipped.Add(1)
		return nil
	}

	record := &storage.Document{
		IndexID:         index.ID,
		RelativePath:    doc.Path,
		Language:        doc.Language,
		ContentHash:     doc.ContentHash,
		OccurrenceCount: len(doc.Occurrences),
	}
	if parseError != "" {
		record.ParseError = &parseError
	}
	if err := store.UpsertDocument(ctx, record); err != nil {
		return err
	}

	localIDs, err := storeLocalSymbols(ctx, store, index.ID, record.ID, doc)
	if err != nil {
		return err
	}

	occurrenceCount := 0
	for _, occ := range doc.Occurrences {
		if occ.Symbol == "" {
			continue
		}

		symbolID, ok := globalIDs[occ.Symbol]
		if occ.Parsed.IsLocal() {
			symbolID, ok = localIDs[occ.Symbol]
		}
		if !ok {
			return fmt.Errorf("symbol %q was not stored", occ.Symbol)
		}

		stored := &storage.Occurrence{
			DocumentID:   record.ID,
			SymbolID:     symbolID,
			Roles:        occ.Roles,
			IsDefinition: occ.IsDefinition,
		}
		stored.FromTypesRange(occ.Range)
		if err := store.InsertOccurrence(ctx, stored); err != nil {
			return fmt.Errorf("failed to store occurrence: %w", err)
		}
		occurrenceCount++
	}

	c.indexed.Add(1)
	c.locals.Add(int32(len(localIDs)))
	c.occurrences.Add(int32(occurrenceCount))

	return nil
}

// checkDocumentChanged reports whether a stored document can be kept as is.
// A changed document is deleted so its occurrences and local symbols go with
// it.
func (idx *Indexer) checkDocumentChanged(ctx context.Context, store storage.Storage, indexID int64,
	doc *types.Document, force bool) (bool, error) {

	existing, err := store.GetDocument(ctx, indexID, doc.Path)
	if err == storage.ErrNotFound {
		// New document, needs indexing
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !force && existing.ContentHash == doc.ContentHash {
		return true, nil
	}

	if err := store.DeleteDocument(ctx, existing.ID); err != nil {
		return false, fmt.Errorf("failed to delete old document: %w", err)
	}

	return false, nil
}

// storeLocalSymbols upserts the document's local symbols and returns their IDs
func storeLocalSymbols(ctx context.Context, store storage.Storage, indexID, documentID int64,
	doc *types.Document) (map[string]int64, error) {

	symbols := make(map[string]*storage.Symbol)
	for i := range doc.Symbols {
		info := &doc.Symbols[i]
		if !info.Parsed.IsLocal() {
			continue
		}
		sym, ok := symbols[info.Symbol]
		if !ok {
			sym = storage.FromTypesSymbol(info.Symbol, info.Parsed, indexID, documentID)
			symbols[info.Symbol] = sym
		}
		applyInfo(sym, info)
	}
	for _, occ := range doc.Occurrences {
		if !occ.Parsed.IsLocal() {
			continue
		}
		if _, ok := symbols[occ.Symbol]; !ok {
			symbols[occ.Symbol] = storage.FromTypesSymbol(occ.Symbol, occ.Parsed, indexID, documentID)
		}
	}

	ids := make(map[string]int64, len(symbols))
	for text, sym := range symbols {
		if err := store.UpsertSymbol(ctx, sym); err != nil {
			return nil, fmt.Errorf("failed to store symbol: %w", err)
		}
		ids[text] = sym.ID
	}
	return ids, nil
}

// removeStaleDocuments deletes stored documents the index no longer contains
func (idx *Indexer) removeStaleDocuments(ctx context.Context, indexID int64, docs []types.Document) (int, error) {
	current := make(map[string]struct{}, len(docs))
	for i := range docs {
		current[docs[i].Path] = struct{}{}
	}

	stored, err := idx.storage.ListDocuments(ctx, indexID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, doc := range stored {
		if _, ok := current[doc.RelativePath]; ok {
			continue
		}
		if err := idx.storage.DeleteDocument(ctx, doc.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// pruneGlobalSymbols removes global symbols left over from earlier runs of
// the index. Every symbol the current run stored is in globalIDs.
func (idx *Indexer) pruneGlobalSymbols(ctx context.Context, indexID int64, globalIDs map[string]int64) (int, error) {
	keep := make(map[int64]struct{}, len(globalIDs))
	for _, id := range globalIDs {
		keep[id] = struct{}{}
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	removed, err := tx.PruneGlobalSymbols(ctx, indexID, keep)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return removed, nil
}

// computeFileHash computes SHA-256 hash of a file
func computeFileHash(filePath string) ([32]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return [32]byte{}, err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return [32]byte{}, err
	}

	var result [32]byte
	copy(result[:], hash.Sum(nil))

	return result, nil
}
