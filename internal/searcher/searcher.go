package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/scipsym/internal/parser"
	"github.com/dshills/scipsym/internal/storage"
	"github.com/dshills/scipsym/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeKeyword SearchMode = "keyword" // BM25 text search over names, paths and docs
	SearchModeExact   SearchMode = "exact"   // Raw symbol text, equal or prefix
)

// DefaultCacheSize is the number of responses kept when NewSearcher gets no size
const DefaultCacheSize = 1000

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query    string
	Limit    int
	Mode     SearchMode
	Filters  *storage.SearchFilters
	IndexID  int64
	UseCache bool // Whether to use query cache
	CacheTTL time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	SearchMode   SearchMode
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs symbol queries against the catalog
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance. A cacheSize of zero or less
// uses DefaultCacheSize.
func NewSearcher(storage storage.Storage, cacheSize int) *Searcher {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	// Cache will automatically evict least recently used entries
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// This should never happen with a positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage: storage,
		cache:   cache,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if s.storage == nil {
		return nil, fmt.Errorf("storage not initialized")
	}

	// Validate request
	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	// Check cache if enabled
	if req.UseCache {
		cached, err := s.checkCache(ctx, req)
		if err == nil && cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var ranked []rankedResult
	var err error

	switch req.Mode {
	case SearchModeKeyword:
		ranked, err = s.keywordSearch(ctx, req)
	case SearchModeExact:
		ranked, err = s.exactSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	results, err := s.fetchResults(ctx, ranked)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		SearchMode:   req.Mode,
		Duration:     time.Since(startTime),
	}

	// Store in cache if enabled
	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// rankedResult is a catalog symbol with its relevance score
type rankedResult struct {
	symbol *storage.Symbol
	score  float64
}

// keywordSearch performs BM25 text search
func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest) ([]rankedResult, error) {
	hits, err := s.storage.SearchSymbols(ctx, req.IndexID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(hits))
	for i, hit := range hits {
		ranked[i] = rankedResult{symbol: hit.Symbol, score: hit.BM25Score}
	}
	return ranked, nil
}

// exactSearch matches raw symbol text. An exact match scores 1; a prefix
// match scores by how much of the symbol the query covers.
func (s *Searcher) exactSearch(ctx context.Context, req SearchRequest) ([]rankedResult, error) {
	symbols, err := s.storage.LookupSymbols(ctx, req.IndexID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(symbols))
	for i, sym := range symbols {
		score := 1.0
		if sym.Symbol != req.Query {
			score = float64(len(req.Query)) / float64(len(sym.Symbol))
		}
		ranked[i] = rankedResult{symbol: sym, score: score}
	}
	return ranked, nil
}

// fetchResults builds search results with their definition sites
func (s *Searcher) fetchResults(ctx context.Context, ranked []rankedResult) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, len(ranked))

	for i, rr := range ranked {
		sym := rr.symbol

		definitions, err := s.definitions(ctx, sym.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load definitions: %w", err)
		}

		results = append(results, types.SearchResult{
			SymbolID:       sym.ID,
			Rank:           i + 1,
			RelevanceScore: rr.score,
			Symbol:         sym.Symbol,
			Parsed:         parser.ParseSymbol(sym.Symbol),
			DisplayName:    sym.DisplayName,
			Package:        formatPackage(sym),
			Documentation:  sym.Documentation,
			Definitions:    definitions,
		})
	}

	return results, nil
}

// definitions returns the locations where a symbol is defined
func (s *Searcher) definitions(ctx context.Context, symbolID int64) ([]types.Location, error) {
	occurrences, err := s.storage.ListOccurrencesBySymbol(ctx, symbolID)
	if err != nil {
		return nil, err
	}

	locations := make([]types.Location, 0)
	for _, occ := range occurrences {
		if !occ.IsDefinition {
			continue
		}
		locations = append(locations, types.Location{Path: occ.DocumentPath, Range: occ.Range()})
	}
	return locations, nil
}

// formatPackage joins the present package fields with spaces
func formatPackage(sym *storage.Symbol) string {
	parts := make([]string, 0, 3)
	for _, field := range []*string{sym.Manager, sym.PackageName, sym.PackageVersion} {
		if field != nil && *field != "" {
			parts = append(parts, *field)
		}
	}
	return strings.Join(parts, " ")
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.IndexID <= 0 {
		return fmt.Errorf("index ID must be positive")
	}

	if req.Limit <= 0 {
		req.Limit = 10 // Default limit
	}

	if req.Limit > 100 {
		req.Limit = 100 // Max limit
	}

	if req.Mode == "" {
		req.Mode = SearchModeKeyword // Default mode
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour // Default TTL
	}

	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)

	if !found {
		s.cacheMu.RUnlock()
		return nil, fmt.Errorf("cache miss")
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		// Remove expired entry - need write lock
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, fmt.Errorf("cache expired")
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response, nil
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	hash := computeQueryHash(req)

	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse.
// Parsed symbols are shared; nothing mutates them after decoding.
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		SearchMode:   src.SearchMode,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.SearchResult, len(src.Results)),
	}

	for i, result := range src.Results {
		dst.Results[i] = result
		if result.Definitions != nil {
			dst.Results[i].Definitions = append([]types.Location(nil), result.Definitions...)
		}
	}

	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	// Build deterministic string representation
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d|%d", req.IndexID, req.Limit))

	// Add filters with stable serialization
	if req.Filters != nil {
		data.WriteString("|filters:")
		data.WriteString(strings.Join(req.Filters.Schemes, ","))
		data.WriteString("|")
		data.WriteString(strings.Join(req.Filters.Managers, ","))
		data.WriteString("|")
		data.WriteString(strings.Join(req.Filters.Packages, ","))
		data.WriteString("|")
		data.WriteString(strings.Join(req.Filters.Kinds, ","))
		data.WriteString(fmt.Sprintf("|%t", req.Filters.IncludeLocal))
	}

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops cached responses after an index is re-ingested.
// The LRU cannot filter by index, so the whole cache is purged.
func (s *Searcher) InvalidateCache(ctx context.Context, indexID int64) error {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
	return nil
}
