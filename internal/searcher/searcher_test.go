package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/scipsym/internal/parser"
	"github.com/dshills/scipsym/internal/storage"
	"github.com/dshills/scipsym/pkg/types"
)

const (
	terminalSymbol = "rust-analyzer cargo std 1.0 io/stdio/IsTerminal#"
	stdoutSymbol   = "rust-analyzer cargo std 1.0 io/stdio/stdout()."
)

// setupTestSearcher creates a searcher over an in-memory catalog with one
// index, one document and a few symbols
func setupTestSearcher(t *testing.T) (*Searcher, storage.Storage, *storage.Index) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	index := &storage.Index{SourcePath: "/test/index.scip", ToolName: "rust-analyzer"}
	if err := store.CreateIndex(ctx, index); err != nil {
		t.Fatalf("failed to create test index: %v", err)
	}

	doc := &storage.Document{IndexID: index.ID, RelativePath: "library/std/src/io/stdio.rs", Language: "Rust"}
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}

	terminal := addTestSymbol(t, store, index.ID, doc.ID, terminalSymbol)
	addTestSymbol(t, store, index.ID, doc.ID, stdoutSymbol)
	addTestSymbol(t, store, index.ID, doc.ID, "local terminalWidth")

	definition := &storage.Occurrence{DocumentID: doc.ID, SymbolID: terminal.ID, Roles: 1, IsDefinition: true}
	definition.FromTypesRange(types.Range{Start: types.Position{Line: 12, Column: 11}, End: types.Position{Line: 12, Column: 21}})
	reference := &storage.Occurrence{DocumentID: doc.ID, SymbolID: terminal.ID, StartLine: 40, StartCol: 5, EndLine: 40, EndCol: 15}
	for _, occ := range []*storage.Occurrence{definition, reference} {
		if err := store.InsertOccurrence(ctx, occ); err != nil {
			t.Fatalf("failed to create test occurrence: %v", err)
		}
	}

	return NewSearcher(store, 0), store, index
}

func addTestSymbol(t *testing.T, store storage.Storage, indexID, documentID int64, text string) *storage.Symbol {
	t.Helper()

	sym := storage.FromTypesSymbol(text, parser.ParseSymbol(text), indexID, documentID)
	if err := store.UpsertSymbol(context.Background(), sym); err != nil {
		t.Fatalf("failed to create test symbol: %v", err)
	}
	return sym
}

// TestNewSearcher verifies searcher creation
func TestNewSearcher(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	searcher := NewSearcher(store, 5)

	if searcher == nil {
		t.Fatal("expected non-nil searcher")
	}

	if searcher.storage != store {
		t.Error("searcher storage not set correctly")
	}

	if searcher.cache == nil {
		t.Error("searcher cache not created")
	}
}

// TestValidateRequest tests request validation
func TestValidateRequest(t *testing.T) {
	s := &Searcher{}

	tests := []struct {
		name        string
		req         SearchRequest
		expectError bool
		validate    func(t *testing.T, req *SearchRequest)
	}{
		{
			name:        "EmptyQuery",
			req:         SearchRequest{Query: "", IndexID: 1},
			expectError: true,
		},
		{
			name:        "WhitespaceQuery",
			req:         SearchRequest{Query: "  \t", IndexID: 1},
			expectError: true,
		},
		{
			name:        "MissingIndex",
			req:         SearchRequest{Query: "test"},
			expectError: true,
		},
		{
			name: "ValidBasicRequest",
			req: SearchRequest{
				Query:   "test query",
				Limit:   10,
				Mode:    SearchModeExact,
				IndexID: 1,
			},
			expectError: false,
			validate: func(t *testing.T, req *SearchRequest) {
				if req.Mode != SearchModeExact {
					t.Errorf("expected mode to be kept, got %s", req.Mode)
				}
			},
		},
		{
			name:        "ZeroLimit_DefaultsTo10",
			req:         SearchRequest{Query: "test", Limit: 0, IndexID: 1},
			expectError: false,
			validate: func(t *testing.T, req *SearchRequest) {
				if req.Limit != 10 {
					t.Errorf("expected default limit 10, got %d", req.Limit)
				}
			},
		},
		{
			name:        "NegativeLimit_DefaultsTo10",
			req:         SearchRequest{Query: "test", Limit: -5, IndexID: 1},
			expectError: false,
			validate: func(t *testing.T, req *SearchRequest) {
				if req.Limit != 10 {
					t.Errorf("expected default limit 10, got %d", req.Limit)
				}
			},
		},
		{
			name:        "ExcessiveLimit_CapsAt100",
			req:         SearchRequest{Query: "test", Limit: 500, IndexID: 1},
			expectError: false,
			validate: func(t *testing.T, req *SearchRequest) {
				if req.Limit != 100 {
					t.Errorf("expected capped limit 100, got %d", req.Limit)
				}
			},
		},
		{
			name:        "EmptyMode_DefaultsToKeyword",
			req:         SearchRequest{Query: "test", Limit: 10, IndexID: 1},
			expectError: false,
			validate: func(t *testing.T, req *SearchRequest) {
				if req.Mode != SearchModeKeyword {
					t.Errorf("expected default mode keyword, got %s", req.Mode)
				}
			},
		},
		{
			name:        "ZeroCacheTTL_DefaultsTo1Hour",
			req:         SearchRequest{Query: "test", Limit: 10, IndexID: 1},
			expectError: false,
			validate: func(t *testing.T, req *SearchRequest) {
				if req.CacheTTL != 1*time.Hour {
					t.Errorf("expected default cache TTL 1h, got %v", req.CacheTTL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validateRequest(&tt.req)

			if tt.expectError && err == nil {
				t.Fatal("expected error but got none")
			}

			if !tt.expectError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, &tt.req)
			}
		})
	}
}

// TestComputeQueryHash tests cache key derivation
func TestComputeQueryHash(t *testing.T) {
	base := SearchRequest{Query: "test", Mode: SearchModeKeyword, IndexID: 1, Limit: 10}

	tests := []struct {
		name     string
		req1     SearchRequest
		req2     SearchRequest
		shouldEq bool
	}{
		{
			name:     "IdenticalRequests",
			req1:     base,
			req2:     base,
			shouldEq: true,
		},
		{
			name:     "DifferentQuery",
			req1:     base,
			req2:     SearchRequest{Query: "other", Mode: SearchModeKeyword, IndexID: 1, Limit: 10},
			shouldEq: false,
		},
		{
			name:     "DifferentMode",
			req1:     base,
			req2:     SearchRequest{Query: "test", Mode: SearchModeExact, IndexID: 1, Limit: 10},
			shouldEq: false,
		},
		{
			name:     "DifferentIndex",
			req1:     base,
			req2:     SearchRequest{Query: "test", Mode: SearchModeKeyword, IndexID: 2, Limit: 10},
			shouldEq: false,
		},
		{
			name:     "DifferentLimit",
			req1:     base,
			req2:     SearchRequest{Query: "test", Mode: SearchModeKeyword, IndexID: 1, Limit: 20},
			shouldEq: false,
		},
		{
			name: "WithFilters",
			req1: SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{
				Schemes: []string{"scip-go"}, Kinds: []string{"type", "method"}, IncludeLocal: true,
			}},
			req2: SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{
				Schemes: []string{"scip-go"}, Kinds: []string{"type", "method"}, IncludeLocal: true,
			}},
			shouldEq: true,
		},
		{
			name:     "DifferentFilters",
			req1:     SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{Kinds: []string{"type"}}},
			req2:     SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{Kinds: []string{"method"}}},
			shouldEq: false,
		},
		{
			name:     "IncludeLocalDiffers",
			req1:     SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{}},
			req2:     SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{IncludeLocal: true}},
			shouldEq: false,
		},
		{
			name:     "OneWithFiltersOneWithout",
			req1:     SearchRequest{Query: "test", IndexID: 1, Filters: &storage.SearchFilters{Kinds: []string{"type"}}},
			req2:     SearchRequest{Query: "test", IndexID: 1},
			shouldEq: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equal := computeQueryHash(tt.req1) == computeQueryHash(tt.req2)

			if tt.shouldEq && !equal {
				t.Error("expected hashes to be equal but they differ")
			}

			if !tt.shouldEq && equal {
				t.Error("expected hashes to differ but they are equal")
			}
		})
	}
}

// TestCache tests storing, reading, expiring and invalidating responses
func TestCache(t *testing.T) {
	s := NewSearcher(nil, 10)
	ctx := context.Background()

	req := SearchRequest{Query: "test", Mode: SearchModeKeyword, IndexID: 1, CacheTTL: time.Hour}
	resp := &SearchResponse{
		Results: []types.SearchResult{{
			SymbolID:    1,
			Rank:        1,
			Symbol:      "local 1",
			Definitions: []types.Location{{Path: "a.go"}},
		}},
		TotalResults: 1,
	}

	if _, err := s.checkCache(ctx, req); err == nil {
		t.Fatal("expected cache miss on empty cache")
	}

	s.storeInCache(req, resp)

	// Mutating the original must not leak into the cache
	resp.Results[0].Definitions[0].Path = "changed.go"

	cached, err := s.checkCache(ctx, req)
	if err != nil {
		t.Fatalf("expected cache hit: %v", err)
	}
	if cached.Results[0].Definitions[0].Path != "a.go" {
		t.Errorf("cached response was modified: %s", cached.Results[0].Definitions[0].Path)
	}

	expired := req
	expired.Query = "expired"
	expired.CacheTTL = -time.Second
	s.storeInCache(expired, resp)
	if _, err := s.checkCache(ctx, expired); err == nil {
		t.Error("expected expired entry to miss")
	}

	if err := s.InvalidateCache(ctx, 1); err != nil {
		t.Fatalf("unexpected error from InvalidateCache: %v", err)
	}
	if _, err := s.checkCache(ctx, req); err == nil {
		t.Error("expected cache miss after invalidation")
	}
}

// TestCacheEvictsLeastRecentlyUsed tests that a full cache drops only the
// least recently used response
func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewSearcher(nil, 2)
	ctx := context.Background()

	reqs := make([]SearchRequest, 3)
	for i, q := range []string{"a", "b", "c"} {
		reqs[i] = SearchRequest{Query: q, IndexID: 1, CacheTTL: time.Hour}
	}

	s.storeInCache(reqs[0], &SearchResponse{TotalResults: 1})
	s.storeInCache(reqs[1], &SearchResponse{TotalResults: 2})

	// touch "a" so "b" becomes the oldest
	if _, err := s.checkCache(ctx, reqs[0]); err != nil {
		t.Fatalf("expected cache hit for a: %v", err)
	}
	s.storeInCache(reqs[2], &SearchResponse{TotalResults: 3})

	if s.cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.cache.Len())
	}
	if _, err := s.checkCache(ctx, reqs[1]); err == nil {
		t.Error("expected b to be evicted")
	}
	for _, req := range []SearchRequest{reqs[0], reqs[2]} {
		if _, err := s.checkCache(ctx, req); err != nil {
			t.Errorf("expected %s to stay cached: %v", req.Query, err)
		}
	}
}

// Integration tests with real storage

// TestSearchModeKeyword tests BM25 search
func TestSearchModeKeyword(t *testing.T) {
	search, _, index := setupTestSearcher(t)
	ctx := context.Background()

	resp, err := search.Search(ctx, SearchRequest{Query: "IsTerminal", IndexID: index.ID})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if resp.SearchMode != SearchModeKeyword {
		t.Errorf("expected keyword mode, got %s", resp.SearchMode)
	}
	if resp.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", resp.TotalResults)
	}

	result := resp.Results[0]
	if err := result.Validate(); err != nil {
		t.Errorf("invalid result: %v", err)
	}
	if result.Symbol != terminalSymbol {
		t.Errorf("unexpected symbol %q", result.Symbol)
	}
	if result.DisplayName != "IsTerminal" {
		t.Errorf("unexpected display name %q", result.DisplayName)
	}
	if result.Package != "cargo std 1.0" {
		t.Errorf("unexpected package %q", result.Package)
	}
	if result.Parsed == nil || result.Parsed.String() != terminalSymbol {
		t.Errorf("parsed symbol does not round-trip: %v", result.Parsed)
	}

	if len(result.Definitions) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(result.Definitions))
	}
	def := result.Definitions[0]
	if def.Path != "library/std/src/io/stdio.rs" || def.Range.Start.Line != 12 || def.Range.Start.Column != 11 {
		t.Errorf("unexpected definition %+v", def)
	}
}

// TestSearchModeKeywordFilters tests filters and local symbols
func TestSearchModeKeywordFilters(t *testing.T) {
	search, _, index := setupTestSearcher(t)
	ctx := context.Background()

	resp, err := search.Search(ctx, SearchRequest{
		Query:   "stdio",
		IndexID: index.ID,
		Filters: &storage.SearchFilters{Kinds: []string{"method"}},
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if resp.TotalResults != 1 || resp.Results[0].Symbol != stdoutSymbol {
		t.Errorf("expected only stdout, got %+v", resp.Results)
	}

	resp, err = search.Search(ctx, SearchRequest{Query: "terminal", IndexID: index.ID})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if resp.TotalResults != 0 {
		t.Errorf("expected local symbols to be excluded, got %d results", resp.TotalResults)
	}

	resp, err = search.Search(ctx, SearchRequest{
		Query:   "terminal",
		IndexID: index.ID,
		Filters: &storage.SearchFilters{IncludeLocal: true},
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if resp.TotalResults != 1 || !resp.Results[0].Parsed.IsLocal() {
		t.Errorf("expected the local symbol, got %+v", resp.Results)
	}
}

// TestSearchModeExact tests symbol text lookup
func TestSearchModeExact(t *testing.T) {
	search, _, index := setupTestSearcher(t)
	ctx := context.Background()

	resp, err := search.Search(ctx, SearchRequest{Query: terminalSymbol, Mode: SearchModeExact, IndexID: index.ID})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if resp.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", resp.TotalResults)
	}
	if resp.Results[0].RelevanceScore != 1.0 {
		t.Errorf("expected exact match to score 1, got %f", resp.Results[0].RelevanceScore)
	}

	prefix := "rust-analyzer cargo std 1.0 io/stdio/"
	resp, err = search.Search(ctx, SearchRequest{Query: prefix, Mode: SearchModeExact, IndexID: index.ID})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if resp.TotalResults != 2 {
		t.Fatalf("expected 2 results, got %d", resp.TotalResults)
	}
	for i, result := range resp.Results {
		if result.Rank != i+1 {
			t.Errorf("expected rank %d, got %d", i+1, result.Rank)
		}
		if result.RelevanceScore <= 0 || result.RelevanceScore >= 1 {
			t.Errorf("expected prefix score in (0, 1), got %f", result.RelevanceScore)
		}
	}
}

// TestSearchWithUnsupportedMode tests mode validation
func TestSearchWithUnsupportedMode(t *testing.T) {
	search, _, index := setupTestSearcher(t)

	_, err := search.Search(context.Background(), SearchRequest{Query: "test", Mode: "vector", IndexID: index.ID})
	if err == nil {
		t.Error("expected error for unsupported mode")
	}
}

// TestSearchWithoutStorage tests that a searcher needs a catalog
func TestSearchWithoutStorage(t *testing.T) {
	s := NewSearcher(nil, 1)

	_, err := s.Search(context.Background(), SearchRequest{Query: "test", IndexID: 1})
	if err == nil {
		t.Error("expected error without storage")
	}
}

// TestSearchWithCache tests cache hits on repeated queries
func TestSearchWithCache(t *testing.T) {
	search, _, index := setupTestSearcher(t)
	ctx := context.Background()

	req := SearchRequest{Query: "IsTerminal", IndexID: index.ID, UseCache: true}

	first, err := search.Search(ctx, req)
	if err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	if first.CacheHit {
		t.Error("first search should not hit the cache")
	}

	second, err := search.Search(ctx, req)
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if !second.CacheHit {
		t.Error("second search should hit the cache")
	}
	if second.TotalResults != first.TotalResults {
		t.Errorf("cached result count %d differs from %d", second.TotalResults, first.TotalResults)
	}

	if err := search.InvalidateCache(ctx, index.ID); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	third, err := search.Search(ctx, req)
	if err != nil {
		t.Fatalf("third search failed: %v", err)
	}
	if third.CacheHit {
		t.Error("search after invalidation should not hit the cache")
	}
}

// TestFormatPackage tests package rendering
func TestFormatPackage(t *testing.T) {
	cargo, std, empty := "cargo", "std", ""

	tests := []struct {
		name string
		sym  *storage.Symbol
		want string
	}{
		{"all placeholders", &storage.Symbol{}, ""},
		{"name only", &storage.Symbol{PackageName: &std}, "std"},
		{"empty fields skipped", &storage.Symbol{Manager: &cargo, PackageName: &empty, PackageVersion: &std}, "cargo std"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPackage(tt.sym); got != tt.want {
				t.Errorf("formatPackage() = %q, want %q", got, tt.want)
			}
		})
	}
}
