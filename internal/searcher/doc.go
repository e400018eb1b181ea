// Package searcher answers symbol queries against the catalog.
//
// Two search modes are supported:
//   - Keyword: BM25 full-text search over display names, descriptor paths,
//     package names and documentation (default)
//   - Exact: raw SCIP symbol text, matched exactly or as a prefix
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, 0)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    IndexID: index.ID,
//	    Query:   "IsTerminal",
//	    Limit:   10,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.Symbol, result.RelevanceScore)
//	}
//
// Exact mode is useful when the caller already holds a symbol string, for
// example one copied from another SCIP tool:
//
//	resp, _ := s.Search(ctx, searcher.SearchRequest{
//	    IndexID: index.ID,
//	    Query:   "scip-go gomod example.com/app v1 server/Server#",
//	    Mode:    searcher.SearchModeExact,
//	})
//
// An exact match scores 1. Prefix matches score by the share of the symbol
// the query covers.
//
// # Filters
//
// SearchFilters narrow results by scheme, package manager, package name and
// leaf descriptor kind. Document-local symbols are excluded unless
// IncludeLocal is set.
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache keyed by a SHA-256
// hash of the query, mode, index, limit and filters. Entries expire after
// CacheTTL (default 1 hour). Call InvalidateCache after re-ingesting an
// index.
//
// # Results
//
// Every result carries the decoded symbol, its package rendered as
// "manager name version" and the locations where it is defined.
package searcher
