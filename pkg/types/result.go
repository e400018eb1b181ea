package types

// SearchResult represents a single symbol search hit with relevance information
type SearchResult struct {
	// Identification
	SymbolID int64
	Rank     int // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 // Normalized BM25 score, or 1 for exact matches

	// Metadata
	Symbol        string // Raw SCIP symbol text
	Parsed        Symbol
	DisplayName   string
	Package       string
	Documentation string
	Definitions   []Location
}

// Location is a range inside a named document
type Location struct {
	Path  string
	Range Range
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.SymbolID == 0 {
		return ErrInvalidSymbolID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Symbol == "" {
		return ErrEmptySymbol
	}

	return nil
}
