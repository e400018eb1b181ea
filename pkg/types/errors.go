package types

import "errors"

// Domain errors for type validation
var (
	// Symbol errors
	ErrInvalidDescriptorKind   = errors.New("invalid descriptor kind")
	ErrUnexpectedDisambiguator = errors.New("only method descriptors carry a disambiguator")
	ErrInvalidRange            = errors.New("bad range")

	// Search result errors
	ErrInvalidSymbolID       = errors.New("invalid symbol ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrEmptySymbol           = errors.New("symbol cannot be empty")
)
