package types

// ParseResult represents the output of reading a SCIP index
type ParseResult struct {
	// Index metadata
	Tool        ToolInfo
	ProjectRoot string

	// Extracted data
	Documents       []Document
	ExternalSymbols []SymbolInfo

	// Errors encountered during parsing
	Errors []ParseError
}

// ToolInfo describes the indexer that produced a SCIP index
type ToolInfo struct {
	Name      string
	Version   string
	Arguments []string
}

// Document is one source file described by a SCIP index
type Document struct {
	Path        string // Relative to the project root, with any root prefix applied
	Language    string
	ContentHash [32]byte // SHA-256 of the document's encoded form
	Occurrences []Occurrence
	Symbols     []SymbolInfo
}

// Occurrence is a single mention of a symbol inside a document
type Occurrence struct {
	Symbol       string // Raw SCIP symbol text
	Parsed       Symbol
	Range        Range
	Roles        int32
	IsDefinition bool
}

// SymbolInfo carries the metadata an index attaches to a symbol
type SymbolInfo struct {
	Symbol        string
	Parsed        Symbol
	DisplayName   string
	Documentation []string
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	if pe.File == "" {
		return pe.Message
	}
	return pe.File + ": " + pe.Message
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Message: msg,
	})
}

// OccurrenceCount returns the number of occurrences across all documents
func (pr *ParseResult) OccurrenceCount() int {
	total := 0
	for i := range pr.Documents {
		total += len(pr.Documents[i].Occurrences)
	}
	return total
}
