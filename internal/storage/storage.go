package storage

import (
	"context"
	"strings"
	"time"

	"github.com/dshills/scipsym/pkg/types"
)

// Storage defines the interface for persisting and querying SCIP symbol catalogs
type Storage interface {
	// Index operations
	CreateIndex(ctx context.Context, index *Index) error
	GetIndex(ctx context.Context, sourcePath string) (*Index, error)
	GetIndexByID(ctx context.Context, indexID int64) (*Index, error)
	UpdateIndex(ctx context.Context, index *Index) error
	ListIndexes(ctx context.Context) ([]*Index, error)

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, indexID int64, relativePath string) (*Document, error)
	GetDocumentByID(ctx context.Context, documentID int64) (*Document, error)
	ListDocuments(ctx context.Context, indexID int64) ([]*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error

	// Symbol operations
	UpsertSymbol(ctx context.Context, symbol *Symbol) error
	GetSymbol(ctx context.Context, symbolID int64) (*Symbol, error)
	GetSymbolByText(ctx context.Context, indexID, documentID int64, text string) (*Symbol, error)
	ListDescriptors(ctx context.Context, symbolID int64) ([]Descriptor, error)
	PruneGlobalSymbols(ctx context.Context, indexID int64, keep map[int64]struct{}) (int, error)
	SearchSymbols(ctx context.Context, indexID int64, query string, limit int, filters *SearchFilters) ([]SymbolResult, error)
	LookupSymbols(ctx context.Context, indexID int64, prefix string, limit int, filters *SearchFilters) ([]*Symbol, error)

	// Occurrence operations
	InsertOccurrence(ctx context.Context, occ *Occurrence) error
	ListOccurrencesByDocument(ctx context.Context, documentID int64) ([]*Occurrence, error)
	ListOccurrencesBySymbol(ctx context.Context, symbolID int64) ([]*Occurrence, error)
	DeleteOccurrencesByDocument(ctx context.Context, documentID int64) error

	// Status operations
	GetStatus(ctx context.Context, indexID int64) (*IndexStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// GlobalDocumentID is the document ID recorded for symbols that are not
// scoped to a single document
const GlobalDocumentID int64 = 0

// Index represents one ingested .scip file
type Index struct {
	ID             int64
	SourcePath     string // Absolute path of the .scip file
	ProjectRoot    string
	ToolName       string
	ToolVersion    string
	ContentHash    [32]byte
	TotalDocuments int
	TotalSymbols   int
	IndexVersion   string
	LastIndexedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Document represents a source file described by an index
type Document struct {
	ID              int64
	IndexID         int64
	RelativePath    string
	Language        string
	ContentHash     [32]byte
	OccurrenceCount int
	ParseError      *string // Nullable
	LastIndexedAt   time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Symbol is a catalog row for one decoded SCIP symbol.
//
// Global symbols are stored once per index with DocumentID set to
// GlobalDocumentID. Local symbols are stored per document.
type Symbol struct {
	ID             int64
	IndexID        int64
	DocumentID     int64
	Symbol         string // Raw SCIP symbol text
	IsLocal        bool
	Scheme         string
	Manager        *string // Nullable, nil for the "." placeholder
	PackageName    *string // Nullable
	PackageVersion *string // Nullable
	DescriptorPath string
	DisplayName    string
	LeafKind       string
	Documentation  string
	Descriptors    []Descriptor // Loaded by GetSymbol and GetSymbolByText
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Descriptor is one stored path segment of a global symbol
type Descriptor struct {
	SymbolID      int64
	Position      int
	Name          string
	Kind          string
	Disambiguator string
}

// Occurrence records one mention of a symbol inside a document
type Occurrence struct {
	ID           int64
	DocumentID   int64
	SymbolID     int64
	StartLine    int
	StartCol     int
	EndLine      int
	EndCol       int
	Roles        int32
	IsDefinition bool
	DocumentPath string // Populated by list queries
	CreatedAt    time.Time
}

// SearchFilters contains filters for narrowing symbol searches
type SearchFilters struct {
	Schemes      []string // Filter by scheme
	Managers     []string // Filter by package manager
	Packages     []string // Filter by package name
	Kinds        []string // Filter by leaf descriptor kind
	IncludeLocal bool     // Include document-local symbols
}

// SymbolResult represents a result from full-text symbol search
type SymbolResult struct {
	Symbol    *Symbol
	BM25Score float64 // Normalized to (0, 1], higher is better
}

// IndexStatus contains statistics about an ingested index
type IndexStatus struct {
	Index             *Index
	DocumentsCount    int
	SymbolsCount      int
	LocalSymbolsCount int
	OccurrencesCount  int
	DefinitionsCount  int
	IndexSizeMB       float64
	LastIndexedAt     time.Time
	Health            HealthStatus
}

// HealthStatus represents the health of the catalog
type HealthStatus struct {
	DatabaseAccessible  bool
	FTSIndexesBuilt     bool
	DocumentsWithErrors int
}

// Range returns the occurrence's span as a types.Range
func (o *Occurrence) Range() types.Range {
	return types.Range{
		Start: types.Position{Line: o.StartLine, Column: o.StartCol},
		End:   types.Position{Line: o.EndLine, Column: o.EndCol},
	}
}

// ToTypesSymbol converts a storage Symbol back into its decoded form.
// Global symbols are rebuilt from the stored descriptors, so Descriptors must
// have been loaded.
func (s *Symbol) ToTypesSymbol() types.Symbol {
	if s.IsLocal {
		return &types.LocalSymbol{ID: strings.TrimPrefix(s.Symbol, "local ")}
	}

	descriptors := make([]types.Descriptor, len(s.Descriptors))
	for i, d := range s.Descriptors {
		descriptors[i] = types.Descriptor{
			Name:          d.Name,
			Kind:          types.DescriptorKind(d.Kind),
			Disambiguator: d.Disambiguator,
		}
	}

	return &types.GlobalSymbol{
		Scheme: s.Scheme,
		Package: types.Package{
			Manager: s.Manager,
			Name:    s.PackageName,
			Version: s.PackageVersion,
		},
		Descriptors: descriptors,
	}
}

// FromTypesSymbol converts a decoded symbol into a storage Symbol.
// documentID is ignored for global symbols.
func FromTypesSymbol(text string, sym types.Symbol, indexID, documentID int64) *Symbol {
	s := &Symbol{
		IndexID:     indexID,
		DocumentID:  GlobalDocumentID,
		Symbol:      text,
		DisplayName: types.DisplayName(sym),
	}

	switch v := sym.(type) {
	case *types.LocalSymbol:
		s.IsLocal = true
		s.DocumentID = documentID
	case *types.GlobalSymbol:
		s.Scheme = v.Scheme
		s.Manager = v.Package.Manager
		s.PackageName = v.Package.Name
		s.PackageVersion = v.Package.Version
		s.DescriptorPath = v.DescriptorPath()
		if leaf, ok := v.Leaf(); ok {
			s.LeafKind = string(leaf.Kind)
		}
		s.Descriptors = make([]Descriptor, len(v.Descriptors))
		for i, d := range v.Descriptors {
			s.Descriptors[i] = Descriptor{
				Position:      i,
				Name:          d.Name,
				Kind:          string(d.Kind),
				Disambiguator: d.Disambiguator,
			}
		}
	}

	return s
}

// FromTypesRange fills the occurrence's span from a types.Range
func (o *Occurrence) FromTypesRange(r types.Range) {
	o.StartLine = r.Start.Line
	o.StartCol = r.Start.Column
	o.EndLine = r.End.Line
	o.EndCol = r.End.Column
}
