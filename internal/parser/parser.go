package parser

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path"

	"github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"github.com/dshills/scipsym/pkg/types"
)

// Parser reads serialized SCIP indexes and decodes every symbol they mention
type Parser struct {
	defaultLanguage string
	inferLanguage   bool
	rootPrefix      string
}

// Option configures a Parser
type Option func(*Parser)

// WithDefaultLanguage sets the language used for documents that declare none
// and whose language cannot be inferred
func WithDefaultLanguage(lang string) Option {
	return func(p *Parser) {
		p.defaultLanguage = lang
	}
}

// WithInferLanguage enables guessing a document's language from its file
// extension when the index does not declare one
func WithInferLanguage(enabled bool) Option {
	return func(p *Parser) {
		p.inferLanguage = enabled
	}
}

// WithRootPrefix prepends prefix to every document path
func WithRootPrefix(prefix string) Option {
	return func(p *Parser) {
		p.rootPrefix = prefix
	}
}

// New creates a new Parser instance
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads a .scip index from disk and decodes it
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	result, err := p.ParseBytes(content)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ParseBytes decodes a serialized SCIP index.
//
// Only a protobuf decoding failure is fatal. Problems local to one occurrence,
// such as a malformed range, are recorded in the result's Errors and the
// occurrence is skipped.
func (p *Parser) ParseBytes(content []byte) (*types.ParseResult, error) {
	var index scip.Index
	if err := proto.Unmarshal(content, &index); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}

	result := &types.ParseResult{
		Documents: make([]types.Document, 0, len(index.GetDocuments())),
	}

	if md := index.GetMetadata(); md != nil {
		result.ProjectRoot = md.GetProjectRoot()
		if tool := md.GetToolInfo(); tool != nil {
			result.Tool = types.ToolInfo{
				Name:      tool.GetName(),
				Version:   tool.GetVersion(),
				Arguments: tool.GetArguments(),
			}
		}
	}

	for _, doc := range index.GetDocuments() {
		result.Documents = append(result.Documents, p.convertDocument(doc, result))
	}

	result.ExternalSymbols = convertSymbols(index.GetExternalSymbols())

	return result, nil
}

// convertDocument decodes one document, recording non-fatal errors on result
func (p *Parser) convertDocument(doc *scip.Document, result *types.ParseResult) types.Document {
	docPath := p.documentPath(doc.GetRelativePath())

	out := types.Document{
		Path:        docPath,
		Language:    p.documentLanguage(doc),
		ContentHash: documentHash(doc),
		Occurrences: make([]types.Occurrence, 0, len(doc.GetOccurrences())),
		Symbols:     convertSymbols(doc.GetSymbols()),
	}

	for _, occ := range doc.GetOccurrences() {
		r, err := types.DecodeRange(occ.GetRange())
		if err != nil {
			result.AddError(docPath, err.Error())
			continue
		}

		out.Occurrences = append(out.Occurrences, types.Occurrence{
			Symbol:       occ.GetSymbol(),
			Parsed:       ParseSymbol(occ.GetSymbol()),
			Range:        r,
			Roles:        occ.GetSymbolRoles(),
			IsDefinition: occ.GetSymbolRoles()&int32(scip.SymbolRole_Definition) != 0,
		})
	}

	return out
}

func (p *Parser) documentPath(relative string) string {
	if p.rootPrefix == "" {
		return relative
	}
	return path.Join(p.rootPrefix, relative)
}

func (p *Parser) documentLanguage(doc *scip.Document) string {
	if lang := doc.GetLanguage(); lang != "" {
		return lang
	}
	if p.inferLanguage {
		if lang := InferLanguage(doc.GetRelativePath()); lang != "" {
			return lang
		}
	}
	return p.defaultLanguage
}

func convertSymbols(infos []*scip.SymbolInformation) []types.SymbolInfo {
	symbols := make([]types.SymbolInfo, 0, len(infos))
	for _, info := range infos {
		symbols = append(symbols, types.SymbolInfo{
			Symbol:        info.GetSymbol(),
			Parsed:        ParseSymbol(info.GetSymbol()),
			DisplayName:   info.GetDisplayName(),
			Documentation: info.GetDocumentation(),
		})
	}
	return symbols
}

// documentHash fingerprints a document by its deterministic encoding so that
// unchanged documents can be skipped on re-index
func documentHash(doc *scip.Document) [32]byte {
	encoded, err := proto.MarshalOptions{Deterministic: true}.Marshal(doc)
	if err != nil {
		// A document decoded from the wire always re-encodes; fall back to
		// hashing its path so the result is still stable.
		return sha256.Sum256([]byte(doc.GetRelativePath()))
	}
	return sha256.Sum256(encoded)
}
