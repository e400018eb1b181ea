package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/scipsym/internal/indexer"
	"github.com/dshills/scipsym/internal/parser"
	"github.com/dshills/scipsym/internal/searcher"
	"github.com/dshills/scipsym/internal/storage"
	"github.com/dshills/scipsym/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexNotFound      = -32001 // Specified path is not a readable index file
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Index not ingested
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleParseSymbol handles the parse_symbol tool invocation
func (s *Server) handleParseSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["symbol"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "symbol parameter is required", map[string]interface{}{
			"param":  "symbol",
			"reason": "missing or not a string",
		})
	}

	sym := parser.ParseSymbol(text)

	response := map[string]interface{}{
		"symbol":       text,
		"parsed":       sym,
		"canonical":    sym.String(),
		"display_name": types.DisplayName(sym),
	}
	if g, ok := sym.(*types.GlobalSymbol); ok {
		if err := g.Validate(); err != nil {
			response["warning"] = err.Error()
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexSCIP handles the index_scip tool invocation
func (s *Server) handleIndexSCIP(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "another indexing operation is in progress", map[string]interface{}{
			"path": path,
		})
	}
	defer s.lock.Release()

	cfg := &indexer.Config{
		Workers:         s.config.Indexer.Workers,
		BatchSize:       s.config.Indexer.BatchSize,
		Force:           getBoolDefault(args, "force", false),
		DefaultLanguage: getStringDefault(args, "language", s.config.Indexer.DefaultLanguage),
		InferLanguage:   getBoolDefault(args, "infer_language", s.config.Indexer.InferLanguage),
		RootPrefix:      getStringDefault(args, "root_prefix", s.config.Indexer.RootPrefix),
	}

	stats, err := s.indexer.IndexFile(ctx, path, cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if !stats.Unchanged {
		if err := s.searcher.InvalidateCache(ctx, stats.IndexID); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to invalidate search cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"indexed":            true,
		"unchanged":          stats.Unchanged,
		"documents_indexed":  stats.DocumentsIndexed,
		"documents_skipped":  stats.DocumentsSkipped,
		"documents_failed":   stats.DocumentsFailed,
		"documents_removed":  stats.DocumentsRemoved,
		"symbols_stored":     stats.SymbolsStored,
		"symbols_removed":    stats.SymbolsRemoved,
		"local_symbols":      stats.LocalSymbols,
		"occurrences_stored": stats.OccurrencesStored,
		"parse_errors":       stats.ParseErrors,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := searcher.SearchMode(getStringDefault(args, "mode", string(searcher.SearchModeKeyword)))
	if mode != searcher.SearchModeKeyword && mode != searcher.SearchModeExact {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{string(searcher.SearchModeKeyword), string(searcher.SearchModeExact)},
		})
	}

	index, err := s.lookupIndex(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Limit:    limit,
		Mode:     mode,
		Filters:  parseFilters(args),
		IndexID:  index.ID,
		UseCache: true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"rank":          r.Rank,
			"score":         r.RelevanceScore,
			"symbol":        r.Symbol,
			"parsed":        r.Parsed,
			"display_name":  r.DisplayName,
			"package":       r.Package,
			"documentation": r.Documentation,
			"definitions":   formatLocations(r.Definitions),
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"mode":          string(resp.SearchMode),
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
		"results":       results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	index, err := s.storage.GetIndex(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Index not ingested. Use the index_scip tool to ingest it.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get index status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, index.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"index": map[string]interface{}{
			"path":            index.SourcePath,
			"project_root":    index.ProjectRoot,
			"tool_name":       index.ToolName,
			"tool_version":    index.ToolVersion,
			"last_indexed_at": index.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"documents_count":     status.DocumentsCount,
			"symbols_count":       status.SymbolsCount,
			"local_symbols_count": status.LocalSymbolsCount,
			"occurrences_count":   status.OccurrencesCount,
			"definitions_count":   status.DefinitionsCount,
			"index_size_mb":       fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":   status.Health.DatabaseAccessible,
			"fts_indexes_built":     status.Health.FTSIndexesBuilt,
			"documents_with_errors": status.Health.DocumentsWithErrors,
		},
		"indexing_in_progress": s.lock.Held(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// lookupIndex finds the catalog entry for an ingested .scip file
func (s *Server) lookupIndex(ctx context.Context, path string) (*storage.Index, error) {
	index, err := s.storage.GetIndex(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "index not ingested", map[string]interface{}{
			"path": path,
			"hint": "use the index_scip tool first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get index", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return index, nil
}

// requirePath extracts and validates the path parameter
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		code := ErrorCodeInvalidParams
		if errors.Is(err, ErrPathNotFound) || errors.Is(err, ErrPathNotReadable) {
			code = ErrorCodeIndexNotFound
		}
		return "", newMCPError(code, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	return filepath.Clean(path), nil
}

// parseFilters reads the optional filters object
func parseFilters(args map[string]interface{}) *storage.SearchFilters {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return nil
	}

	include, _ := raw["include_local"].(bool)
	return &storage.SearchFilters{
		Schemes:      getStringSlice(raw, "schemes"),
		Managers:     getStringSlice(raw, "managers"),
		Packages:     getStringSlice(raw, "packages"),
		Kinds:        getStringSlice(raw, "kinds"),
		IncludeLocal: include,
	}
}

func formatLocations(locations []types.Location) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(locations))
	for _, loc := range locations {
		out = append(out, map[string]interface{}{
			"path":  loc.Path,
			"range": loc.Range,
		})
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path names a readable index file
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		return ErrIsDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, skipping non-strings
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrIsDirectory     = errors.New("path is a directory, not an index file")
)
