package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// parseSymbolTool returns the tool definition for parse_symbol
func parseSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "parse_symbol",
		Description: "Decode a SCIP symbol string into its scheme, package and descriptors",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "SCIP symbol, e.g. 'scip-go gomod example.com/app v1 server/Server#Start().' or 'local 4'",
				},
			},
			Required: []string{"symbol"},
		},
	}
}

// indexSCIPTool returns the tool definition for index_scip
func indexSCIPTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_scip",
		Description: "Ingest a SCIP index file into the symbol catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a .scip file",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-ingest every document ignoring content hashes",
					"default":     false,
				},
				"infer_language": map[string]interface{}{
					"type":        "boolean",
					"description": "Guess a document's language from its file extension when the index omits it",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language for documents that declare none",
				},
				"root_prefix": map[string]interface{}{
					"type":        "string",
					"description": "Prefix prepended to every document path",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Search the symbols of an ingested SCIP index by name or by symbol text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an ingested .scip file",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keywords, or a full or partial SCIP symbol in exact mode",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "keyword (BM25 over names, paths and docs) or exact (symbol text equal or prefix)",
					"enum":        []string{"keyword", "exact"},
					"default":     "keyword",
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]interface{}{
						"schemes": map[string]interface{}{
							"type":        "array",
							"description": "Filter by scheme (e.g. scip-go, rust-analyzer)",
							"items":       map[string]interface{}{"type": "string"},
						},
						"managers": map[string]interface{}{
							"type":        "array",
							"description": "Filter by package manager",
							"items":       map[string]interface{}{"type": "string"},
						},
						"packages": map[string]interface{}{
							"type":        "array",
							"description": "Filter by package name",
							"items":       map[string]interface{}{"type": "string"},
						},
						"kinds": map[string]interface{}{
							"type":        "array",
							"description": "Filter by the kind of the symbol's last descriptor",
							"items": map[string]interface{}{
								"type": "string",
								"enum": []string{"namespace", "type", "term", "method", "type_parameter", "parameter", "meta", "macro"},
							},
						},
						"include_local": map[string]interface{}{
							"type":        "boolean",
							"description": "Include document-local symbols",
							"default":     false,
						},
					},
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query ingest status and catalog statistics for a SCIP index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a .scip file",
				},
			},
			Required: []string{"path"},
		},
	}
}
