// Package mcp implements the Model Context Protocol (MCP) server for scipsym.
//
// The server exposes four tools to AI coding assistants:
//   - parse_symbol: Decode a SCIP symbol string
//   - index_scip: Ingest a .scip file into the catalog
//   - search_symbols: Search an ingested index
//   - get_status: Check ingest status and statistics
//
// MCP is JSON-RPC 2.0 over stdio. The server is started with:
//
//	scipsym serve
//
// # Tool: parse_symbol
//
//	Request:
//	{
//	  "name": "parse_symbol",
//	  "arguments": {"symbol": "scip-go gomod example.com/app v1 server/Server#Start()."}
//	}
//
//	Response:
//	{
//	  "symbol": "scip-go gomod example.com/app v1 server/Server#Start().",
//	  "canonical": "scip-go gomod example.com/app v1 server/Server#Start().",
//	  "display_name": "Start",
//	  "parsed": {
//	    "kind": "global",
//	    "scheme": "scip-go",
//	    "package": {"manager": "gomod", "name": "example.com/app", "version": "v1"},
//	    "descriptors": [
//	      {"name": "server", "kind": "namespace"},
//	      {"name": "Server", "kind": "type"},
//	      {"name": "Start", "kind": "method"}
//	    ]
//	  }
//	}
//
// # Tool: index_scip
//
// Arguments: path (absolute .scip file), force, infer_language, language and
// root_prefix. Defaults for the optional arguments come from the server's
// configuration. Only one ingest runs at a time; a second request fails with
// code -32002 instead of waiting.
//
// # Tool: search_symbols
//
//	Request:
//	{
//	  "name": "search_symbols",
//	  "arguments": {
//	    "path": "/work/app/index.scip",
//	    "query": "Server",
//	    "mode": "keyword",
//	    "filters": {"kinds": ["type"], "schemes": ["scip-go"]}
//	  }
//	}
//
// Each result carries rank, score, the raw and parsed symbol, its package
// and the locations where it is defined.
//
// # Tool: get_status
//
// Returns "indexed": false for a file that has not been ingested, otherwise
// index metadata, catalog counts and health.
//
// # Error Handling
//
// Handlers return *MCPError values with JSON-RPC codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, decoding, etc.)
//   - -32001: Index file not found
//   - -32002: Indexing in progress
//   - -32003: Index not ingested
//   - -32004: Empty query
//
// # Logging
//
// The server never writes logs to stdout, which carries the protocol.
package mcp
