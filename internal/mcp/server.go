package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/scipsym/internal/config"
	"github.com/dshills/scipsym/internal/indexer"
	"github.com/dshills/scipsym/internal/searcher"
	"github.com/dshills/scipsym/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "scipsym"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	config   *config.Config
	storage  storage.Storage
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	lock     indexer.IndexLock
}

// NewServer creates a new MCP server instance. A nil cfg uses
// config.Default().
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	dbFile, err := cfg.DatabaseFile()
	if err != nil {
		return nil, err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		config:   cfg,
		storage:  store,
		indexer:  indexer.New(store),
		searcher: searcher.NewSearcher(store, cfg.Search.CacheSize),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until ctx is cancelled or
// stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the catalog without serving
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(parseSymbolTool(), s.handleParseSymbol)
	s.mcp.AddTool(indexSCIPTool(), s.handleIndexSCIP)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	return nil
}
