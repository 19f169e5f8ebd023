package mcp

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ramyad06/cautious-llm/internal/config"
	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/searcher"
	"github.com/ramyad06/cautious-llm/internal/store"
	"github.com/ramyad06/cautious-llm/internal/tools"
)

const (
	// ServerName is the MCP server name
	ServerName = "codeagent"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies. The store and
// searcher are swapped atomically after each index rebuild.
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	embedder embedder.Embedder
	toolkit  *tools.Toolkit

	mu       sync.Mutex
	store    *store.SQLiteStore
	searcher *searcher.Searcher
}

// NewServer creates a new MCP server instance. An existing index at the
// configured store path is opened; without one, search tools report
// not-indexed until index_codebase runs.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Load()
	}

	emb, err := embedder.NewFromEnv(cfg.EmbeddingProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		embedder: emb,
		toolkit:  tools.New(nil),
	}

	// Reuse an index from a previous run when one exists.
	if _, err := os.Stat(cfg.StorePath); err == nil {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open existing index: %w", err)
		}
		s.store = st
		s.searcher = searcher.New(st, emb)
		s.toolkit.SetSearcher(s.searcher)
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.closeStore()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools.
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(codebaseSearchTool(), s.handleCodebaseSearch)
	s.mcp.AddTool(directoryTreeTool(), s.handleDirectoryTree)
	s.mcp.AddTool(grepSearchTool(), s.handleGrepSearch)
	s.mcp.AddTool(fileOutlineTool(), s.handleFileOutline)
	s.mcp.AddTool(readFileTool(), s.handleReadFile)
	s.mcp.AddTool(writeFileTool(), s.handleWriteFile)
	s.mcp.AddTool(runCommandTool(), s.handleRunCommand)
}

// currentSearcher returns the searcher for the live index, or nil when no
// index exists yet.
func (s *Server) currentSearcher() *searcher.Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searcher
}

// closeStore closes the open store handle, if any.
func (s *Server) closeStore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		_ = s.store.Close()
		s.store = nil
		s.searcher = nil
	}
}

// swapStore replaces the live store and searcher after a rebuild.
func (s *Server) swapStore(st *store.SQLiteStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		_ = s.store.Close()
	}
	s.store = st
	s.searcher = searcher.New(st, s.embedder)
	s.toolkit.SetSearcher(s.searcher)
}
