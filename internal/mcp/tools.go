package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ramyad06/cautious-llm/internal/pipeline"
	"github.com/ramyad06/cautious-llm/internal/searcher"
	"github.com/ramyad06/cautious-llm/internal/store"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // No index built yet
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexCodebase handles the index_codebase tool invocation. The
// rebuild wipes the previous index; the live store handle is closed first
// and replaced once the new index is built.
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	s.closeStore()

	cfg := *s.cfg
	cfg.RepoPath = path
	stats, err := pipeline.Rebuild(ctx, &cfg, s.embedder)
	if err != nil {
		if errors.Is(err, pipeline.ErrRebuildInProgress) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	st, err := store.Open(s.cfg.StorePath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to reopen index", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.swapStore(st)

	response := map[string]interface{}{
		"indexed":           true,
		"store_path":        s.cfg.StorePath,
		"files_scanned":     stats.FilesScanned,
		"chunks_total":      stats.ChunksTotal,
		"chunks_persisted":  stats.ChunksPersisted,
		"batches_committed": stats.BatchesCommitted,
		"batches_failed":    stats.BatchesFailed,
		"duration_ms":       stats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCodebaseSearch handles the codebase_search tool invocation
func (s *Server) handleCodebaseSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
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

	mode := getStringDefault(args, "search_mode", "vector")
	if mode != "hybrid" && mode != "vector" && mode != "keyword" {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   mode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	srch := s.currentSearcher()
	if srch == nil {
		return nil, newMCPError(ErrorCodeNotIndexed, "no index built yet; run index_codebase first", nil)
	}

	resp, err := srch.Search(ctx, searcher.Request{
		Query: query,
		Limit: limit,
		Mode:  searcher.SearchMode(mode),
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"source":  r.Source,
			"ordinal": r.Ordinal,
			"content": r.Content,
			"score":   r.Score,
			"rank":    r.Rank,
		})
	}
	response := map[string]interface{}{
		"query":         query,
		"mode":          mode,
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"results":       results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDirectoryTree handles the directory_tree tool invocation
func (s *Server) handleDirectoryTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	dir := getStringDefault(args, "directory", ".")
	maxDepth := getIntDefault(args, "max_depth", 2)

	out, err := s.toolkit.DirectoryTree(dir, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to build tree", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(out), nil
}

// handleGrepSearch handles the grep_search tool invocation
func (s *Server) handleGrepSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", nil)
	}
	path := getStringDefault(args, "path", ".")
	isRegex := getBoolDefault(args, "is_regex", false)

	out, err := s.toolkit.GrepSearch(query, path, isRegex)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(out), nil
}

// handleFileOutline handles the file_outline tool invocation
func (s *Server) handleFileOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := requiredString(request, "file_path")
	if err != nil {
		return nil, err
	}

	out, err := s.toolkit.FileOutline(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to outline file", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(out), nil
}

// handleReadFile handles the read_file tool invocation
func (s *Server) handleReadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := requiredString(request, "file_path")
	if err != nil {
		return nil, err
	}

	out, err := s.toolkit.ReadFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to read file", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(out), nil
}

// handleWriteFile handles the write_file tool invocation
func (s *Server) handleWriteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["file_path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "file_path parameter is required", nil)
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", nil)
	}

	out, err := s.toolkit.WriteFile(path, content)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to write file", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(out), nil
}

// handleRunCommand handles the run_command tool invocation
func (s *Server) handleRunCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	command, ok := args["command"].(string)
	if !ok || command == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "command parameter is required", nil)
	}

	out, err := s.toolkit.RunCommand(ctx, command)
	if err != nil {
		// Timeouts still carry partial output worth returning.
		return mcp.NewToolResultText(fmt.Sprintf("%s\nERROR: %v", out, err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// Helper functions

// requiredString extracts a mandatory string argument from a request.
func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return v, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
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

// validatePath checks that a path is an absolute, readable directory.
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
	if !info.IsDir() {
		return ErrNotDirectory
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

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
