package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Rebuild the vector index for a repository. Wipes the existing index and re-indexes every supported file.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
			},
			Required: []string{"path"},
		},
	}
}

// codebaseSearchTool returns the tool definition for codebase_search
func codebaseSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "codebase_search",
		Description: "Search the indexed codebase with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword only",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "vector",
				},
			},
			Required: []string{"query"},
		},
	}
}

// directoryTreeTool returns the tool definition for directory_tree
func directoryTreeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "directory_tree",
		Description: "Get an indented tree of a directory, hidden entries skipped",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"directory": map[string]interface{}{
					"type":        "string",
					"description": "Directory to inspect",
					"default":     ".",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum recursion depth",
					"default":     2,
				},
			},
			Required: []string{},
		},
	}
}

// grepSearchTool returns the tool definition for grep_search
func grepSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "grep_search",
		Description: "Exact string or regex search in file contents",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Literal string or regular expression",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Search root",
					"default":     ".",
				},
				"is_regex": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat query as a regular expression",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// fileOutlineTool returns the tool definition for file_outline
func fileOutlineTool() mcp.Tool {
	return mcp.Tool{
		Name:        "file_outline",
		Description: "Return line-numbered declaration headers of a source file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "File to outline",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

// readFileTool returns the tool definition for read_file
func readFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "read_file",
		Description: "Read the content of a file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "File to read",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

// writeFileTool returns the tool definition for write_file
func writeFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "write_file",
		Description: "Write content to a file, creating parent directories if needed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "File to write",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Content to write",
				},
			},
			Required: []string{"file_path", "content"},
		},
	}
}

// runCommandTool returns the tool definition for run_command
func runCommandTool() mcp.Tool {
	return mcp.Tool{
		Name:        "run_command",
		Description: "Run a shell command with a timeout and return stdout and stderr",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "Command to run",
				},
			},
			Required: []string{"command"},
		},
	}
}
