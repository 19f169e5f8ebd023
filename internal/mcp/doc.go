// Package mcp implements the Model Context Protocol server for the code
// agent.
//
// The server speaks JSON-RPC 2.0 over stdio and exposes the codebase tools
// to MCP clients:
//   - index_codebase: full rebuild of the vector index for a repository
//   - codebase_search: semantic/keyword/hybrid search over the index
//   - directory_tree, grep_search, file_outline, read_file, write_file,
//     run_command: filesystem and shell capabilities
//
// stdout carries protocol frames; all logging goes to stderr.
package mcp
