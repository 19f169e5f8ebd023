package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ramyad06/cautious-llm/internal/tools"
)

// toolFunc executes one tool against JSON-encoded arguments.
type toolFunc func(ctx context.Context, args json.RawMessage) (string, error)

// registeredTool pairs a wire schema with its executor.
type registeredTool struct {
	spec ToolSpec
	run  toolFunc
}

// Registry is the closed set of tools the agent may call. Unknown tool
// names are rejected at dispatch.
type Registry struct {
	order []string
	tools map[string]registeredTool
}

func (r *Registry) register(name, description string, parameters string, run toolFunc) {
	r.order = append(r.order, name)
	r.tools[name] = registeredTool{
		spec: ToolSpec{
			Type: "function",
			Function: FunctionSpec{
				Name:        name,
				Description: description,
				Parameters:  json.RawMessage(parameters),
			},
		},
		run: run,
	}
}

// Specs returns the tool schemas in registration order.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Execute dispatches one tool call. Tool-level failures come back as the
// result string so the model can read and react to them; only an unknown
// tool name is a hard error.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	result, err := t.run(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return result, nil
}

// NewRegistry builds the registry over a Toolkit.
func NewRegistry(tk *tools.Toolkit) *Registry {
	r := &Registry{tools: make(map[string]registeredTool)}

	r.register("get_directory_tree",
		"Get a visual tree of the directory structure. Use this first to understand the project layout.",
		`{"type":"object","properties":{"directory":{"type":"string","description":"Directory to inspect, defaults to ."},"max_depth":{"type":"integer","description":"Maximum depth, defaults to 2"}},"required":[]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Directory string `json:"directory"`
				MaxDepth  int    `json:"max_depth"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			if args.Directory == "" {
				args.Directory = "."
			}
			return tk.DirectoryTree(args.Directory, args.MaxDepth)
		})

	r.register("grep_search",
		"Exact string or regex search in files. More reliable than codebase_search for specific identifiers.",
		`{"type":"object","properties":{"query":{"type":"string"},"path":{"type":"string","description":"Search root, defaults to ."},"is_regex":{"type":"boolean"}},"required":["query"]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Query   string `json:"query"`
				Path    string `json:"path"`
				IsRegex bool   `json:"is_regex"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.GrepSearch(args.Query, args.Path, args.IsRegex)
		})

	r.register("get_file_outline",
		"Return line-numbered declarations in a source file without reading the whole content.",
		`{"type":"object","properties":{"file_path":{"type":"string"}},"required":["file_path"]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				FilePath string `json:"file_path"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.FileOutline(args.FilePath)
		})

	r.register("codebase_search",
		"Semantic search on the indexed codebase. Best for conceptual questions; use grep_search for exact strings.",
		`{"type":"object","properties":{"query":{"type":"string"},"k":{"type":"integer","description":"Number of results, defaults to 5"}},"required":["query"]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Query string `json:"query"`
				K     int    `json:"k"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.CodebaseSearch(ctx, args.Query, args.K)
		})

	r.register("read_file",
		"Read the content of a file from the local filesystem.",
		`{"type":"object","properties":{"file_path":{"type":"string"}},"required":["file_path"]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				FilePath string `json:"file_path"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.ReadFile(args.FilePath)
		})

	r.register("write_file",
		"Write content to a file, creating parent directories if needed.",
		`{"type":"object","properties":{"file_path":{"type":"string"},"content":{"type":"string"}},"required":["file_path","content"]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				FilePath string `json:"file_path"`
				Content  string `json:"content"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.WriteFile(args.FilePath, args.Content)
		})

	r.register("list_files",
		"List entries in a directory. Use get_directory_tree for a better overview.",
		`{"type":"object","properties":{"directory":{"type":"string","description":"Directory to list, defaults to ."}},"required":[]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Directory string `json:"directory"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.ListFiles(args.Directory)
		})

	r.register("run_terminal_command",
		"Run a terminal command and return stdout and stderr.",
		`{"type":"object","properties":{"command":{"type":"string"}},"required":["command"]}`,
		func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Command string `json:"command"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			return tk.RunCommand(ctx, args.Command)
		})

	return r
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}
