// Package agent drives a tool-calling loop against the Groq chat-completions
// API. The agent holds a closed registry of codebase tools; the model picks
// tools, the agent executes them and feeds results back until the model
// produces a plain answer or the iteration cap is hit.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// DefaultMaxIterations caps the tool-calling loop.
const DefaultMaxIterations = 10

const systemPrompt = `You are an expert Software Engineer agent. You have access to the codebase through various tools. Your goal is to help the user understand and modify the code.

STRATEGY:
1. EXPLORE: Always start by using get_directory_tree to understand the project structure.
2. SEARCH: Use grep_search to find specific strings (like variable names or imports) and codebase_search for conceptual questions (like 'how is auth handled?').
3. UNDERSTAND: Use get_file_outline to see symbols in a file before reading the full content with read_file.
4. PLAN: Explain your findings and your intended changes before executing.
5. EXECUTE: Use write_file for changes and run_terminal_command for testing.

Always be precise and verify your work.`

// Agent runs the tool-calling loop.
type Agent struct {
	client        *Client
	registry      *Registry
	maxIterations int
	logger        *log.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations overrides the loop cap.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New creates an Agent over a client and tool registry.
func New(client *Client, registry *Registry, opts ...Option) *Agent {
	a := &Agent{
		client:        client,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
		logger:        log.New(os.Stderr, "", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run answers one user request, executing tool calls as the model asks for
// them. Conversation state does not persist across calls; use RunWithHistory
// for a REPL.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}
	answer, _, err := a.converse(ctx, messages)
	return answer, err
}

// RunWithHistory answers a request given prior conversation turns and
// returns the updated history including the final answer.
func (a *Agent) RunWithHistory(ctx context.Context, history []Message, query string) (string, []Message, error) {
	messages := make([]Message, 0, len(history)+2)
	if len(history) == 0 || history[0].Role != "system" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: query})
	return a.converse(ctx, messages)
}

func (a *Agent) converse(ctx context.Context, messages []Message) (string, []Message, error) {
	specs := a.registry.Specs()

	for i := 0; i < a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return "", messages, err
		}

		reply, err := a.client.Complete(ctx, messages, specs)
		if err != nil {
			return "", messages, fmt.Errorf("completion failed: %w", err)
		}
		messages = append(messages, *reply)

		if len(reply.ToolCalls) == 0 {
			return reply.Content, messages, nil
		}

		for _, call := range reply.ToolCalls {
			a.logger.Printf("tool call: %s(%s)", call.Function.Name, call.Function.Arguments)
			result, err := a.registry.Execute(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
			if err != nil {
				// Unknown tool: tell the model instead of aborting the run.
				result = fmt.Sprintf("Error: %v", err)
			}
			messages = append(messages, Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	return "", messages, fmt.Errorf("no final answer after %d iterations", a.maxIterations)
}
