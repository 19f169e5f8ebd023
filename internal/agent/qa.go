package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramyad06/cautious-llm/internal/searcher"
)

const qaSystemPrompt = `You are a Senior Software Engineer. Use the provided code context to answer the user's question. If you don't know the answer, say so.

%s`

// QAResult is the answer to a retrieval question plus the distinct sources
// that were stuffed into the prompt.
type QAResult struct {
	Answer  string
	Sources []string
}

// Ask answers a question with single-shot retrieval: fetch the top-k chunks
// for the query, stuff them into one completion, and return the answer with
// source attribution. No tool calls are involved.
func Ask(ctx context.Context, client *Client, s *searcher.Searcher, query string, k int) (*QAResult, error) {
	if k <= 0 {
		k = 5
	}

	resp, err := s.Search(ctx, searcher.Request{
		Query: query,
		Limit: k,
		Mode:  searcher.SearchModeVector,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	var contextBlock strings.Builder
	var sources []string
	seen := make(map[string]bool)
	for _, r := range resp.Results {
		fmt.Fprintf(&contextBlock, "--- Source: %s ---\n%s\n\n", r.Source, r.Content)
		if !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}

	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(qaSystemPrompt, contextBlock.String())},
		{Role: "user", Content: query},
	}
	reply, err := client.Complete(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	return &QAResult{Answer: reply.Content, Sources: sources}, nil
}
