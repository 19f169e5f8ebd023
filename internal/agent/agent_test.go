package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyad06/cautious-llm/internal/searcher"
	"github.com/ramyad06/cautious-llm/internal/store"
	"github.com/ramyad06/cautious-llm/internal/tools"
)

// scriptedServer returns canned chat responses in order and records every
// request body it receives.
type scriptedServer struct {
	server    *httptest.Server
	responses []string
	requests  [][]byte
	calls     int
}

func newScriptedServer(t *testing.T, responses ...string) *scriptedServer {
	t.Helper()
	s := &scriptedServer{responses: responses}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.requests = append(s.requests, body)
		if s.calls >= len(s.responses) {
			http.Error(w, `{"error":{"message":"script exhausted"}}`, http.StatusInternalServerError)
			return
		}
		resp := s.responses[s.calls]
		s.calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(s.server.Close)
	return s
}

func assistantAnswer(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
}

func assistantToolCall(name, args string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":%q,"arguments":%q}}]},"finish_reason":"tool_calls"}]}`, name, args)
}

func newTestClient(t *testing.T, s *scriptedServer) *Client {
	t.Helper()
	c, err := NewClient("test-key", "test-model", WithBaseURL(s.server.URL))
	require.NoError(t, err)
	return c
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "model")
	assert.Error(t, err)
}

func TestClientComplete(t *testing.T) {
	s := newScriptedServer(t, assistantAnswer("hello"))
	c := newTestClient(t, s)

	reply, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Content)

	// Temperature must be pinned to zero on the wire.
	var req map[string]any
	require.NoError(t, json.Unmarshal(s.requests[0], &req))
	assert.Equal(t, float64(0), req["temperature"])
	assert.Equal(t, "test-model", req["model"])
}

func TestClientCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer server.Close()

	c, err := NewClient("key", "model", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAgentPlainAnswer(t *testing.T) {
	s := newScriptedServer(t, assistantAnswer("the answer"))
	a := New(newTestClient(t, s), NewRegistry(tools.New(nil)), WithLogger(quietLogger()))

	answer, err := a.Run(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestAgentExecutesToolCall(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only.txt"), []byte("x"), 0o644))

	s := newScriptedServer(t,
		assistantToolCall("list_files", fmt.Sprintf(`{"directory":%q}`, dir)),
		assistantAnswer("done"),
	)
	a := New(newTestClient(t, s), NewRegistry(tools.New(nil)), WithLogger(quietLogger()))

	answer, err := a.Run(context.Background(), "what files exist?")
	require.NoError(t, err)
	assert.Equal(t, "done", answer)

	// Second request must carry the tool result back to the model.
	var second chatRequest
	require.NoError(t, json.Unmarshal(s.requests[1], &second))
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, "only.txt")
}

func TestAgentUnknownToolReportedToModel(t *testing.T) {
	s := newScriptedServer(t,
		assistantToolCall("teleport", `{}`),
		assistantAnswer("recovered"),
	)
	a := New(newTestClient(t, s), NewRegistry(tools.New(nil)), WithLogger(quietLogger()))

	answer, err := a.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)

	var second chatRequest
	require.NoError(t, json.Unmarshal(s.requests[1], &second))
	last := second.Messages[len(second.Messages)-1]
	assert.Contains(t, last.Content, "unknown tool")
}

func TestAgentIterationCap(t *testing.T) {
	s := newScriptedServer(t,
		assistantToolCall("list_files", `{}`),
		assistantToolCall("list_files", `{}`),
		assistantToolCall("list_files", `{}`),
	)
	a := New(newTestClient(t, s), NewRegistry(tools.New(nil)),
		WithMaxIterations(3), WithLogger(quietLogger()))

	_, err := a.Run(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no final answer")
}

func TestRunWithHistoryKeepsTurns(t *testing.T) {
	s := newScriptedServer(t, assistantAnswer("first"), assistantAnswer("second"))
	a := New(newTestClient(t, s), NewRegistry(tools.New(nil)), WithLogger(quietLogger()))

	answer, history, err := a.RunWithHistory(context.Background(), nil, "one")
	require.NoError(t, err)
	assert.Equal(t, "first", answer)

	answer, history, err = a.RunWithHistory(context.Background(), history, "two")
	require.NoError(t, err)
	assert.Equal(t, "second", answer)

	// system + user + assistant + user + assistant
	require.Len(t, history, 5)
	assert.Equal(t, "system", history[0].Role)
	assert.Equal(t, "two", history[3].Content)
}

func TestRegistrySpecsOrdered(t *testing.T) {
	r := NewRegistry(tools.New(nil))
	specs := r.Specs()

	require.NotEmpty(t, specs)
	assert.Equal(t, "get_directory_tree", specs[0].Function.Name)
	names := make(map[string]bool)
	for _, spec := range specs {
		assert.Equal(t, "function", spec.Type)
		assert.False(t, names[spec.Function.Name], "duplicate tool %s", spec.Function.Name)
		names[spec.Function.Name] = true
	}
	assert.True(t, names["codebase_search"])
	assert.True(t, names["run_terminal_command"])
}

// qaStubStore serves a single canned ranking for the retrieval-QA path.
type qaStubStore struct{}

func (qaStubStore) AddBatch(context.Context, []store.Entry) error { return nil }

func (qaStubStore) SearchVector(context.Context, []float32, int) ([]store.VectorResult, error) {
	return []store.VectorResult{
		{ChunkID: 1, Similarity: 0.9},
		{ChunkID: 2, Similarity: 0.8},
	}, nil
}

func (qaStubStore) SearchKeyword(context.Context, string, int) ([]store.KeywordResult, error) {
	return nil, nil
}

func (qaStubStore) GetChunk(_ context.Context, id int64) (*store.ChunkRow, error) {
	return &store.ChunkRow{
		ID:      id,
		Source:  "pkg/app.go",
		Ordinal: int(id),
		Content: fmt.Sprintf("snippet %d", id),
	}, nil
}

func (qaStubStore) Count(context.Context) (int, error) { return 2, nil }
func (qaStubStore) Close() error                       { return nil }

type qaStubEmbedder struct{}

func (qaStubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}
func (qaStubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}
func (qaStubEmbedder) Dimension() int   { return 1 }
func (qaStubEmbedder) Provider() string { return "stub" }
func (qaStubEmbedder) Release()         {}
func (qaStubEmbedder) Close() error     { return nil }

func TestAsk(t *testing.T) {
	s := newScriptedServer(t, assistantAnswer("it works like this"))
	client := newTestClient(t, s)
	sr := searcher.New(qaStubStore{}, qaStubEmbedder{})

	result, err := Ask(context.Background(), client, sr, "how does it work?", 5)
	require.NoError(t, err)

	assert.Equal(t, "it works like this", result.Answer)
	assert.Equal(t, []string{"pkg/app.go"}, result.Sources)

	// The retrieved snippets must be stuffed into the system prompt.
	var req chatRequest
	require.NoError(t, json.Unmarshal(s.requests[0], &req))
	assert.Contains(t, req.Messages[0].Content, "snippet 1")
	assert.Contains(t, req.Messages[0].Content, "--- Source: pkg/app.go ---")
	assert.Empty(t, req.Tools)
}
