package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/ramyad06/cautious-llm/internal/embedder"
)

// MockEmbedder provides a fake embedder for testing.
// It generates deterministic unit vectors from the text hash and can be
// told to fail specific EmbedBatch calls.
type MockEmbedder struct {
	dimension int

	mu          sync.Mutex
	batchCalls  int
	releases    int
	failBatches map[int]bool // 1-based call number -> fail
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{
		dimension:   dimension,
		failBatches: make(map[int]bool),
	}
}

// FailBatchCall makes the n-th EmbedBatch call (1-based) return an error.
func (m *MockEmbedder) FailBatchCall(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failBatches[n] = true
}

// BatchCalls returns how many times EmbedBatch was invoked.
func (m *MockEmbedder) BatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// Releases returns how many times Release was invoked.
func (m *MockEmbedder) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

// EmbedBatch embeds every text, preserving order.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	fail := m.failBatches[m.batchCalls]
	m.mu.Unlock()

	if fail {
		return nil, errors.New("mock provider failure")
	}
	if err := embedder.ValidateTexts(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFor(text)
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedder.ErrEmptyText
	}
	return m.vectorFor(text), nil
}

func (m *MockEmbedder) Dimension() int   { return m.dimension }
func (m *MockEmbedder) Provider() string { return "mock" }

func (m *MockEmbedder) Release() {
	m.mu.Lock()
	m.releases++
	m.mu.Unlock()
}

func (m *MockEmbedder) Close() error { return nil }

// vectorFor derives a deterministic unit vector from the text hash.
func (m *MockEmbedder) vectorFor(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	vector := make([]float32, m.dimension)
	for i := range vector {
		idx := (i * 4) % 28
		val := binary.BigEndian.Uint32(hash[idx : idx+4])
		vector[i] = float32(val)/float32(math.MaxUint32) - 0.5
	}
	return embedder.NormalizeVector(vector)
}
