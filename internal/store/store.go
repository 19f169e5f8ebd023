package store

import (
	"context"
	"errors"

	"github.com/ramyad06/cautious-llm/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entry doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch is returned when a query vector's dimension
	// doesn't match the stored embeddings
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Entry is one persisted index row: an embedding plus the chunk it was
// computed from.
type Entry struct {
	Vector []float32
	Chunk  types.Chunk
}

// VectorResult is a similarity-search hit.
type VectorResult struct {
	ChunkID    int64
	Source     string
	Ordinal    int
	Content    string
	Similarity float64
}

// KeywordResult is a substring-search hit.
type KeywordResult struct {
	ChunkID int64
	Source  string
	Ordinal int
	Content string
	// Matches counts query occurrences in the chunk, used for ranking.
	Matches int
}

// ChunkRow is one stored chunk as persisted.
type ChunkRow struct {
	ID      int64
	Source  string
	Ordinal int
	Content string
}

// Store is the persistence contract the pipeline and searcher depend on.
type Store interface {
	// AddBatch persists a batch of entries atomically: either every entry
	// in the batch lands or none do.
	AddBatch(ctx context.Context, entries []Entry) error

	// SearchVector returns the top-k entries by cosine similarity.
	SearchVector(ctx context.Context, query []float32, limit int) ([]VectorResult, error)

	// SearchKeyword returns entries containing the literal query, ranked
	// by occurrence count.
	SearchKeyword(ctx context.Context, query string, limit int) ([]KeywordResult, error)

	// GetChunk loads one stored chunk by ID.
	GetChunk(ctx context.Context, id int64) (*ChunkRow, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int, error)

	// Close closes the underlying database.
	Close() error
}
