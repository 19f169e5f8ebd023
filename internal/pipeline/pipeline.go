// Package pipeline coordinates the indexing pipeline: scan -> chunk ->
// embed -> store. Indexing is a full rebuild: the previous index is wiped
// before any new content is written, and batches are persisted sequentially
// in discovery order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ramyad06/cautious-llm/internal/chunker"
	"github.com/ramyad06/cautious-llm/internal/config"
	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/scanner"
	"github.com/ramyad06/cautious-llm/internal/store"
	"github.com/ramyad06/cautious-llm/pkg/types"
)

// ErrRebuildInProgress is returned when a rebuild is requested while one is
// already running.
var ErrRebuildInProgress = errors.New("index rebuild already in progress")

// Stats contains statistics about one pipeline run.
type Stats struct {
	FilesScanned     int
	ChunksTotal      int
	ChunksPersisted  int
	BatchesCommitted int
	BatchesFailed    int
	Duration         time.Duration
}

// Pipeline runs the scan -> chunk -> embed -> store sequence against an
// already-open store. Wiping and opening the store is the caller's job; see
// Rebuild for the full delete-then-rebuild flow.
type Pipeline struct {
	root      string
	splitter  *chunker.Splitter
	embedder  embedder.Embedder
	store     store.Store
	batchSize int
	logger    *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline rooted at root. batchSize values below 1 fall back
// to the default.
func New(root string, splitter *chunker.Splitter, emb embedder.Embedder, st store.Store, batchSize int, opts ...Option) *Pipeline {
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	p := &Pipeline{
		root:      root,
		splitter:  splitter,
		embedder:  emb,
		store:     st,
		batchSize: batchSize,
		logger:    log.New(os.Stderr, "", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scans the root, chunks every document, and persists the chunks in
// batches of at most batchSize, in discovery order. A batch that fails to
// embed or commit is logged and counted but does not stop the run; later
// batches still get their chance. Context cancellation aborts between
// batches.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{}

	docs, err := scanner.New(p.root, chunker.Extensions()).Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.root, err)
	}
	stats.FilesScanned = len(docs)

	var chunks []types.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.splitter.Split(doc)...)
	}
	stats.ChunksTotal = len(chunks)

	p.logger.Printf("indexing %d chunks from %d files in batches of %d",
		len(chunks), len(docs), p.batchSize)

	for i, batch := range partition(chunks, p.batchSize) {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(startTime)
			return stats, err
		}

		if err := p.processBatch(ctx, batch); err != nil {
			stats.BatchesFailed++
			p.logger.Printf("batch %d (%d chunks) failed: %v", i, len(batch), err)
		} else {
			stats.BatchesCommitted++
			stats.ChunksPersisted += len(batch)
		}

		// Return per-batch resources before touching the next batch.
		p.embedder.Release()
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// processBatch embeds one batch and commits it in a single transaction.
func (p *Pipeline) processBatch(ctx context.Context, batch []types.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embed: got %d vectors for %d chunks", len(vectors), len(batch))
	}

	entries := make([]store.Entry, len(batch))
	for i := range batch {
		entries[i] = store.Entry{Vector: vectors[i], Chunk: batch[i]}
	}
	if err := p.store.AddBatch(ctx, entries); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// partition splits chunks into consecutive groups of at most size, keeping
// order. The final group may be smaller.
func partition(chunks []types.Chunk, size int) [][]types.Chunk {
	var batches [][]types.Chunk
	for len(chunks) > 0 {
		n := size
		if n > len(chunks) {
			n = len(chunks)
		}
		batches = append(batches, chunks[:n])
		chunks = chunks[n:]
	}
	return batches
}

var rebuildLock RebuildLock

// Rebuild performs the full delete-then-rebuild flow: wipe the store file,
// open a fresh store, run the pipeline, close. Only one rebuild may run at
// a time per process; concurrent calls fail fast with
// ErrRebuildInProgress.
func Rebuild(ctx context.Context, cfg *config.Config, emb embedder.Embedder, opts ...Option) (*Stats, error) {
	if !rebuildLock.TryAcquire() {
		return nil, ErrRebuildInProgress
	}
	defer rebuildLock.Release()

	if err := store.Wipe(cfg.StorePath); err != nil {
		return nil, fmt.Errorf("failed to wipe store: %w", err)
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	splitter := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	p := New(cfg.RepoPath, splitter, emb, st, cfg.BatchSize, opts...)
	return p.Run(ctx)
}
