package searcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyad06/cautious-llm/internal/store"
)

type stubEmbedder struct {
	queryErr error
	calls    int
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Dimension() int   { return 2 }
func (s *stubEmbedder) Provider() string { return "stub" }
func (s *stubEmbedder) Release()         {}
func (s *stubEmbedder) Close() error     { return nil }

// stubStore serves canned rankings keyed by chunk ID.
type stubStore struct {
	vector      []store.VectorResult
	keyword     []store.KeywordResult
	chunks      map[int64]*store.ChunkRow
	vectorErr   error
	keywordErr  error
	vectorCalls int
}

func (s *stubStore) AddBatch(context.Context, []store.Entry) error { return nil }

func (s *stubStore) SearchVector(_ context.Context, _ []float32, limit int) ([]store.VectorResult, error) {
	s.vectorCalls++
	if s.vectorErr != nil {
		return nil, s.vectorErr
	}
	if limit > len(s.vector) {
		limit = len(s.vector)
	}
	return s.vector[:limit], nil
}

func (s *stubStore) SearchKeyword(_ context.Context, _ string, limit int) ([]store.KeywordResult, error) {
	if s.keywordErr != nil {
		return nil, s.keywordErr
	}
	if limit > len(s.keyword) {
		limit = len(s.keyword)
	}
	return s.keyword[:limit], nil
}

func (s *stubStore) GetChunk(_ context.Context, id int64) (*store.ChunkRow, error) {
	c, ok := s.chunks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubStore) Count(context.Context) (int, error) { return len(s.chunks), nil }
func (s *stubStore) Close() error                       { return nil }

func populatedStore() *stubStore {
	chunks := make(map[int64]*store.ChunkRow)
	for id := int64(1); id <= 5; id++ {
		chunks[id] = &store.ChunkRow{
			ID:      id,
			Source:  fmt.Sprintf("file%d.go", id),
			Ordinal: 0,
			Content: fmt.Sprintf("content %d", id),
		}
	}
	return &stubStore{
		vector: []store.VectorResult{
			{ChunkID: 1, Similarity: 0.95},
			{ChunkID: 2, Similarity: 0.80},
			{ChunkID: 3, Similarity: 0.60},
		},
		keyword: []store.KeywordResult{
			{ChunkID: 2, Matches: 4},
			{ChunkID: 4, Matches: 2},
		},
		chunks: chunks,
	}
}

func TestSearchVectorMode(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	resp, err := s.Search(context.Background(), Request{
		Query: "query", Mode: SearchModeVector, Limit: 2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "file1.go", resp.Results[0].Source)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.InDelta(t, 0.95, resp.Results[0].Score, 1e-9)
	assert.Equal(t, "file2.go", resp.Results[1].Source)
	assert.Equal(t, SearchModeVector, resp.Mode)
}

func TestSearchKeywordMode(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	resp, err := s.Search(context.Background(), Request{
		Query: "query", Mode: SearchModeKeyword, Limit: 10,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "file2.go", resp.Results[0].Source)
	assert.Equal(t, float64(4), resp.Results[0].Score)
	assert.Equal(t, "file4.go", resp.Results[1].Source)
}

func TestSearchHybridFusesBothRankings(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	resp, err := s.Search(context.Background(), Request{
		Query: "query", Mode: SearchModeHybrid, Limit: 10,
	})
	require.NoError(t, err)

	// Chunk 2 appears in both rankings so it must fuse to the top.
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "file2.go", resp.Results[0].Source)
	assert.Equal(t, 3, resp.VectorResults)
	assert.Equal(t, 2, resp.KeywordResults)
}

func TestSearchDefaultsToHybrid(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	resp, err := s.Search(context.Background(), Request{Query: "query"})
	require.NoError(t, err)
	assert.Equal(t, SearchModeHybrid, resp.Mode)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	_, err := s.Search(context.Background(), Request{Query: "   "})
	assert.Error(t, err)
}

func TestSearchUnknownModeRejected(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	_, err := s.Search(context.Background(), Request{Query: "q", Mode: "bm25"})
	assert.Error(t, err)
}

func TestSearchEmbedFailurePropagates(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{queryErr: errors.New("provider down")})

	_, err := s.Search(context.Background(), Request{Query: "q", Mode: SearchModeVector})
	assert.Error(t, err)
}

func TestSearchHybridFailsWhenBranchFails(t *testing.T) {
	st := populatedStore()
	st.keywordErr = errors.New("db locked")
	s := New(st, &stubEmbedder{})

	_, err := s.Search(context.Background(), Request{Query: "q", Mode: SearchModeHybrid})
	assert.Error(t, err)
}

func TestSearchSkipsMissingChunks(t *testing.T) {
	st := populatedStore()
	delete(st.chunks, 1)
	s := New(st, &stubEmbedder{})

	resp, err := s.Search(context.Background(), Request{
		Query: "q", Mode: SearchModeVector, Limit: 3,
	})
	require.NoError(t, err)

	for _, r := range resp.Results {
		assert.NotEqual(t, "file1.go", r.Source)
	}
}

func TestSearchCacheHit(t *testing.T) {
	st := populatedStore()
	emb := &stubEmbedder{}
	s := New(st, emb)

	req := Request{Query: "q", Mode: SearchModeVector, Limit: 2, UseCache: true}

	first, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, 1, emb.calls)
}

func TestSearchCacheExpires(t *testing.T) {
	st := populatedStore()
	s := New(st, &stubEmbedder{})

	req := Request{
		Query: "q", Mode: SearchModeVector, Limit: 2,
		UseCache: true, CacheTTL: time.Nanosecond,
	}

	_, err := s.Search(context.Background(), req)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	resp, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
}

func TestInvalidateCache(t *testing.T) {
	st := populatedStore()
	s := New(st, &stubEmbedder{})

	req := Request{Query: "q", Mode: SearchModeVector, UseCache: true}
	_, err := s.Search(context.Background(), req)
	require.NoError(t, err)

	s.InvalidateCache()

	resp, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
}

func TestApplyRRF(t *testing.T) {
	vector := []store.VectorResult{
		{ChunkID: 1, Similarity: 0.9},
		{ChunkID: 2, Similarity: 0.8},
	}
	keyword := []store.KeywordResult{
		{ChunkID: 2, Matches: 5},
		{ChunkID: 3, Matches: 1},
	}

	ranked := applyRRF(vector, keyword, 60)
	require.Len(t, ranked, 3)

	// 2 is in both lists: 1/62 + 1/61 beats 1/61 (chunk 1) and 1/62 (chunk 3).
	assert.Equal(t, int64(2), ranked[0].chunkID)
	assert.Equal(t, int64(1), ranked[1].chunkID)
	assert.Equal(t, int64(3), ranked[2].chunkID)
	assert.Equal(t, 1, ranked[0].rank)
	assert.Equal(t, 3, ranked[2].rank)
}

func TestApplyRRFEmptyInputs(t *testing.T) {
	assert.Empty(t, applyRRF(nil, nil, 60))
}

func TestValidateRequestClampsLimit(t *testing.T) {
	s := New(populatedStore(), &stubEmbedder{})

	req := Request{Query: "q", Limit: 5000}
	require.NoError(t, s.validateRequest(&req))
	assert.Equal(t, MaxLimit, req.Limit)

	req = Request{Query: "q"}
	require.NoError(t, s.validateRequest(&req))
	assert.Equal(t, DefaultLimit, req.Limit)
	assert.Equal(t, DefaultRRFConstant, int(req.RRFConstant))
	assert.Equal(t, DefaultCacheTTL, req.CacheTTL)
}
