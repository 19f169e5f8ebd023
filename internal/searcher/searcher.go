// Package searcher answers queries against the built index. It supports
// pure vector search, pure keyword search, and a hybrid mode that runs both
// and fuses the rankings with Reciprocal Rank Fusion.
package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/store"
	"github.com/ramyad06/cautious-llm/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector + keyword with RRF
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // Keyword search only
)

// Defaults applied by validateRequest.
const (
	DefaultLimit       = 10
	MaxLimit           = 100
	DefaultRRFConstant = 60
	DefaultCacheTTL    = 1 * time.Hour
)

// Request contains parameters for a search operation
type Request struct {
	Query       string
	Limit       int
	Mode        SearchMode
	UseCache    bool
	CacheTTL    time.Duration
	RRFConstant float64 // k value for Reciprocal Rank Fusion
}

// Response contains search results and metadata
type Response struct {
	Results        []types.SearchResult
	TotalResults   int
	Mode           SearchMode
	Duration       time.Duration
	CacheHit       bool
	VectorResults  int
	KeywordResults int
}

// cacheEntry is a cached response with an expiration time.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher coordinates search operations across vector and keyword search
type Searcher struct {
	store    store.Store
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// New creates a Searcher over an open store.
func New(st store.Store, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Cannot happen with a positive size.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Searcher{
		store:    st,
		embedder: emb,
		cache:    cache,
	}
}

// Search performs a search based on the request parameters.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *Response
	var err error
	switch req.Mode {
	case SearchModeHybrid:
		response, err = s.hybridSearch(ctx, req)
	case SearchModeVector:
		response, err = s.vectorSearch(ctx, req)
	case SearchModeKeyword:
		response, err = s.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.Mode = req.Mode

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// hybridSearch runs vector and keyword search concurrently and combines the
// rankings with Reciprocal Rank Fusion. Both branches over-fetch so fusion
// has enough candidates.
func (s *Searcher) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	var (
		vectorResults  []store.VectorResult
		keywordResults []store.KeywordResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := s.embedder.EmbedQuery(gctx, req.Query)
		if err != nil {
			return fmt.Errorf("failed to embed query: %w", err)
		}
		vectorResults, err = s.store.SearchVector(gctx, vec, req.Limit*2)
		return err
	})
	g.Go(func() error {
		var err error
		keywordResults, err = s.store.SearchKeyword(gctx, req.Query, req.Limit*2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := applyRRF(vectorResults, keywordResults, req.RRFConstant)
	results, err := s.fetchResults(ctx, ranked, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:        results,
		TotalResults:   len(results),
		VectorResults:  len(vectorResults),
		KeywordResults: len(keywordResults),
	}, nil
}

// vectorSearch performs only vector similarity search.
func (s *Searcher) vectorSearch(ctx context.Context, req Request) (*Response, error) {
	vec, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vectorResults, err := s.store.SearchVector(ctx, vec, req.Limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(vectorResults))
	for i, vr := range vectorResults {
		ranked[i] = rankedResult{chunkID: vr.ChunkID, score: vr.Similarity, rank: i + 1}
	}

	results, err := s.fetchResults(ctx, ranked, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: len(vectorResults),
	}, nil
}

// keywordSearch performs only keyword search.
func (s *Searcher) keywordSearch(ctx context.Context, req Request) (*Response, error) {
	keywordResults, err := s.store.SearchKeyword(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(keywordResults))
	for i, kr := range keywordResults {
		ranked[i] = rankedResult{chunkID: kr.ChunkID, score: float64(kr.Matches), rank: i + 1}
	}

	results, err := s.fetchResults(ctx, ranked, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:        results,
		TotalResults:   len(results),
		KeywordResults: len(keywordResults),
	}, nil
}

// rankedResult is a chunk with its relevance score and rank.
type rankedResult struct {
	chunkID int64
	score   float64
	rank    int
}

// applyRRF combines vector and keyword rankings.
// RRF formula: RRF(d) = sum over rankings of 1/(k + rank(d)).
func applyRRF(vectorResults []store.VectorResult, keywordResults []store.KeywordResult, k float64) []rankedResult {
	if k == 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[int64]float64)
	for rank, vr := range vectorResults {
		scores[vr.ChunkID] += 1.0 / (k + float64(rank+1))
	}
	for rank, kr := range keywordResults {
		scores[kr.ChunkID] += 1.0 / (k + float64(rank+1))
	}

	results := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rankedResult{chunkID: chunkID, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunkID < results[j].chunkID
	})
	for i := range results {
		results[i].rank = i + 1
	}
	return results
}

// fetchResults loads chunk content for the top ranked hits. Chunks that
// vanished between ranking and loading are skipped.
func (s *Searcher) fetchResults(ctx context.Context, ranked []rankedResult, limit int) ([]types.SearchResult, error) {
	if limit > len(ranked) {
		limit = len(ranked)
	}

	results := make([]types.SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		rr := ranked[i]
		chunk, err := s.store.GetChunk(ctx, rr.chunkID)
		if err != nil {
			continue
		}
		results = append(results, types.SearchResult{
			Source:  chunk.Source,
			Ordinal: chunk.Ordinal,
			Content: chunk.Content,
			Score:   rr.score,
			Rank:    rr.rank,
		})
	}
	return results, nil
}

// validateRequest fills defaults and rejects unusable requests.
func (s *Searcher) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.Mode == "" {
		req.Mode = SearchModeHybrid
	}
	if req.RRFConstant == 0 {
		req.RRFConstant = DefaultRRFConstant
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}
	return nil
}

// checkCache returns a copy of a fresh cached response, or nil on miss.
func (s *Searcher) checkCache(req Request) *Response {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

// storeInCache saves a deep copy of the response under the query hash.
func (s *Searcher) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}
	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops all cached queries. Called after a rebuild.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copyResponse creates a deep copy so cached entries cannot be mutated by
// callers.
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}

// computeQueryHash computes a stable hash for a search request.
func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	fmt.Fprintf(&data, "%d", req.Limit)
	return sha256.Sum256([]byte(data.String()))
}
