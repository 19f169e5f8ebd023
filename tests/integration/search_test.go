package integration

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ramyad06/cautious-llm/internal/config"
	"github.com/ramyad06/cautious-llm/internal/pipeline"
	"github.com/ramyad06/cautious-llm/internal/searcher"
	"github.com/ramyad06/cautious-llm/internal/store"
)

// SearchTestSuite indexes a small fixture repo and searches it end to end:
// real store, real searcher, mock embedder.
type SearchTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.SQLiteStore
	searcher *searcher.Searcher
	embedder *MockEmbedder

	authText string
}

func (s *SearchTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.embedder = NewMockEmbedder(8)

	repoDir := s.T().TempDir()
	s.authText = "func Authenticate(token string) error { return verifyToken(token) }"
	fixtures := map[string]string{
		"auth.go":    s.authText,
		"storage.go": "func Save(record Record) error { return db.Insert(record) }",
		"render.md":  "The renderer draws the dashboard widgets in layout order.",
	}
	for name, content := range fixtures {
		path := filepath.Join(repoDir, name)
		s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := &config.Config{
		RepoPath:     repoDir,
		StorePath:    filepath.Join(s.T().TempDir(), "index.db"),
		BatchSize:    10,
		ChunkSize:    200,
		ChunkOverlap: 20,
	}

	stats, err := pipeline.Rebuild(s.ctx, cfg, s.embedder,
		pipeline.WithLogger(log.New(io.Discard, "", 0)))
	s.Require().NoError(err)
	s.Require().Equal(3, stats.ChunksPersisted, "each fixture fits in one chunk")

	st, err := store.Open(cfg.StorePath)
	s.Require().NoError(err)
	s.store = st
	s.searcher = searcher.New(st, s.embedder)
}

func (s *SearchTestSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *SearchTestSuite) TestVectorSearchFindsIdenticalText() {
	// The mock embedder is deterministic, so querying with a chunk's own
	// text must put that chunk first with similarity 1.
	resp, err := s.searcher.Search(s.ctx, searcher.Request{
		Query: s.authText,
		Mode:  searcher.SearchModeVector,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)

	top := resp.Results[0]
	s.Equal(s.authText, top.Content)
	s.Equal(1, top.Rank)
	s.InDelta(1.0, top.Score, 1e-5)
}

func (s *SearchTestSuite) TestKeywordSearchMatchesOneFile() {
	resp, err := s.searcher.Search(s.ctx, searcher.Request{
		Query: "dashboard",
		Mode:  searcher.SearchModeKeyword,
	})
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 1)
	s.Contains(resp.Results[0].Content, "dashboard widgets")
}

func (s *SearchTestSuite) TestKeywordSearchNoMatches() {
	resp, err := s.searcher.Search(s.ctx, searcher.Request{
		Query: "zzz-not-in-any-fixture",
		Mode:  searcher.SearchModeKeyword,
	})
	s.Require().NoError(err)
	s.Empty(resp.Results)
	s.Equal(0, resp.TotalResults)
}

func (s *SearchTestSuite) TestHybridSearchRanksDoubleMatchFirst() {
	// verifyToken appears literally in auth.go, and the query embeds close
	// to nothing else, so both branches vote for the same chunk.
	resp, err := s.searcher.Search(s.ctx, searcher.Request{
		Query: "verifyToken",
		Mode:  searcher.SearchModeHybrid,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)
	s.Contains(resp.Results[0].Content, "verifyToken")
	s.Equal(searcher.SearchModeHybrid, resp.Mode)
}

func (s *SearchTestSuite) TestLimitIsRespected() {
	resp, err := s.searcher.Search(s.ctx, searcher.Request{
		Query: s.authText,
		Mode:  searcher.SearchModeVector,
		Limit: 1,
	})
	s.Require().NoError(err)
	s.Len(resp.Results, 1)
}

func (s *SearchTestSuite) TestCachedSearchSkipsTheEmbedder() {
	req := searcher.Request{
		Query:    s.authText,
		Mode:     searcher.SearchModeVector,
		UseCache: true,
	}

	first, err := s.searcher.Search(s.ctx, req)
	s.Require().NoError(err)
	s.False(first.CacheHit)

	second, err := s.searcher.Search(s.ctx, req)
	s.Require().NoError(err)
	s.True(second.CacheHit)
	s.Equal(first.Results, second.Results)
}

func TestSearchTestSuite(t *testing.T) {
	suite.Run(t, new(SearchTestSuite))
}
