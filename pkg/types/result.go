package types

// SearchResult is a single retrieval hit: the chunk text, where it came
// from, and how well it matched.
type SearchResult struct {
	Source  string
	Ordinal int
	Content string

	// Score is the similarity or fused rank score, higher is better.
	Score float64
	// Rank is the 1-based position in the result set.
	Rank int
}

// Validate checks that the result is well-formed.
func (r *SearchResult) Validate() error {
	if r.Content == "" {
		return ErrEmptyChunk
	}
	if r.Source == "" {
		return ErrMissingSource
	}
	if r.Rank < 1 {
		return ErrInvalidRank
	}
	return nil
}
