package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptyChunk     = errors.New("chunk text cannot be empty")
	ErrMissingSource  = errors.New("source path is required")
	ErrInvalidOrdinal = errors.New("ordinal must be >= 0")
	ErrInvalidRank    = errors.New("rank must be >= 1")
)
