package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// Chunk is a bounded segment of one Document's text. Ordinal is the chunk's
// position within its source document, starting at 0.
type Chunk struct {
	Source  string
	Ordinal int
	Text    string
}

// Validate checks the chunk against the pipeline invariants.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return ErrEmptyChunk
	}
	if c.Source == "" {
		return ErrMissingSource
	}
	if c.Ordinal < 0 {
		return ErrInvalidOrdinal
	}
	return nil
}

// Hash returns the hex-encoded SHA-256 of the chunk text. Used as the
// embedding-cache key.
func (c *Chunk) Hash() string {
	sum := sha256.Sum256([]byte(c.Text))
	return hex.EncodeToString(sum[:])
}
