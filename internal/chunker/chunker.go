// Package chunker splits Documents into bounded, overlapping Chunks for
// embedding and retrieval.
//
// Two splitting modes exist, selected by the file's extension via the
// policy table in policy.go. Code and markup files prefer cutting at
// statement or block boundaries near the size limit; data files are cut on
// raw length with exact overlap. In both modes no chunk exceeds the
// configured maximum size and consecutive chunks share an overlap region so
// meaning is not severed at arbitrary boundaries.
package chunker

import (
	"strings"

	"github.com/ramyad06/cautious-llm/pkg/types"
)

// Default splitting parameters, in bytes.
const (
	DefaultChunkSize = 4000
	DefaultOverlap   = 400
)

// Splitter turns one Document into an ordered Chunk sequence.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a Splitter. Non-positive size falls back to the default;
// overlap is clamped strictly below the chunk size so splitting always
// makes progress.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize returns the configured maximum chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap between consecutive chunks.
func (s *Splitter) Overlap() int { return s.overlap }

// Split produces the ordered chunks of doc. An empty document yields no
// chunks; text at or under the chunk size yields exactly one.
func (s *Splitter) Split(doc types.Document) []types.Chunk {
	if doc.Empty() {
		return nil
	}

	policy := PolicyFor(doc.Source)
	pieces := s.split(doc.Text, policy.Separators)

	chunks := make([]types.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, types.Chunk{
			Source:  doc.Source,
			Ordinal: i,
			Text:    text,
		})
	}
	return chunks
}

// split walks the text emitting segments of at most chunkSize bytes, each
// starting overlap bytes before the previous cut. With separators, the cut
// point backs up to the nearest preferred boundary inside the overlap
// window before resorting to a raw-length cut.
func (s *Splitter) split(text string, separators []string) []string {
	var pieces []string

	for len(text) > 0 {
		cut := s.chunkSize
		if cut >= len(text) {
			pieces = append(pieces, text)
			break
		}

		if len(separators) > 0 {
			cut = s.boundaryCut(text, cut, separators)
		}

		pieces = append(pieces, text[:cut])
		text = text[cut-s.overlap:]
	}

	return pieces
}

// boundaryCut looks back from limit for the highest-preference separator
// within the overlap window and cuts just after it. Falls back to the raw
// limit when no separator is in range.
func (s *Splitter) boundaryCut(text string, limit int, separators []string) int {
	window := s.overlap
	if window > limit {
		window = limit
	}
	floor := limit - window

	for _, sep := range separators {
		idx := strings.LastIndex(text[floor:limit], sep)
		if idx < 0 {
			continue
		}
		cut := floor + idx + len(sep)
		// A cut inside the overlap would stall or rewind the walk.
		if cut > floor && cut > s.overlap {
			return cut
		}
	}
	return limit
}
