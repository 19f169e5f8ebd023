package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// serializeVector encodes a float32 vector as a little-endian blob.
func serializeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeVector decodes a blob produced by serializeVector.
func deserializeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("malformed vector blob: %d bytes", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Returns 0 for zero-length or mismatched vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// searchVector scans stored embeddings and ranks them by cosine similarity
// in Go. With the vector extension compiled in, similarity could be pushed
// into SQL; the Go path works for both drivers and the index sizes involved.
func searchVector(ctx context.Context, db *sql.DB, query []float32, limit int) ([]VectorResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.source, c.ordinal, c.content, e.vector, e.dimension
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id`)
	if err != nil {
		return nil, fmt.Errorf("vector search query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []VectorResult
	for rows.Next() {
		var (
			r         VectorResult
			blob      []byte
			dimension int
		)
		if err := rows.Scan(&r.ChunkID, &r.Source, &r.Ordinal, &r.Content, &blob, &dimension); err != nil {
			return nil, err
		}
		if dimension != len(query) {
			return nil, fmt.Errorf("%w: stored %d, query %d", ErrDimensionMismatch, dimension, len(query))
		}
		stored, err := deserializeVector(blob)
		if err != nil {
			return nil, err
		}
		r.Similarity = cosineSimilarity(query, stored)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// searchKeyword finds chunks containing the literal query and ranks them by
// occurrence count. Matching is case-insensitive.
func searchKeyword(ctx context.Context, db *sql.DB, query string, limit int) ([]KeywordResult, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT id, source, ordinal, content
		FROM chunks
		WHERE content LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return nil, fmt.Errorf("keyword search query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lower := strings.ToLower(query)
	var results []KeywordResult
	for rows.Next() {
		var r KeywordResult
		if err := rows.Scan(&r.ChunkID, &r.Source, &r.Ordinal, &r.Content); err != nil {
			return nil, err
		}
		r.Matches = strings.Count(strings.ToLower(r.Content), lower)
		if r.Matches == 0 {
			continue
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Matches != results[j].Matches {
			return results[i].Matches > results[j].Matches
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// escapeLike escapes SQL LIKE metacharacters in a literal query.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
