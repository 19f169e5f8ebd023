// Package types contains the shared value types passed between the
// scanner, chunker, indexing pipeline, and searcher.
//
// All types here are plain data. Document and Chunk are immutable once
// created: the scanner produces Documents, the chunker derives Chunks from
// them, and nothing downstream mutates either.
package types
