// Package store persists chunk embeddings in SQLite and answers
// similarity and keyword queries over them.
//
// The store is rebuild-only: the pipeline wipes the database file before
// each run and appends batches; entries are never updated in place. Two
// drivers are supported behind build tags — mattn/go-sqlite3 with the
// sqlite-vec extension for cgo builds, and modernc.org/sqlite for pure Go
// builds, where similarity is computed in Go over the stored vectors.
package store
