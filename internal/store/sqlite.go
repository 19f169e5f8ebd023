package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// SQLiteStore implements the Store interface on a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the store at path and applies
// migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Wipe removes the persisted store at path, including WAL side files.
// Missing files are fine: a fresh target wipes to nothing.
func Wipe(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}

	// WAL mode for better read concurrency during searches.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Path returns the on-disk location of the store.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddBatch persists every entry of the batch in one transaction.
func (s *SQLiteStore) AddBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertChunk, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (source, ordinal, content) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer func() { _ = insertChunk.Close() }()

	insertEmbedding, err := tx.PrepareContext(ctx,
		"INSERT INTO embeddings (chunk_id, vector, dimension, provider) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare embedding insert: %w", err)
	}
	defer func() { _ = insertEmbedding.Close() }()

	for i := range entries {
		e := &entries[i]
		if err := e.Chunk.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %d: empty vector", i)
		}

		res, err := insertChunk.ExecContext(ctx, e.Chunk.Source, e.Chunk.Ordinal, e.Chunk.Text)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("chunk %d id: %w", i, err)
		}

		blob := serializeVector(e.Vector)
		if _, err := insertEmbedding.ExecContext(ctx, chunkID, blob, len(e.Vector), ""); err != nil {
			return fmt.Errorf("insert embedding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// SearchVector returns the top-k chunks by cosine similarity to query.
func (s *SQLiteStore) SearchVector(ctx context.Context, query []float32, limit int) ([]VectorResult, error) {
	if limit <= 0 {
		return []VectorResult{}, nil
	}
	return searchVector(ctx, s.db, query, limit)
}

// SearchKeyword returns chunks containing the literal query, ranked by how
// often it appears.
func (s *SQLiteStore) SearchKeyword(ctx context.Context, query string, limit int) ([]KeywordResult, error) {
	if limit <= 0 || query == "" {
		return []KeywordResult{}, nil
	}
	return searchKeyword(ctx, s.db, query, limit)
}

// GetChunk loads one stored chunk by ID.
func (s *SQLiteStore) GetChunk(ctx context.Context, id int64) (*ChunkRow, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, source, ordinal, content FROM chunks WHERE id = ?", id)

	var c ChunkRow
	if err := row.Scan(&c.ID, &c.Source, &c.Ordinal, &c.Content); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Count returns the number of persisted entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings")
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Sources returns the distinct source paths represented in the store.
func (s *SQLiteStore) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT source FROM chunks ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
