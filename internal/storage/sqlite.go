// Package storage provides the SQLite implementation of Store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/hanron/internal/models"
)

// SQLiteStore implements Store using SQLite with WAL journaling.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		doc_title TEXT,
		doc_path TEXT,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc_index ON chunks(doc_id, chunk_index);

	CREATE TABLE IF NOT EXISTS collection_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// PutChunks inserts or replaces chunks in a single transaction.
func (s *SQLiteStore) PutChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, doc_id, doc_title, doc_path, content, chunk_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range chunks {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocID, c.DocTitle, c.DocPath, c.Content, c.ChunkIndex, c.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetChunk returns a chunk by ID.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*models.Chunk, error) {
	var c models.Chunk
	err := s.db.QueryRowContext(ctx,
		`SELECT id, doc_id, doc_title, doc_path, content, chunk_index, created_at
		 FROM chunks WHERE id = ?`, id,
	).Scan(&c.ID, &c.DocID, &c.DocTitle, &c.DocPath, &c.Content, &c.ChunkIndex, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetChunks returns the chunks for the given IDs, preserving input order.
// IDs with no stored chunk are skipped.
func (s *SQLiteStore) GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, doc_title, doc_path, content, chunk_index, created_at
		 FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Chunk, len(ids))
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.DocTitle, &c.DocPath, &c.Content, &c.ChunkIndex, &c.CreatedAt); err != nil {
			return nil, err
		}
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListChunks returns all chunks ordered by document and chunk index.
func (s *SQLiteStore) ListChunks(ctx context.Context) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, doc_title, doc_path, content, chunk_index, created_at
		 FROM chunks ORDER BY doc_id, chunk_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.DocTitle, &c.DocPath, &c.Content, &c.ChunkIndex, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// DeleteChunksByDoc removes all chunks belonging to a document.
func (s *SQLiteStore) DeleteChunksByDoc(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, docID)
	return err
}

// CountChunks returns the total number of stored chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// SetMeta stores a collection metadata value, replacing any existing one.
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO collection_meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

// GetMeta returns the metadata value for key, or models.ErrNotFound.
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM collection_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, models.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
