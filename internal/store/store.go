// Package store is the document registry: one row per ingested document,
// keyed for dedup by content hash, plus the chunks produced for it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// ErrNotFound is returned when a document id has no row.
var ErrNotFound = errors.New("document not found")

// Document statuses.
const (
	StatusProcessed = "processed"
	StatusIndexed   = "indexed"
)

// Document is a registry row.
type Document struct {
	ID          string    `json:"doc_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	Status      string    `json:"status"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoredChunk is a chunk with its registry id.
type StoredChunk struct {
	ID    string `json:"chunk_id"`
	DocID string `json:"doc_id"`
	doctree.Chunk
}

// Store is a SQLite-backed document registry.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		url          TEXT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL,
		status       TEXT NOT NULL,
		chunk_count  INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at DESC);

	CREATE TABLE IF NOT EXISTS chunks (
		id          TEXT PRIMARY KEY,
		doc_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL,
		text        TEXT NOT NULL,
		tokens      INTEGER NOT NULL,
		metadata    TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, chunk_index);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PutDocument inserts or replaces a document and all of its chunks in one
// transaction. The returned chunks carry their new ids.
func (s *Store) PutDocument(ctx context.Context, doc Document, chunks []doctree.Chunk) ([]StoredChunk, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.Status == "" {
		doc.Status = StatusProcessed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, url, title, content_hash, status, chunk_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   url = excluded.url, title = excluded.title, content_hash = excluded.content_hash,
		   status = excluded.status, chunk_count = excluded.chunk_count, updated_at = excluded.updated_at`,
		doc.ID, doc.URL, doc.Title, doc.ContentHash, doc.Status, len(chunks),
		doc.CreatedAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("upsert document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, doc.ID); err != nil {
		return nil, fmt.Errorf("clear chunks: %w", err)
	}

	stored := make([]StoredChunk, 0, len(chunks))
	for _, c := range chunks {
		var meta *string
		if len(c.Metadata) > 0 {
			b, err := json.Marshal(c.Metadata)
			if err != nil {
				return nil, fmt.Errorf("marshal chunk metadata: %w", err)
			}
			m := string(b)
			meta = &m
		}
		id := uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, doc_id, chunk_index, text, tokens, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
			id, doc.ID, c.Index, c.Text, c.Tokens, meta)
		if err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
		stored = append(stored, StoredChunk{ID: id, DocID: doc.ID, Chunk: c})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// SetStatus updates a document's status.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return requireAffected(res)
}

const documentColumns = `id, url, title, content_hash, status, chunk_count, created_at, updated_at`

// GetDocument returns the document with the given id or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByHash returns the most recent document with the given content hash,
// or nil when there is none.
func (s *Store) FindByHash(ctx context.Context, hash string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ? ORDER BY updated_at DESC LIMIT 1`, hash)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns documents newest first. A limit <= 0 returns all.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetChunks returns a document's chunks in order.
func (s *Store) GetChunks(ctx context.Context, docID string) ([]StoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, chunk_index, text, tokens, metadata FROM chunks WHERE doc_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	chunks := []StoredChunk{}
	for rows.Next() {
		var c StoredChunk
		var meta sql.NullString
		if err := rows.Scan(&c.ID, &c.DocID, &c.Index, &c.Text, &c.Tokens, &meta); err != nil {
			return nil, err
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &c.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var d Document
	var createdAt, updatedAt string
	err := row.Scan(&d.ID, &d.URL, &d.Title, &d.ContentHash, &d.Status, &d.ChunkCount, &createdAt, &updatedAt)
	if err != nil {
		return d, err
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return d, nil
}
