// ABOUTME: SQLite implementation of DocumentStore
// ABOUTME: A document and all its chunks are written in one transaction

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveDocument stores doc and its chunk texts. doc.ID and doc.CreatedAt are
// filled in when empty and doc.Chunks is set to len(chunks).
// Returns ErrDuplicateDocument if content with the same hash is indexed.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *Document, chunks []string) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.Chunks = len(chunks)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, sha256, chunks, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.SHA256, doc.Chunks, doc.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateDocument
		}
		return fmt.Errorf("inserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (document_id, seq, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, text := range chunks {
		if _, err := stmt.ExecContext(ctx, doc.ID, i, text); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}

	s.logger.Debug("saved document", "id", doc.ID, "filename", doc.Filename, "chunks", doc.Chunks)
	return nil
}

// GetDocumentByHash looks up an indexed document by content hash.
// Returns ErrNotFound if none matches.
func (s *SQLiteStore) GetDocumentByHash(ctx context.Context, sha256 string) (*Document, error) {
	var d Document
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, sha256, chunks, created_at
		FROM documents WHERE sha256 = ?
	`, sha256).Scan(&d.ID, &d.Filename, &d.SHA256, &d.Chunks, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}

	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &d, nil
}

// ListChunks returns every chunk with its document's filename as Source.
func (s *SQLiteStore) ListChunks(ctx context.Context) ([]*Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.document_id, c.seq, d.filename, c.text
		FROM chunks c JOIN documents d ON d.id = c.document_id
		ORDER BY d.created_at, c.document_id, c.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.DocumentID, &c.Seq, &c.Source, &c.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}
