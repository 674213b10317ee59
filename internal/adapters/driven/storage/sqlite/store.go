// Package sqlite provides the SQLite-backed document store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lectern/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store persists document records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the document store at the given file path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: store path cannot be empty", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Save stores or updates a document.
func (s *Store) Save(ctx context.Context, doc domain.Document) error {
	var indexedAt any
	if !doc.IndexedAt.IsZero() {
		indexedAt = doc.IndexedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents
			(id, collection_id, filename, content_hash, content, status, failure_reason, chunk_count, uploaded_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_id = excluded.collection_id,
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			content = excluded.content,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			chunk_count = excluded.chunk_count,
			indexed_at = excluded.indexed_at
	`, doc.ID, doc.CollectionID, doc.Filename, doc.ContentHash, doc.Content,
		string(doc.Status), doc.FailureReason, doc.ChunkCount, doc.UploadedAt, indexedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, filename, content_hash, content, status, failure_reason, chunk_count, uploaded_at, indexed_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetByFilename retrieves the document registered under a filename
// within a collection.
func (s *Store) GetByFilename(
	ctx context.Context, collectionID, filename string,
) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, filename, content_hash, content, status, failure_reason, chunk_count, uploaded_at, indexed_at
		FROM documents WHERE collection_id = ? AND filename = ?
	`, collectionID, filename)
	return scanDocument(row)
}

// List returns the documents of a collection, oldest upload first.
func (s *Store) List(ctx context.Context, collectionID string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, filename, content_hash, content, status, failure_reason, chunk_count, uploaded_at, indexed_at
		FROM documents WHERE collection_id = ?
		ORDER BY uploaded_at, id
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document record.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var indexedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.CollectionID, &doc.Filename, &doc.ContentHash,
		&doc.Content, &status, &doc.FailureReason, &doc.ChunkCount,
		&doc.UploadedAt, &indexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.Status(status)
	if indexedAt.Valid {
		doc.IndexedAt = indexedAt.Time
	}
	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var indexedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &doc.CollectionID, &doc.Filename, &doc.ContentHash,
		&doc.Content, &status, &doc.FailureReason, &doc.ChunkCount,
		&doc.UploadedAt, &indexedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.Status(status)
	if indexedAt.Valid {
		doc.IndexedAt = indexedAt.Time
	}
	return &doc, nil
}
