// Package sqlite provides the persistent vector index.
//
// Records are partitioned into collections; each collection pins the
// dimensionality and embedding model of the first record written to
// it. All writes for one document run inside a single transaction, so
// a crash mid-ingest leaves either the whole document or none of it.
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
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lectern/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a SQLite-backed driven.VectorIndex.
type Index struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	metric domain.Metric
	closed bool
}

// Option configures the index.
type Option func(*Index)

// WithMetric sets the similarity metric new collections are created
// with. Defaults to cosine.
func WithMetric(m domain.Metric) Option {
	return func(i *Index) {
		if m.Valid() {
			i.metric = m
		}
	}
}

// Open creates or opens the vector index at the given file path.
// The parent directory is created if missing. The handle is explicit
// and injectable; there is no process-wide singleton.
func Open(path string, opts ...Option) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: index path cannot be empty", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	// WAL mode keeps readers unblocked by the single writer.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	idx := &Index{
		db:     db,
		path:   path,
		metric: domain.MetricCosine,
	}
	for _, opt := range opts {
		opt(idx)
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return idx, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// migrate runs all pending migrations.
func (i *Index) migrate(fsys embed.FS) error {
	_, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := i.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
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
		if _, err := i.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := i.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or replaces a single record.
func (i *Index) Upsert(ctx context.Context, collectionID string, rec driven.Record) error {
	return i.UpsertDocument(ctx, collectionID, rec.DocumentID, []driven.Record{rec})
}

// UpsertDocument writes all records of one document in a single
// transaction. Either every record becomes visible or none does.
func (i *Index) UpsertDocument(
	ctx context.Context, collectionID, documentID string, recs []driven.Record,
) error {
	// The read lock is held for the whole operation so Close cannot
	// pull the database out from under it. SQLite serialises writers
	// itself, so concurrent upserts stay safe under the shared lock.
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return domain.ErrIndexClosed
	}
	if len(recs) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := i.ensureCollection(ctx, tx, collectionID, recs[0]); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors
			(collection_id, chunk_id, document_id, seq, vector, model_id, content, start_offset, end_offset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			seq = excluded.seq,
			vector = excluded.vector,
			model_id = excluded.model_id,
			content = excluded.content,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	dims, modelID, _, err := i.collectionIdentity(ctx, tx, collectionID)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		if rec.DocumentID != documentID {
			return fmt.Errorf("%w: record %s belongs to document %s, not %s",
				domain.ErrIngestion, rec.ChunkID, rec.DocumentID, documentID)
		}
		if len(rec.Vector) != dims {
			return fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
				domain.ErrDimensionMismatch, collectionID, dims, len(rec.Vector))
		}
		if rec.ModelID != modelID {
			return fmt.Errorf("%w: collection %s was built with %q, got %q",
				domain.ErrModelMismatch, collectionID, modelID, rec.ModelID)
		}

		if _, err := stmt.ExecContext(ctx,
			collectionID, rec.ChunkID, rec.DocumentID, rec.Seq,
			float32SliceToBytes(rec.Vector), rec.ModelID, rec.Content,
			rec.StartOffset, rec.EndOffset); err != nil {
			return fmt.Errorf("saving vector %s: %w", rec.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ensureCollection creates the collection row on first write, pinning
// the identity of the given record. Existing collections are left as
// they are; identity validation happens per record.
func (i *Index) ensureCollection(
	ctx context.Context, tx *sql.Tx, collectionID string, first driven.Record,
) error {
	if len(first.Vector) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrDimensionMismatch)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO collections (id, dimensions, model_id, metric)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, collectionID, len(first.Vector), first.ModelID, string(i.metric))
	if err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}
	return nil
}

// collectionIdentity reads the pinned identity of a collection.
func (i *Index) collectionIdentity(
	ctx context.Context, tx *sql.Tx, collectionID string,
) (dims int, modelID string, metric domain.Metric, err error) {
	var metricStr string
	row := tx.QueryRowContext(ctx,
		"SELECT dimensions, model_id, metric FROM collections WHERE id = ?", collectionID)
	if scanErr := row.Scan(&dims, &modelID, &metricStr); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, "", "", domain.ErrNotFound
		}
		return 0, "", "", fmt.Errorf("scanning collection: %w", scanErr)
	}
	return dims, modelID, domain.Metric(metricStr), nil
}

// Query returns up to k hits ordered by descending score, ties broken
// by insertion order. An unknown collection yields no hits.
func (i *Index) Query(
	ctx context.Context, collectionID string, vector []float32, k int, filter *driven.Filter,
) ([]driven.Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, domain.ErrIndexClosed
	}
	if k <= 0 {
		return nil, nil
	}

	var dims int
	var metricStr string
	row := i.db.QueryRowContext(ctx,
		"SELECT dimensions, metric FROM collections WHERE id = ?", collectionID)
	if err := row.Scan(&dims, &metricStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Empty collection, not an error.
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
			domain.ErrDimensionMismatch, collectionID, dims, len(vector))
	}

	query := `
		SELECT chunk_id, document_id, seq, content, vector
		FROM vectors WHERE collection_id = ?`
	args := []any{collectionID}
	if filter != nil && len(filter.DocumentIDs) > 0 {
		query += " AND document_id IN (?" + strings.Repeat(",?", len(filter.DocumentIDs)-1) + ")"
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY id"

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	score := scoreFunc(domain.Metric(metricStr))

	var hits []driven.Hit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.Hit
		var blob []byte
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Seq, &hit.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		hit.Score = score(vector, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteDocument removes every record of the document in one
// statement, so concurrent queries never observe a partial delete.
func (i *Index) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return domain.ErrIndexClosed
	}
	_, err := i.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection_id = ? AND document_id = ?",
		collectionID, documentID)
	if err != nil {
		return fmt.Errorf("deleting document vectors: %w", err)
	}
	return nil
}

// DocumentChunks returns the stored records of one document in
// sequence order.
func (i *Index) DocumentChunks(
	ctx context.Context, collectionID, documentID string,
) ([]driven.Record, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, domain.ErrIndexClosed
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, seq, vector, model_id, content, start_offset, end_offset
		FROM vectors WHERE collection_id = ? AND document_id = ?
		ORDER BY seq
	`, collectionID, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying document vectors: %w", err)
	}
	defer rows.Close()

	var recs []driven.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec driven.Record
		var blob []byte
		if err := rows.Scan(&rec.ChunkID, &rec.DocumentID, &rec.Seq, &blob,
			&rec.ModelID, &rec.Content, &rec.StartOffset, &rec.EndOffset); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Vector = bytesToFloat32Slice(blob)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return recs, nil
}

// Count returns the number of records in the collection.
func (i *Index) Count(ctx context.Context, collectionID string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, domain.ErrIndexClosed
	}
	var count int
	err := i.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE collection_id = ?", collectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}
