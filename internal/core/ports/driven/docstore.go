package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// DocumentStore persists document records and their pipeline status.
// Backed by SQLite; chunk text and vectors live in the VectorIndex.
type DocumentStore interface {
	// Save stores or updates a document.
	Save(ctx context.Context, doc domain.Document) error

	// Get retrieves a document by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByFilename retrieves the document currently registered under
	// a filename within a collection, or domain.ErrNotFound.
	GetByFilename(ctx context.Context, collectionID, filename string) (*domain.Document, error)

	// List returns the documents of a collection, oldest upload first.
	List(ctx context.Context, collectionID string) ([]domain.Document, error)

	// Delete removes a document record.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
