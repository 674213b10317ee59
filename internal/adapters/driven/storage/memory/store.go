// Package memory provides an in-memory document store for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store keeps document records in a map guarded by a mutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{docs: make(map[string]domain.Document)}
}

// Save stores or updates a document.
func (s *Store) Save(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

// Get retrieves a document by ID.
func (s *Store) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetByFilename retrieves the document registered under a filename
// within a collection.
func (s *Store) GetByFilename(
	_ context.Context, collectionID, filename string,
) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.CollectionID == collectionID && doc.Filename == filename {
			d := doc
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns the documents of a collection, oldest upload first.
func (s *Store) List(_ context.Context, collectionID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, doc := range s.docs {
		if doc.CollectionID == collectionID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(a, b int) bool {
		if docs[a].UploadedAt.Equal(docs[b].UploadedAt) {
			return docs[a].ID < docs[b].ID
		}
		return docs[a].UploadedAt.Before(docs[b].UploadedAt)
	})
	return docs, nil
}

// Delete removes a document record.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
