// Package services implements the core application services behind the
// driving ports. Services depend only on driven ports and domain types;
// adapters are injected at construction.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: chunk, embed, index.
type IngestService struct {
	docStore driven.DocumentStore
	index    driven.VectorIndex
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	retry    domain.RetryPolicy
}

// NewIngestService creates the ingestion pipeline service.
func NewIngestService(
	docStore driven.DocumentStore,
	index driven.VectorIndex,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	retry domain.RetryPolicy,
) *IngestService {
	if retry.MaxAttempts <= 0 {
		retry = domain.DefaultRetryPolicy()
	}
	return &IngestService{
		docStore: docStore,
		index:    index,
		chunker:  chunker,
		embedder: embedder,
		retry:    retry,
	}
}

// Ingest runs the pipeline for one upload. Re-uploading unchanged
// content is a no-op; changed content under a known filename replaces
// the previous document and all its chunks.
func (s *IngestService) Ingest(ctx context.Context, up domain.Upload) (domain.Document, error) {
	if up.CollectionID == "" || up.Filename == "" {
		return domain.Document{}, fmt.Errorf(
			"%w: collection and filename are required", domain.ErrIngestion)
	}

	logger.Section("Ingest " + up.Filename)

	contentHash := up.ContentHash
	if contentHash == "" {
		contentHash = domain.HashContent(up.Text)
	}

	existing, err := s.docStore.GetByFilename(ctx, up.CollectionID, up.Filename)
	switch {
	case err == nil:
		if existing.ContentHash == contentHash && existing.Status == domain.StatusIndexed {
			logger.Info("unchanged content for %s, skipping", up.Filename)
			return *existing, nil
		}
		// Changed or previously failed content replaces the old
		// document entirely so no stale chunks survive.
		logger.Info("replacing previous version of %s", up.Filename)
		if err := s.removeDocument(ctx, up.CollectionID, existing.ID); err != nil {
			return domain.Document{}, fmt.Errorf("%w: removing previous version: %v",
				domain.ErrIngestion, err)
		}
	case errors.Is(err, domain.ErrNotFound):
		// First upload of this filename.
	default:
		return domain.Document{}, fmt.Errorf("%w: looking up document: %v", domain.ErrIngestion, err)
	}

	doc := domain.NewDocument(up.CollectionID, up.Filename, up.Text, contentHash)
	if err := s.docStore.Save(ctx, doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: saving document: %v", domain.ErrIngestion, err)
	}

	chunks, err := s.chunker.Chunk(doc.Content)
	if err != nil {
		return s.fail(ctx, doc, fmt.Sprintf("chunking failed: %v", err))
	}
	if len(chunks) == 0 {
		return s.fail(ctx, doc, "document produced no chunks")
	}

	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].ID = fmt.Sprintf("%s:%d", doc.ID, chunks[i].Seq)
	}

	doc.Status = domain.StatusChunked
	doc.ChunkCount = len(chunks)
	if err := s.docStore.Save(ctx, doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: saving document: %v", domain.ErrIngestion, err)
	}
	logger.Debug("chunked %s into %d chunks", doc.Filename, len(chunks))

	embeddings, err := s.embedWithRetry(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return doc, fmt.Errorf("%w: embedding: %v", domain.ErrIngestion, err)
		}
		return s.fail(ctx, doc, fmt.Sprintf("embedding failed: %v", err))
	}

	identity := s.embedder.Identity()
	records := make([]driven.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = driven.Record{
			ChunkID:     chunk.ID,
			DocumentID:  doc.ID,
			Seq:         chunk.Seq,
			Vector:      embeddings[i],
			ModelID:     identity.ModelID,
			Content:     chunk.Content,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
		}
	}

	if err := s.index.UpsertDocument(ctx, doc.CollectionID, doc.ID, records); err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) || errors.Is(err, domain.ErrModelMismatch) {
			return s.fail(ctx, doc, fmt.Sprintf("index rejected document: %v", err))
		}
		// Unexpected index failure: make sure no partial document
		// lingers, record the failure on the document, then surface
		// the error.
		if delErr := s.index.DeleteDocument(ctx, doc.CollectionID, doc.ID); delErr != nil {
			logger.Warn("cleanup after failed upsert: %v", delErr)
		}
		doc.Status = domain.StatusFailed
		doc.FailureReason = fmt.Sprintf("indexing failed: %v", err)
		if saveErr := s.docStore.Save(ctx, doc); saveErr != nil {
			logger.Warn("recording index failure: %v", saveErr)
		}
		return doc, fmt.Errorf("%w: indexing document: %v", domain.ErrIngestion, err)
	}

	doc.Status = domain.StatusIndexed
	doc.IndexedAt = time.Now().UTC()
	if err := s.docStore.Save(ctx, doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: saving document: %v", domain.ErrIngestion, err)
	}
	logger.Info("indexed %s (%d chunks)", doc.Filename, doc.ChunkCount)
	return doc, nil
}

// Delete removes a document and cascades to its indexed chunks.
func (s *IngestService) Delete(ctx context.Context, collectionID, documentID string) error {
	return s.removeDocument(ctx, collectionID, documentID)
}

// removeDocument deletes the chunks first so a crash in between leaves
// a document record without chunks rather than orphaned chunks.
func (s *IngestService) removeDocument(ctx context.Context, collectionID, documentID string) error {
	if err := s.index.DeleteDocument(ctx, collectionID, documentID); err != nil {
		return fmt.Errorf("deleting document chunks: %w", err)
	}
	if err := s.docStore.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document record: %w", err)
	}
	return nil
}

// embedWithRetry embeds all chunk texts, retrying transient failures
// per the configured policy.
func (s *IngestService) embedWithRetry(
	ctx context.Context, chunks []domain.Chunk,
) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var lastErr error
	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying embedding, attempt %d of %d", attempt+1, s.retry.MaxAttempts)
			if err := s.retry.Wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			if len(embeddings) != len(texts) {
				return nil, fmt.Errorf("%w: requested %d embeddings, got %d",
					domain.ErrEmbeddingService, len(texts), len(embeddings))
			}
			return embeddings, nil
		}

		lastErr = err
		if !domain.Transient(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

// fail records an expected pipeline failure on the document. The
// failure travels through the status, not the returned error.
func (s *IngestService) fail(
	ctx context.Context, doc domain.Document, reason string,
) (domain.Document, error) {
	logger.Warn("ingest of %s failed: %s", doc.Filename, reason)
	doc.Status = domain.StatusFailed
	doc.FailureReason = reason
	if err := s.docStore.Save(ctx, doc); err != nil {
		return doc, fmt.Errorf("%w: recording failure: %v", domain.ErrIngestion, err)
	}
	return doc, nil
}
