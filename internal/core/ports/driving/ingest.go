package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// Ingestor turns uploaded documents into indexed, queryable chunks.
type Ingestor interface {
	// Ingest runs the pipeline for one upload and returns the document
	// with its final status. Expected failure modes (unparseable text,
	// exhausted embedding retries, index identity mismatch) are reported
	// through the status and failure reason, not the error. Only
	// unexpected errors are returned, wrapping domain.ErrIngestion.
	Ingest(ctx context.Context, up domain.Upload) (domain.Document, error)

	// Delete removes a document and cascades to its indexed chunks.
	Delete(ctx context.Context, collectionID, documentID string) error
}
