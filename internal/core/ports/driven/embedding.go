package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// EmbeddingService maps text to fixed-dimension vectors.
//
// The service is a pure mapping with explicit failure signalling: it
// performs no retries of its own. Transport or model failures wrap
// domain.ErrEmbeddingService; exceeded deadlines wrap domain.ErrTimeout.
// The caller decides retry policy.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order and length. Implementations split large inputs into
	// provider-sized batches internally; batching never changes output
	// order or values versus unbatched calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Identity declares the model, dimensionality and native metric.
	// Collections pin this identity on first insert.
	Identity() domain.EmbedderIdentity

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
