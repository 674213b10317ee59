package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid chunking or index configuration.
	// Fatal at setup, never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates a vector's dimensionality differs
	// from the collection's established dimensionality. Requires operator
	// intervention, typically a full re-ingestion of the collection.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrModelMismatch indicates an embedding was produced by a different
	// model than the one the collection was built with. Vectors from
	// different models are never compared in the same collection.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrEmbeddingService indicates the embedding capability failed at
	// the transport or model level. Transient; callers may retry.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrLLMService indicates the generation capability failed.
	ErrLLMService = errors.New("llm service failure")

	// ErrTimeout indicates a blocking operation exceeded the caller's
	// deadline. Transient; callers may retry with backoff.
	ErrTimeout = errors.New("operation timed out")

	// ErrIngestion indicates an unexpected, unclassified ingestion
	// failure. The document is left failed with no partial index entries.
	ErrIngestion = errors.New("ingestion failure")

	// ErrIndexClosed indicates use of a vector index after Close.
	ErrIndexClosed = errors.New("vector index closed")
)

// Transient reports whether an error is worth retrying under a
// bounded retry policy.
func Transient(err error) bool {
	return errors.Is(err, ErrEmbeddingService) || errors.Is(err, ErrTimeout)
}
