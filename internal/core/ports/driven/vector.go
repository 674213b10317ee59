package driven

import "context"

// Record is one (vector, passage, metadata) entry in a vector index.
type Record struct {
	// ChunkID identifies the record; upserting an existing ChunkID
	// replaces it in place.
	ChunkID string

	// DocumentID links the record to its parent document. Deletion and
	// crash-atomicity operate at document granularity.
	DocumentID string

	// Seq is the chunk's ordinal position within the document.
	Seq int

	// Vector is the embedding. Its length must match the collection's
	// established dimensionality.
	Vector []float32

	// ModelID names the embedding model that produced the vector.
	ModelID string

	// Content is the chunk text, stored alongside the vector so
	// retrieval needs no second lookup.
	Content string

	// StartOffset and EndOffset locate the chunk in the source text.
	StartOffset int
	EndOffset   int
}

// Hit is one similarity search result.
type Hit struct {
	ChunkID    string
	DocumentID string
	Seq        int
	Content    string

	// Score is the relevance under the collection's metric; higher is
	// more relevant for every supported metric.
	Score float64
}

// Filter restricts a query to a subset of the collection.
type Filter struct {
	// DocumentIDs, when non-empty, limits hits to these documents.
	DocumentIDs []string
}

// VectorIndex is a persistent, collection-partitioned store of
// embedding records supporting k-nearest-neighbour queries.
//
// A collection's dimensionality, model ID and metric are pinned by the
// first record written to it; later writes with a different identity
// fail with domain.ErrDimensionMismatch or domain.ErrModelMismatch and
// leave the index unchanged. Queries are always scoped to exactly one
// collection.
type VectorIndex interface {
	// Upsert inserts or replaces a single record.
	Upsert(ctx context.Context, collectionID string, rec Record) error

	// UpsertDocument writes all records of one document atomically:
	// after a crash either every record is visible or none is. Records
	// are applied in slice order.
	UpsertDocument(ctx context.Context, collectionID, documentID string, recs []Record) error

	// Query returns up to k hits ordered by descending score under the
	// collection's metric, ties broken by insertion order. An unknown
	// collection yields no hits, not an error.
	Query(ctx context.Context, collectionID string, vector []float32, k int, filter *Filter) ([]Hit, error)

	// DeleteDocument removes every record belonging to the document,
	// atomically with respect to concurrent queries.
	DeleteDocument(ctx context.Context, collectionID, documentID string) error

	// DocumentChunks returns the stored records of one document in
	// sequence order, for context assembly.
	DocumentChunks(ctx context.Context, collectionID, documentID string) ([]Record, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context, collectionID string) (int, error)

	// Close releases resources. Further calls fail with
	// domain.ErrIndexClosed.
	Close() error
}
