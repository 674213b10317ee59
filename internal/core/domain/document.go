package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status tracks a document through the ingestion pipeline.
type Status string

// Document processing states. The only legal transitions are
// pending -> chunked -> indexed, and pending|chunked -> failed.
const (
	StatusPending Status = "pending"
	StatusChunked Status = "chunked"
	StatusIndexed Status = "indexed"
	StatusFailed  Status = "failed"
)

// Document represents one uploaded source document within a collection.
// Documents are created on upload and mutated only by the ingestion
// pipeline; retrieval never modifies them.
type Document struct {
	// ID is derived from the filename and content hash, so re-uploading
	// identical bytes under the same name always yields the same ID.
	ID string

	// CollectionID is the isolated partition this document belongs to
	// (for example, one collection per course).
	CollectionID string

	// Filename is the original name reported by the document source.
	Filename string

	// ContentHash is the hex SHA-256 of the normalised text.
	ContentHash string

	// Content is the full normalised plain text. The core never parses
	// binary formats; it receives already-extracted text.
	Content string

	// Status is the current pipeline state.
	Status Status

	// FailureReason carries a structured reason when Status is failed.
	FailureReason string

	// ChunkCount is the number of chunks produced, set once chunked.
	ChunkCount int

	// UploadedAt is when the document was first seen.
	UploadedAt time.Time

	// IndexedAt is when ingestion last completed successfully.
	IndexedAt time.Time
}

// Chunk is a contiguous span of a document sized for embedding.
// Chunks are immutable once created and owned by their parent document.
type Chunk struct {
	// ID is DocumentID + ":" + Seq, deterministic per document.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Seq is the ordinal position within the document.
	Seq int

	// Content is the text span.
	Content string

	// StartOffset and EndOffset are character (rune) offsets into the
	// source document text, so the span can be located in context.
	StartOffset int
	EndOffset   int

	// Embedding is the vector representation, set during ingestion.
	Embedding []float32
}

// HashContent returns the hex SHA-256 of the given text.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives the stable document identity from the original
// filename and the content hash.
func DocumentID(filename, contentHash string) string {
	sum := sha256.Sum256([]byte(filename + "\x00" + contentHash))
	return hex.EncodeToString(sum[:12])
}

// NewDocument builds a pending document for the given upload.
// If contentHash is empty it is computed from the text.
func NewDocument(collectionID, filename, text, contentHash string) Document {
	if contentHash == "" {
		contentHash = HashContent(text)
	}
	return Document{
		ID:           DocumentID(filename, contentHash),
		CollectionID: collectionID,
		Filename:     filename,
		ContentHash:  contentHash,
		Content:      text,
		Status:       StatusPending,
		UploadedAt:   time.Now().UTC(),
	}
}

// Upload is the input to the ingestion pipeline, as delivered by an
// external document source: normalised text plus identity.
type Upload struct {
	CollectionID string
	Filename     string
	Text         string

	// ContentHash is optional; computed from Text when empty.
	ContentHash string
}
