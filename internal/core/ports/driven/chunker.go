package driven

import "github.com/custodia-labs/lectern/internal/core/domain"

// Chunker splits normalised document text into overlapping spans
// suitable for embedding. Identical input always produces an identical
// chunk sequence.
type Chunker interface {
	// Chunk returns the ordered chunk sequence for the text. Empty text
	// yields an empty sequence, not an error. Returned chunks carry Seq,
	// Content and offsets; ID and DocumentID are assigned by the caller.
	Chunk(text string) ([]domain.Chunk, error)
}
