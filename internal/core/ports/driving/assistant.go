package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// Assistant consumes retrieved passages through the external
// generation capability: grounded answers and course-material
// generation.
type Assistant interface {
	// Ask answers a question grounded in the collection's documents.
	Ask(ctx context.Context, collectionID, question string) (domain.Answer, error)

	// GenerateAssignment produces assignment questions from the indexed
	// content of the given documents.
	GenerateAssignment(ctx context.Context, collectionID string, documentIDs []string, numQuestions int, difficulty string) ([]domain.GeneratedQuestion, error)

	// GenerateMCQs produces multiple choice questions from the indexed
	// content of the given documents.
	GenerateMCQs(ctx context.Context, collectionID string, documentIDs []string, numQuestions int, difficulty string) ([]domain.GeneratedQuestion, error)
}
