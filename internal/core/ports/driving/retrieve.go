package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// Retriever turns a natural-language query into ranked grounding
// passages from one collection.
type Retriever interface {
	// Retrieve embeds the query and returns ranked passages. A
	// collection with no indexed chunks yields an empty result;
	// embedding failures propagate unchanged so callers can distinguish
	// "nothing relevant" from "retrieval unavailable".
	Retrieve(ctx context.Context, query, collectionID string, opts domain.RetrieveOptions) (domain.RetrievalResult, error)
}
