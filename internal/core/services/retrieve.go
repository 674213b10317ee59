package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure RetrieveService implements the interface.
var _ driving.Retriever = (*RetrieveService)(nil)

// DefaultTopK is used when RetrieveOptions leaves TopK unset.
const DefaultTopK = 5

// RetrieveService answers queries with ranked passages from one
// collection.
type RetrieveService struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
}

// NewRetrieveService creates the retrieval service.
func NewRetrieveService(index driven.VectorIndex, embedder driven.EmbeddingService) *RetrieveService {
	return &RetrieveService{
		index:    index,
		embedder: embedder,
	}
}

// Retrieve embeds the query, overfetches candidates from the index and
// applies post-filters. Embedding failures propagate unchanged.
func (s *RetrieveService) Retrieve(
	ctx context.Context, query, collectionID string, opts domain.RetrieveOptions,
) (domain.RetrievalResult, error) {
	result := domain.RetrievalResult{
		Query:        query,
		CollectionID: collectionID,
	}

	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	factor := opts.OverfetchFactor
	if factor < 1 {
		factor = domain.DefaultOverfetchFactor
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return result, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.index.Query(ctx, collectionID, vector, opts.TopK*factor, nil)
	if err != nil {
		return result, fmt.Errorf("querying index: %w", err)
	}
	logger.Debug("retrieved %d candidates for %q", len(hits), query)

	perDoc := make(map[string]int)
	for _, hit := range hits {
		if opts.MinScore != nil && hit.Score < *opts.MinScore {
			continue
		}
		if opts.MaxChunksPerDocument > 0 {
			if perDoc[hit.DocumentID] >= opts.MaxChunksPerDocument {
				continue
			}
			perDoc[hit.DocumentID]++
		}
		result.Passages = append(result.Passages, domain.Passage{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			Seq:        hit.Seq,
			Content:    hit.Content,
			Score:      hit.Score,
		})
		if len(result.Passages) == opts.TopK {
			break
		}
	}
	return result, nil
}
