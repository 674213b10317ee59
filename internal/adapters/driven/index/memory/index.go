// Package memory provides an in-memory vector index with the same
// semantics as the SQLite implementation. Intended for tests and
// ephemeral runs; nothing survives process exit.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored record plus its insertion sequence, used for
// deterministic tie-breaking.
type entry struct {
	rec      driven.Record
	inserted int
}

// collection holds records and the pinned embedding identity.
type collection struct {
	dims    int
	modelID string
	byChunk map[string]*entry
	nextSeq int
}

// Index is an in-memory driven.VectorIndex.
type Index struct {
	mu          sync.RWMutex
	metric      domain.Metric
	collections map[string]*collection
	closed      bool
}

// New creates an empty in-memory index using the given metric, or
// cosine when the metric is invalid.
func New(metric domain.Metric) *Index {
	if !metric.Valid() {
		metric = domain.MetricCosine
	}
	return &Index{
		metric:      metric,
		collections: make(map[string]*collection),
	}
}

// Upsert inserts or replaces a single record.
func (i *Index) Upsert(ctx context.Context, collectionID string, rec driven.Record) error {
	return i.UpsertDocument(ctx, collectionID, rec.DocumentID, []driven.Record{rec})
}

// UpsertDocument applies all records of one document atomically: the
// records are validated first, then inserted under one lock hold.
func (i *Index) UpsertDocument(
	_ context.Context, collectionID, documentID string, recs []driven.Record,
) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return domain.ErrIndexClosed
	}
	if len(recs) == 0 {
		return nil
	}

	col, ok := i.collections[collectionID]
	if !ok {
		if len(recs[0].Vector) == 0 {
			return fmt.Errorf("%w: empty vector", domain.ErrDimensionMismatch)
		}
		col = &collection{
			dims:    len(recs[0].Vector),
			modelID: recs[0].ModelID,
			byChunk: make(map[string]*entry),
		}
	}

	// Validate before mutating so a bad batch leaves no trace.
	for _, rec := range recs {
		if rec.DocumentID != documentID {
			return fmt.Errorf("%w: record %s belongs to document %s, not %s",
				domain.ErrIngestion, rec.ChunkID, rec.DocumentID, documentID)
		}
		if len(rec.Vector) != col.dims {
			return fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
				domain.ErrDimensionMismatch, collectionID, col.dims, len(rec.Vector))
		}
		if rec.ModelID != col.modelID {
			return fmt.Errorf("%w: collection %s was built with %q, got %q",
				domain.ErrModelMismatch, collectionID, col.modelID, rec.ModelID)
		}
	}

	i.collections[collectionID] = col
	for _, rec := range recs {
		if existing, ok := col.byChunk[rec.ChunkID]; ok {
			existing.rec = rec // Replace in place, keeping insertion order.
			continue
		}
		col.byChunk[rec.ChunkID] = &entry{rec: rec, inserted: col.nextSeq}
		col.nextSeq++
	}
	return nil
}

// Query returns up to k hits ordered by descending score, ties broken
// by insertion order.
func (i *Index) Query(
	_ context.Context, collectionID string, vector []float32, k int, filter *driven.Filter,
) ([]driven.Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, domain.ErrIndexClosed
	}
	if k <= 0 {
		return nil, nil
	}

	col, ok := i.collections[collectionID]
	if !ok {
		return nil, nil
	}
	if len(vector) != col.dims {
		return nil, fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
			domain.ErrDimensionMismatch, collectionID, col.dims, len(vector))
	}

	var allowed map[string]bool
	if filter != nil && len(filter.DocumentIDs) > 0 {
		allowed = make(map[string]bool, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			allowed[id] = true
		}
	}

	entries := make([]*entry, 0, len(col.byChunk))
	for _, e := range col.byChunk {
		if allowed != nil && !allowed[e.rec.DocumentID] {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].inserted < entries[b].inserted
	})

	hits := make([]driven.Hit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, driven.Hit{
			ChunkID:    e.rec.ChunkID,
			DocumentID: e.rec.DocumentID,
			Seq:        e.rec.Seq,
			Content:    e.rec.Content,
			Score:      i.score(vector, e.rec.Vector),
		})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteDocument removes every record of the document under one lock
// hold.
func (i *Index) DeleteDocument(_ context.Context, collectionID, documentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return domain.ErrIndexClosed
	}
	col, ok := i.collections[collectionID]
	if !ok {
		return nil
	}
	for id, e := range col.byChunk {
		if e.rec.DocumentID == documentID {
			delete(col.byChunk, id)
		}
	}
	return nil
}

// DocumentChunks returns the stored records of one document in
// sequence order.
func (i *Index) DocumentChunks(
	_ context.Context, collectionID, documentID string,
) ([]driven.Record, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, domain.ErrIndexClosed
	}
	col, ok := i.collections[collectionID]
	if !ok {
		return nil, nil
	}
	var recs []driven.Record
	for _, e := range col.byChunk {
		if e.rec.DocumentID == documentID {
			recs = append(recs, e.rec)
		}
	}
	sort.Slice(recs, func(a, b int) bool { return recs[a].Seq < recs[b].Seq })
	return recs, nil
}

// Count returns the number of records in the collection.
func (i *Index) Count(_ context.Context, collectionID string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, domain.ErrIndexClosed
	}
	col, ok := i.collections[collectionID]
	if !ok {
		return 0, nil
	}
	return len(col.byChunk), nil
}

// Close marks the index closed.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}

// score computes relevance under the configured metric.
func (i *Index) score(a, b []float32) float64 {
	switch i.metric {
	case domain.MetricDot:
		var dot float64
		for j := range a {
			dot += float64(a[j]) * float64(b[j])
		}
		return dot
	case domain.MetricEuclidean:
		var sum float64
		for j := range a {
			d := float64(a[j]) - float64(b[j])
			sum += d * d
		}
		return 1 / (1 + math.Sqrt(sum))
	default:
		var dot, normA, normB float64
		for j := range a {
			dot += float64(a[j]) * float64(b[j])
			normA += float64(a[j]) * float64(a[j])
			normB += float64(b[j]) * float64(b[j])
		}
		if normA == 0 || normB == 0 {
			return 0
		}
		return dot / (math.Sqrt(normA) * math.Sqrt(normB))
	}
}
