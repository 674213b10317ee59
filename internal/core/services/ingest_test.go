package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	indexmem "github.com/custodia-labs/lectern/internal/adapters/driven/index/memory"
	storemem "github.com/custodia-labs/lectern/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lectern/internal/chunker"
	"github.com/custodia-labs/lectern/internal/core/domain"
)

func fastRetry() domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Multiplier:     1,
	}
}

type ingestFixture struct {
	svc      *IngestService
	store    *storemem.Store
	index    *indexmem.Index
	embedder *fakeEmbedder
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	ch, err := chunker.New(chunker.Config{ChunkSize: 50, Overlap: 10})
	require.NoError(t, err)

	f := &ingestFixture{
		store:    storemem.New(),
		index:    indexmem.New(domain.MetricCosine),
		embedder: newFakeEmbedder(),
	}
	f.svc = NewIngestService(f.store, f.index, ch, f.embedder, fastRetry())
	return f
}

func TestIngestIndexesDocument(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Dynamic programming builds solutions from overlapping subproblems. Memoisation caches intermediate results.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Positive(t, doc.ChunkCount)
	assert.False(t, doc.IndexedAt.IsZero())

	count, err := f.index.Count(ctx, "cs101")
	require.NoError(t, err)
	assert.Equal(t, doc.ChunkCount, count)

	stored, err := f.store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, stored.Status)
}

func TestIngestUnchangedContentIsNoOp(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	up := domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Graphs are sets of vertices joined by edges.",
	}

	first, err := f.svc.Ingest(ctx, up)
	require.NoError(t, err)
	callsAfterFirst := f.embedder.calls

	second, err := f.svc.Ingest(ctx, up)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, callsAfterFirst, f.embedder.calls, "unchanged content must not re-embed")
}

func TestIngestChangedContentReplacesChunks(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Old revision of the lecture notes with several sentences. Each one ends up in the index.",
	})
	require.NoError(t, err)

	second, err := f.svc.Ingest(ctx, domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "New revision.",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// No chunks of the old revision may survive.
	oldChunks, err := f.index.DocumentChunks(ctx, "cs101", first.ID)
	require.NoError(t, err)
	assert.Empty(t, oldChunks)

	count, err := f.index.Count(ctx, "cs101")
	require.NoError(t, err)
	assert.Equal(t, second.ChunkCount, count)

	// The old document record is gone too.
	_, err = f.store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestEmptyTextFails(t *testing.T) {
	f := newIngestFixture(t)

	doc, err := f.svc.Ingest(context.Background(), domain.Upload{
		CollectionID: "cs101",
		Filename:     "empty.md",
		Text:         "",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.FailureReason)
}

func TestIngestRetriesTransientEmbeddingFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.failures = 2
	f.embedder.err = domain.ErrEmbeddingService

	doc, err := f.svc.Ingest(context.Background(), domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Content that needs three embedding attempts before success.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Equal(t, 3, f.embedder.calls)
}

func TestIngestExhaustedRetriesFailsDocument(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.failures = 10
	f.embedder.err = domain.ErrTimeout

	doc, err := f.svc.Ingest(context.Background(), domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Content the embedding service never manages to process.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Contains(t, doc.FailureReason, "embedding failed")
	assert.Equal(t, 3, f.embedder.calls)
}

func TestIngestUnexpectedIndexFailureReturnsError(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	flaky := &flakyIndex{VectorIndex: f.index, failures: 1}
	ch, err := chunker.New(chunker.Config{ChunkSize: 50, Overlap: 10})
	require.NoError(t, err)
	svc := NewIngestService(f.store, flaky, ch, f.embedder, fastRetry())

	doc, err := svc.Ingest(ctx, domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Content that fails to index on the first try.",
	})
	require.ErrorIs(t, err, domain.ErrIngestion)
	assert.Equal(t, domain.StatusFailed, doc.Status)

	// No partial chunks may be visible after the failure.
	count, err := f.index.Count(ctx, "cs101")
	require.NoError(t, err)
	assert.Zero(t, count)

	// The stored record carries the failure too, not a stale
	// intermediate status.
	stored, err := f.store.GetByFilename(ctx, "cs101", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Contains(t, stored.FailureReason, "indexing failed")
}

func TestIngestValidatesUpload(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.svc.Ingest(context.Background(), domain.Upload{Text: "no identity"})
	assert.ErrorIs(t, err, domain.ErrIngestion)
}

func TestDeleteCascades(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, domain.Upload{
		CollectionID: "cs101",
		Filename:     "notes.md",
		Text:         "Content that will shortly be removed again.",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "cs101", doc.ID))

	count, err := f.index.Count(ctx, "cs101")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.store.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
