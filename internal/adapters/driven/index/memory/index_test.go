package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

func record(docID string, seq int, vector []float32, content string) driven.Record {
	return driven.Record{
		ChunkID:    fmt.Sprintf("%s:%d", docID, seq),
		DocumentID: docID,
		Seq:        seq,
		Vector:     vector,
		ModelID:    "test-model",
		Content:    content,
	}
}

func TestQueryRanking(t *testing.T) {
	idx := New(domain.MetricCosine)
	ctx := context.Background()

	require.NoError(t, idx.UpsertDocument(ctx, "col", "doc1", []driven.Record{
		record("doc1", 0, []float32{1, 0, 0}, "exact"),
		record("doc1", 1, []float32{0, 1, 0}, "orthogonal"),
	}))

	hits, err := idx.Query(ctx, "col", []float32{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "exact", hits[0].Content)
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	idx := New(domain.MetricCosine)
	ctx := context.Background()

	require.NoError(t, idx.UpsertDocument(ctx, "col", "doc1", []driven.Record{
		record("doc1", 0, []float32{1, 0}, "first"),
		record("doc1", 1, []float32{1, 0}, "second"),
	}))

	hits, err := idx.Query(ctx, "col", []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].Content)
	assert.Equal(t, "second", hits[1].Content)
}

func TestBadBatchLeavesNoTrace(t *testing.T) {
	idx := New(domain.MetricCosine)
	ctx := context.Background()

	err := idx.UpsertDocument(ctx, "col", "doc1", []driven.Record{
		record("doc1", 0, []float32{1, 0}, "good"),
		record("doc1", 1, []float32{1, 0, 0}, "bad dims"),
	})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	count, err := idx.Count(ctx, "col")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestModelGuard(t *testing.T) {
	idx := New(domain.MetricCosine)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "col", record("doc1", 0, []float32{1, 0}, "a")))

	rec := record("doc2", 0, []float32{0, 1}, "b")
	rec.ModelID = "other-model"
	assert.ErrorIs(t, idx.Upsert(ctx, "col", rec), domain.ErrModelMismatch)
}

func TestDeleteDocument(t *testing.T) {
	idx := New(domain.MetricCosine)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "col", record("doc1", 0, []float32{1, 0}, "a")))
	require.NoError(t, idx.Upsert(ctx, "col", record("doc2", 0, []float32{0, 1}, "b")))
	require.NoError(t, idx.DeleteDocument(ctx, "col", "doc1"))

	count, err := idx.Count(ctx, "col")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnknownCollectionEmpty(t *testing.T) {
	idx := New(domain.MetricCosine)

	hits, err := idx.Query(context.Background(), "missing", []float32{1}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestClosed(t *testing.T) {
	idx := New(domain.MetricCosine)
	require.NoError(t, idx.Close())

	err := idx.Upsert(context.Background(), "col", record("doc1", 0, []float32{1}, "late"))
	assert.ErrorIs(t, err, domain.ErrIndexClosed)
}
