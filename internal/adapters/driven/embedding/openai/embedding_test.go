package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// embeddingServer answers /embeddings with one vector per input, the
// vector encoding the global position of the text so order is checkable.
func embeddingServer(t *testing.T, calls *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*calls = append(*calls, req.Input)

		var resp embeddingResponse
		// Answer out of order to exercise index-based reassembly.
		for i := len(req.Input) - 1; i >= 0; i-- {
			var pos float64
			fmt.Sscanf(req.Input[i], "text-%f", &pos)
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{pos}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestService(t *testing.T, baseURL string, maxBatch int) *EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(Config{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		Model:        "test-embed",
		MaxBatchSize: maxBatch,
	})
	require.NoError(t, err)
	return svc
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestEmbedBatchSplitsAndPreservesOrder(t *testing.T) {
	var calls [][]string
	server := embeddingServer(t, &calls)
	defer server.Close()

	svc := newTestService(t, server.URL, 3)

	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	embeddings, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, embeddings, 7)

	// 7 texts with batch size 3 means three API calls.
	require.Len(t, calls, 3)
	assert.Len(t, calls[0], 3)
	assert.Len(t, calls[1], 3)
	assert.Len(t, calls[2], 1)

	// Each embedding encodes the position of its input text.
	for i, emb := range embeddings {
		require.Len(t, emb, 1)
		assert.Equal(t, float32(i), emb[0])
	}
}

func TestEmbedSingle(t *testing.T) {
	var calls [][]string
	server := embeddingServer(t, &calls)
	defer server.Close()

	svc := newTestService(t, server.URL, 10)

	emb, err := svc.Embed(context.Background(), "text-5")
	require.NoError(t, err)
	require.Len(t, emb, 1)
	assert.Equal(t, float32(5), emb[0])
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	svc := newTestService(t, "http://unused", 10)

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestAPIErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded"},
		})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, 10)

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.True(t, domain.Transient(err))
}

func TestConnectionRefusedClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Refuse all future connections.

	svc := newTestService(t, server.URL, 10)

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestShortResponseRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp embeddingResponse
		resp.Data = append(resp.Data, struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: []float64{1}, Index: 0})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, 10)

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestIdentity(t *testing.T) {
	svc := newTestService(t, "http://unused", 10)

	id := svc.Identity()
	assert.Equal(t, "test-embed", id.ModelID)
	assert.Equal(t, 1536, id.Dimensions) // Fallback for unknown models.
	assert.Equal(t, domain.MetricCosine, id.Metric)
}
