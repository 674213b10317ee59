package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// fakeEmbedder maps every text onto a deterministic 3-dimensional
// vector. failures counts down: while positive, calls fail with err.
type fakeEmbedder struct {
	failures int
	err      error
	calls    int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	var sum byte
	for i := 0; i < len(text); i++ {
		sum += text[i]
	}
	return []float32{float32(len(text)), float32(sum), 1}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vector(text)
	}
	return out, nil
}

func (f *fakeEmbedder) Identity() domain.EmbedderIdentity {
	return domain.EmbedderIdentity{
		ModelID:    "fake-embed",
		Dimensions: 3,
		Metric:     domain.MetricCosine,
	}
}

func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeLLM returns a canned response and records the last prompt.
type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

// flakyIndex wraps a VectorIndex and fails UpsertDocument until the
// configured number of failures is spent.
type flakyIndex struct {
	driven.VectorIndex
	failures int
}

func (f *flakyIndex) UpsertDocument(
	ctx context.Context, collectionID, documentID string, recs []driven.Record,
) error {
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("disk full")
	}
	return f.VectorIndex.UpsertDocument(ctx, collectionID, documentID, recs)
}
