package domain

// Metric is the similarity measure a collection is built on.
type Metric string

// Supported similarity metrics.
const (
	MetricCosine    Metric = "cosine"
	MetricDot       Metric = "dot"
	MetricEuclidean Metric = "euclidean"
)

// Valid reports whether the metric is one of the supported values.
func (m Metric) Valid() bool {
	switch m {
	case MetricCosine, MetricDot, MetricEuclidean:
		return true
	}
	return false
}

// EmbedderIdentity declares what an embedding service produces.
// A collection pins the identity of the first embedder that wrote to
// it; mismatched identities are rejected at insert time.
type EmbedderIdentity struct {
	// ModelID names the embedding model and version.
	ModelID string

	// Dimensions is the fixed vector size the model produces.
	Dimensions int

	// Metric is the model's native similarity metric.
	Metric Metric
}
