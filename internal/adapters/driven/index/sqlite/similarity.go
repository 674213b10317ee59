package sqlite

import (
	"encoding/binary"
	"math"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// scoreFunc returns the scoring function for a metric. Every metric is
// oriented so that higher scores mean more relevant.
func scoreFunc(m domain.Metric) func(a, b []float32) float64 {
	switch m {
	case domain.MetricDot:
		return dotProduct
	case domain.MetricEuclidean:
		return euclideanScore
	default:
		return cosineSimilarity
	}
}

// cosineSimilarity computes the cosine of the angle between a and b.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// dotProduct computes the inner product of a and b.
func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// euclideanScore converts Euclidean distance into a descending
// relevance score in (0, 1].
func euclideanScore(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
