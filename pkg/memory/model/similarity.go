package model

import "math"

// CosineSimilarity computes the cosine similarity between two vectors of
// equal length. Vectors of differing length are never comparable in this
// store; the caller is expected to skip them rather than coerce.
func CosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// CosineDistance returns 1 - cos(theta), smaller is closer. The second
// return reports whether the vectors were comparable at all.
func CosineDistance(a, b []float32) (float64, bool) {
	sim, ok := CosineSimilarity(a, b)
	if !ok {
		return 0, false
	}
	return 1 - sim, true
}

// MeanVector returns the element-wise mean of two equal-length vectors.
func MeanVector(a, b []float32) ([]float32, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return nil, false
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
	}
	return out, true
}
