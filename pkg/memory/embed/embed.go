package embed

import (
	"context"
	"errors"
)

// Embedder is a pluggable text-embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrNotSupported is returned by providers that do not offer embeddings
// or that answered with an empty vector.
var ErrNotSupported = errors.New("embeddings not supported by this provider")

// DummyEmbedder produces deterministic embeddings without network access.
// Used in tests and offline deployments.
type DummyEmbedder struct {
	Dim int
}

func (d DummyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return DummyEmbedding(text, d.Dim), nil
}

// DummyEmbedding folds the text's bytes into a fixed-length vector.
func DummyEmbedding(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 768
	}
	vec := make([]float32, dim)
	for i, ch := range []byte(text) {
		vec[i%dim] += float32(ch) / 255.0
	}
	return vec
}
