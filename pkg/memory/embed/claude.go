package embed

import "context"

// Anthropic does not offer an embeddings endpoint; keep a stub so that a
// configured claude chain position rotates cleanly to the next provider.
type ClaudeEmbedder struct {
	model string
}

func NewClaudeEmbedder(model string) (Embedder, error) {
	return &ClaudeEmbedder{model: model}, nil
}

func (c *ClaudeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotSupported
}
