package rerank

import (
	"context"
	"errors"
)

// Reranker reorders candidate documents by relevance to a query.
// Implementations return indices into docs, most relevant first, at
// most topN of them.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error)
}

// ErrAllRerankersFailed is returned by Chain when no reranker in the
// fallback sequence produced an ordering. Callers should treat this as
// a quality degradation and keep their original order.
var ErrAllRerankersFailed = errors.New("all rerankers failed")
