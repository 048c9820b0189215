package rerank

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Factory lazily constructs a reranker so unreachable providers cost
// nothing until the chain needs them.
type Factory func(ctx context.Context) (Reranker, error)

// Chain tries a sequence of rerankers in order, mirroring the provider
// rotation used for embeddings. Each entry is tried at most once per
// call.
type Chain struct {
	order     []string
	factories map[string]Factory

	mu        sync.Mutex
	instances map[string]Reranker

	logger *log.Logger
}

// NewChain builds the default fallback sequence: Cohere first, then the
// offline lexical scorer.
func NewChain(model string) *Chain {
	return &Chain{
		order: []string{"cohere", "lexical"},
		factories: map[string]Factory{
			"cohere": func(context.Context) (Reranker, error) {
				return NewCohereReranker(model)
			},
			"lexical": func(context.Context) (Reranker, error) {
				return LexicalReranker{}, nil
			},
		},
		instances: make(map[string]Reranker),
		logger:    log.With("component", "rerank"),
	}
}

// WithReranker replaces one entry, primarily for tests.
func (c *Chain) WithReranker(name string, r Reranker) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[name] = r
	return c
}

// WithOrder overrides the fallback sequence.
func (c *Chain) WithOrder(order []string) *Chain {
	if len(order) > 0 {
		c.order = append([]string(nil), order...)
	}
	return c
}

func (c *Chain) WithLogger(logger *log.Logger) *Chain {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *Chain) Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	for _, name := range c.order {
		r, err := c.instance(ctx, name)
		if err != nil {
			c.fail(name, err)
			continue
		}
		indices, err := r.Rerank(ctx, query, docs, topN)
		if err != nil {
			c.fail(name, err)
			continue
		}
		return indices, nil
	}
	return nil, ErrAllRerankersFailed
}

func (c *Chain) instance(ctx context.Context, name string) (Reranker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.instances[name]; ok {
		return r, nil
	}
	factory, ok := c.factories[name]
	if !ok {
		return nil, ErrAllRerankersFailed
	}
	r, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	c.instances[name] = r
	return r, nil
}

func (c *Chain) fail(name string, err error) {
	c.logger.Warn("reranker failed, trying next", "reranker", name, "err", err)
}

var _ Reranker = (*Chain)(nil)
