package embed

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/memory/metrics"
)

// DefaultRotation is the canonical provider order. A gateway configured
// with a different starting provider rotates this list so that every
// chain eventually tries every provider exactly once.
var DefaultRotation = []string{"openai", "gemini", "ollama", "claude"}

// Factory lazily constructs a provider; construction failure counts as a
// provider failure and advances the rotation.
type Factory func(ctx context.Context) (Embedder, error)

// Gateway wraps the embedding capability with an ordered provider
// fallback chain. Total exhaustion yields an empty vector rather than an
// error, so callers can skip the dependent write or read instead of
// treating missing embeddings as a fault.
type Gateway struct {
	chain     []string
	factories map[string]Factory

	mu        sync.Mutex
	instances map[string]Embedder

	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewGateway builds a gateway whose rotation starts at provider and
// continues through the remaining defaults in fixed order.
func NewGateway(provider, model string) *Gateway {
	g := &Gateway{
		chain:     rotate(DefaultRotation, provider),
		instances: make(map[string]Embedder),
		logger:    log.With("component", "embedding-gateway"),
		factories: map[string]Factory{
			"openai": func(context.Context) (Embedder, error) { return NewOpenAIEmbedder(model) },
			"gemini": func(ctx context.Context) (Embedder, error) { return NewGeminiEmbedder(ctx, model) },
			"ollama": func(context.Context) (Embedder, error) { return NewOllamaEmbedder(model) },
			"claude": func(context.Context) (Embedder, error) { return NewClaudeEmbedder(model) },
		},
	}
	return g
}

// WithProvider replaces one provider instance, primarily for tests.
func (g *Gateway) WithProvider(name string, e Embedder) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances[name] = e
	return g
}

// WithChain overrides the rotation entirely.
func (g *Gateway) WithChain(chain []string) *Gateway {
	if len(chain) > 0 {
		g.chain = append([]string(nil), chain...)
	}
	return g
}

// WithLogger overrides the default logger.
func (g *Gateway) WithLogger(logger *log.Logger) *Gateway {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithMetrics attaches fallback counters.
func (g *Gateway) WithMetrics(m *metrics.Metrics) *Gateway {
	g.metrics = m
	return g
}

// Chain exposes the documented rotation order.
func (g *Gateway) Chain() []string {
	return append([]string(nil), g.chain...)
}

// Embed tries each provider in rotation at most once and returns the
// first non-empty vector. An empty return means no provider could embed
// the text; it is not an error.
func (g *Gateway) Embed(ctx context.Context, text string) []float32 {
	for _, name := range g.chain {
		provider, err := g.provider(ctx, name)
		if err != nil {
			g.fail(name, err)
			continue
		}
		vec, err := provider.Embed(ctx, text)
		if err != nil || len(vec) == 0 {
			g.fail(name, err)
			continue
		}
		return vec
	}
	g.logger.Error("all embedding providers failed", "chain", g.chain)
	return nil
}

func (g *Gateway) provider(ctx context.Context, name string) (Embedder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.instances[name]; ok {
		return e, nil
	}
	factory, ok := g.factories[name]
	if !ok {
		return nil, ErrNotSupported
	}
	e, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	g.instances[name] = e
	return e, nil
}

func (g *Gateway) fail(name string, err error) {
	g.logger.Warn("embedding provider failed", "provider", name, "err", err)
	if g.metrics != nil {
		g.metrics.IncProviderFallbacks()
	}
}

// rotate returns order shifted so it begins at start. Unknown starting
// providers leave the order untouched.
func rotate(order []string, start string) []string {
	for i, name := range order {
		if name == start {
			out := make([]string, 0, len(order))
			out = append(out, order[i:]...)
			out = append(out, order[:i]...)
			return out
		}
	}
	return append([]string(nil), order...)
}
