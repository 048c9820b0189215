package models

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/memory/metrics"
)

// ErrAllProvidersFailed is returned when every generator in the chain
// failed or produced an empty completion.
var ErrAllProvidersFailed = errors.New("all generation providers failed")

// DefaultRotation is the provider order tried by a Gateway. The
// configured provider is moved to the front; the rest keep this order.
var DefaultRotation = []string{"openai", "gemini", "ollama", "claude"}

// Factory builds a Generator on first use so that providers whose
// credentials are absent cost nothing until the chain reaches them.
type Factory func(ctx context.Context) (Generator, error)

// Gateway routes Generate calls across a rotation of providers,
// advancing past failures so that transient outages of one vendor do
// not take text generation down with them.
type Gateway struct {
	mu        sync.Mutex
	chain     []string
	factories map[string]Factory
	instances map[string]Generator
	logger    *log.Logger
	metrics   *metrics.Metrics
}

// NewGateway builds a gateway whose rotation starts at provider. The
// model name is passed to every factory; providers that do not know it
// fall back to their own default.
func NewGateway(provider, model string) *Gateway {
	g := &Gateway{
		factories: map[string]Factory{
			"openai": func(context.Context) (Generator, error) {
				return NewOpenAILLM(model)
			},
			"gemini": func(ctx context.Context) (Generator, error) {
				return NewGeminiLLM(ctx, model)
			},
			"ollama": func(context.Context) (Generator, error) {
				return NewOllamaLLM(model)
			},
			"claude": func(context.Context) (Generator, error) {
				return NewAnthropicLLM(model)
			},
		},
		instances: make(map[string]Generator),
		logger:    log.Default(),
	}
	g.chain = rotate(DefaultRotation, provider)
	return g
}

// WithChain replaces the rotation order entirely.
func (g *Gateway) WithChain(chain []string) *Gateway {
	if len(chain) > 0 {
		g.chain = append([]string(nil), chain...)
	}
	return g
}

// WithGenerator registers (or overrides) a provider with an
// already-built Generator.
func (g *Gateway) WithGenerator(name string, gen Generator) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances[name] = gen
	return g
}

// WithFactory registers (or overrides) a provider factory.
func (g *Gateway) WithFactory(name string, f Factory) *Gateway {
	g.factories[name] = f
	return g
}

func (g *Gateway) WithLogger(logger *log.Logger) *Gateway {
	if logger != nil {
		g.logger = logger
	}
	return g
}

func (g *Gateway) WithMetrics(m *metrics.Metrics) *Gateway {
	g.metrics = m
	return g
}

// Chain reports the rotation order, primarily for tests and logging.
func (g *Gateway) Chain() []string {
	return append([]string(nil), g.chain...)
}

// Generate tries each provider in the rotation at most once and
// returns the first non-empty completion. Unlike embedding lookups,
// text generation has no graceful degradation, so total exhaustion is
// an error.
func (g *Gateway) Generate(ctx context.Context, messages []Message) (string, error) {
	for _, name := range g.chain {
		gen, err := g.instance(ctx, name)
		if err != nil {
			g.fail(name, err)
			continue
		}
		text, err := gen.Generate(ctx, messages)
		if err != nil {
			g.fail(name, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			g.fail(name, errors.New("empty completion"))
			continue
		}
		return text, nil
	}
	g.logger.Error("all generation providers exhausted", "chain", g.chain)
	return "", ErrAllProvidersFailed
}

func (g *Gateway) instance(ctx context.Context, name string) (Generator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen, ok := g.instances[name]; ok {
		return gen, nil
	}
	factory, ok := g.factories[name]
	if !ok {
		return nil, errors.New("unknown provider " + name)
	}
	gen, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	g.instances[name] = gen
	return gen, nil
}

func (g *Gateway) fail(name string, err error) {
	g.logger.Warn("generation provider failed, rotating", "provider", name, "err", err)
	if g.metrics != nil {
		g.metrics.IncProviderFallbacks()
	}
}

// rotate returns order rearranged to start at the named provider.
// Unknown names leave the order untouched.
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

var _ Generator = (*Gateway)(nil)
