package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/memory/metrics"
	"github.com/taleweave/taleweave/pkg/memory/model"
	"github.com/taleweave/taleweave/pkg/memory/rerank"
	"github.com/taleweave/taleweave/pkg/memory/store"
	"github.com/taleweave/taleweave/pkg/models"
)

// Query-formulation strategies.
const (
	MethodPlain      = "plain"
	MethodLLMSummary = "llm-summary"
	MethodHyDE       = "hyde"
	MethodAverage    = "average"

	// DefaultMethod balances retrieval quality against one extra
	// generation call.
	DefaultMethod = MethodLLMSummary

	// summaryWindow is how many trailing turns the llm-summary strategy
	// condenses.
	summaryWindow = 4
)

// Embedder is the slice of the embedding gateway the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Retriever pulls the memories most relevant to the current message.
// Retrieval is best-effort throughout: a failed strategy falls back to
// a simpler one and a failed reranker keeps similarity order, but an
// unreachable store is a real error.
type Retriever struct {
	store     store.VectorStore
	embedder  Embedder
	generator models.Generator
	reranker  rerank.Reranker

	method  string
	enabled bool

	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewRetriever(st store.VectorStore, embedder Embedder) *Retriever {
	return &Retriever{
		store:    st,
		embedder: embedder,
		method:   DefaultMethod,
		enabled:  true,
		logger:   log.With("component", "retrieval"),
	}
}

// WithGenerator enables the llm-summary and hyde strategies. Without a
// generator both degrade to plain.
func (r *Retriever) WithGenerator(gen models.Generator) *Retriever {
	r.generator = gen
	return r
}

// WithReranker enables result reordering.
func (r *Retriever) WithReranker(rr rerank.Reranker) *Retriever {
	r.reranker = rr
	return r
}

// WithMethod selects the query-formulation strategy. Unknown methods
// keep the default.
func (r *Retriever) WithMethod(method string) *Retriever {
	switch method {
	case MethodPlain, MethodLLMSummary, MethodHyDE, MethodAverage:
		r.method = method
	}
	return r
}

// WithEnabled toggles retrieval entirely; disabled retrievers return
// empty without any provider calls.
func (r *Retriever) WithEnabled(enabled bool) *Retriever {
	r.enabled = enabled
	return r
}

func (r *Retriever) WithLogger(logger *log.Logger) *Retriever {
	if logger != nil {
		r.logger = logger
	}
	return r
}

func (r *Retriever) WithMetrics(m *metrics.Metrics) *Retriever {
	r.metrics = m
	return r
}

// Retrieve returns up to limit memories owned by owner, most relevant
// first. An empty result is a normal outcome: retrieval disabled, no
// embeddable query, or simply nothing stored yet.
func (r *Retriever) Retrieve(ctx context.Context, current, owner string, limit int, history []models.Message) ([]model.MemoryRecord, error) {
	if !r.enabled || limit <= 0 {
		return nil, nil
	}

	queryText, vec := r.formulate(ctx, current, history)
	if len(vec) == 0 {
		r.logger.Warn("query embedding failed, returning no memories", "owner", owner)
		return nil, nil
	}

	// 2x headroom gives the reranker real choices to make.
	candidates, err := r.store.Query(ctx, vec, 2*limit)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}

	// The store is not trusted to scope by owner.
	owned := candidates[:0]
	for _, rec := range candidates {
		if rec.Owner == owner {
			owned = append(owned, rec)
		}
	}

	owned = r.maybeRerank(ctx, queryText, owned, limit)
	if len(owned) > limit {
		owned = owned[:limit]
	}
	if r.metrics != nil {
		r.metrics.IncRetrievals(len(owned))
	}
	return owned, nil
}

// formulate produces the query text and its embedding according to the
// configured strategy, falling back toward plain on any failure.
func (r *Retriever) formulate(ctx context.Context, current string, history []models.Message) (string, []float32) {
	switch r.method {
	case MethodLLMSummary:
		text := r.condense(ctx, current, history)
		return text, r.embedder.Embed(ctx, text)
	case MethodHyDE:
		text := r.hypothesize(ctx, current)
		return text, r.embedder.Embed(ctx, text)
	case MethodAverage:
		if vec, ok := r.averageVector(ctx, history); ok {
			return current, vec
		}
		return current, r.embedder.Embed(ctx, current)
	default:
		return current, r.embedder.Embed(ctx, current)
	}
}

// condense asks the generator for a short retrieval-oriented summary of
// the recent turns. Any failure falls back to the message verbatim.
func (r *Retriever) condense(ctx context.Context, current string, history []models.Message) string {
	if r.generator == nil {
		return current
	}
	recent := history
	if len(recent) > summaryWindow {
		recent = recent[len(recent)-summaryWindow:]
	}
	summary, err := r.generator.Generate(ctx, []models.Message{
		{Role: models.RoleSystem, Content: "Condense the following conversation into one short search query capturing its key people, places, and events. Respond with the query only."},
		{Role: models.RoleUser, Content: models.Transcript(recent) + "\nuser: " + current},
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		r.logger.Warn("query summarization failed, using message verbatim", "err", err)
		return current
	}
	return strings.TrimSpace(summary)
}

// hypothesize asks the generator for a hypothetical memory entry that
// would match the message perfectly, then embeds that instead.
func (r *Retriever) hypothesize(ctx context.Context, current string) string {
	if r.generator == nil {
		return current
	}
	doc, err := r.generator.Generate(ctx, []models.Message{
		{Role: models.RoleSystem, Content: "Write one short journal entry that would be perfectly relevant to the user's message, as if recalling a past event. Respond with the entry only."},
		{Role: models.RoleUser, Content: current},
	})
	if err != nil || strings.TrimSpace(doc) == "" {
		r.logger.Warn("hypothetical generation failed, using message verbatim", "err", err)
		return current
	}
	return strings.TrimSpace(doc)
}

// averageVector embeds the last user and assistant turns separately and
// returns their element-wise mean when both succeed at equal length.
func (r *Retriever) averageVector(ctx context.Context, history []models.Message) ([]float32, bool) {
	lastUser, okU := lastByRole(history, models.RoleUser)
	lastAssistant, okA := lastByRole(history, models.RoleAssistant)
	if !okU || !okA {
		return nil, false
	}
	vecU := r.embedder.Embed(ctx, lastUser)
	vecA := r.embedder.Embed(ctx, lastAssistant)
	if len(vecU) == 0 || len(vecA) == 0 {
		return nil, false
	}
	mean, ok := model.MeanVector(vecU, vecA)
	if !ok {
		r.logger.Warn("turn embeddings have mismatched lengths, averaging skipped")
		return nil, false
	}
	return mean, true
}

func lastByRole(history []models.Message, role string) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == role && strings.TrimSpace(history[i].Content) != "" {
			return history[i].Content, true
		}
	}
	return "", false
}

// maybeRerank reorders candidates by reranker relevance. Total rerank
// failure preserves the similarity order; reranking improves quality
// but never gates correctness.
func (r *Retriever) maybeRerank(ctx context.Context, query string, candidates []model.MemoryRecord, limit int) []model.MemoryRecord {
	if r.reranker == nil || len(candidates) == 0 {
		return candidates
	}
	docs := make([]string, len(candidates))
	for i, rec := range candidates {
		docs[i] = rec.Summary
	}
	indices, err := r.reranker.Rerank(ctx, query, docs, limit)
	if err != nil {
		r.logger.Warn("reranking failed, keeping similarity order", "err", err)
		if r.metrics != nil {
			r.metrics.IncRerankFallbacks()
		}
		return candidates
	}
	reordered := make([]model.MemoryRecord, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(candidates) {
			reordered = append(reordered, candidates[idx])
		}
	}
	if len(reordered) == 0 {
		return candidates
	}
	return reordered
}
