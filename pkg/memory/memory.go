// Package memory is the long-term memory subsystem for conversational
// roleplay characters: journal building, vector retrieval, and
// token-budgeted prompt assembly over a pluggable vector store.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/memory/embed"
	"github.com/taleweave/taleweave/pkg/memory/journal"
	"github.com/taleweave/taleweave/pkg/memory/metrics"
	"github.com/taleweave/taleweave/pkg/memory/model"
	"github.com/taleweave/taleweave/pkg/memory/prompt"
	"github.com/taleweave/taleweave/pkg/memory/rerank"
	"github.com/taleweave/taleweave/pkg/memory/retrieval"
	"github.com/taleweave/taleweave/pkg/memory/store"
	"github.com/taleweave/taleweave/pkg/models"
)

// Convenience aliases so callers rarely need the inner packages.
type (
	Record       = model.MemoryRecord
	Relationship = model.RelationshipState
	Entry        = journal.Entry
)

// seedCap bounds seed memory summaries; seeds are hints, not
// transcripts.
const seedCap = 200

// Embedder is the embedding capability the service consumes. An empty
// result means no provider could embed the text.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Service wires the journal builder, retriever, and context assembler
// over one vector store.
type Service struct {
	cfg       *config.Config
	store     store.VectorStore
	embedder  Embedder
	generator models.Generator

	builder   *journal.Builder
	retriever *retrieval.Retriever
	assembler *prompt.Assembler

	metrics *metrics.Metrics
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewService assembles a service from explicit capabilities. Open is
// the config-driven variant for production wiring.
func NewService(cfg *config.Config, st store.VectorStore, embedder Embedder, generator models.Generator) *Service {
	m := &metrics.Metrics{}
	logger := log.With("component", "memory")

	var reranker rerank.Reranker
	if cfg.Rerank.Enabled {
		reranker = rerank.NewChain(cfg.Rerank.Model)
	}

	retriever := retrieval.NewRetriever(st, embedder).
		WithGenerator(generator).
		WithMethod(cfg.Retrieval.QueryMethod).
		WithEnabled(cfg.Retrieval.Enabled).
		WithMetrics(m)
	if reranker != nil {
		retriever = retriever.WithReranker(reranker)
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		embedder:  embedder,
		generator: generator,
		builder: journal.NewBuilder(st, embedder, generator).
			WithFrequency(cfg.Journal.Frequency).
			WithMetrics(m),
		retriever: retriever,
		assembler: prompt.NewAssembler(prompt.NewTiktokenCounter()).
			WithSafetyMargin(cfg.Context.SafetyMargin).
			WithMetrics(m),
		metrics: m,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Open builds a fully config-driven service: the configured store
// backend plus embedding and generation gateways with provider
// rotation.
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder := embed.NewGateway(cfg.Embedding.Provider, cfg.Embedding.Model)
	generator := models.NewGateway(cfg.Generation.Provider, cfg.Generation.Model)
	svc := NewService(cfg, st, embedder, generator)
	embedder.WithMetrics(svc.metrics)
	generator.WithMetrics(svc.metrics)
	if err := st.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("initialize %s store: %w", cfg.Store.Backend, err)
	}
	return svc, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.VectorStore, error) {
	switch cfg.Store.Backend {
	case "", "local":
		return store.NewLocalStore(), nil
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	case "mongo":
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, "journal_memories")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// WithLogger overrides the service logger.
func (s *Service) WithLogger(logger *log.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateJournalEntry analyzes a conversation chunk and stores a journal
// record when the chunk is long enough and the analysis usable. A
// (nil, nil) return means no entry was produced, which is normal.
func (s *Service) CreateJournalEntry(ctx context.Context, owner string, turns []models.Message, rel Relationship) (*Entry, error) {
	return s.builder.Build(ctx, owner, turns, rel)
}

// RetrieveRelevantMemories returns the memories most relevant to
// current, scoped to owner. A zero limit uses the configured default.
func (s *Service) RetrieveRelevantMemories(ctx context.Context, current, owner string, limit int, history []models.Message) ([]Record, error) {
	if limit == 0 {
		limit = s.cfg.Retrieval.Limit
	}
	return s.retriever.Retrieve(ctx, current, owner, limit, history)
}

// BuildPromptContext retrieves relevant memories and assembles the full
// prompt for one generation call.
func (s *Service) BuildPromptContext(ctx context.Context, owner, persona, scenario, query string, history []models.Message) ([]models.Message, error) {
	memories, err := s.RetrieveRelevantMemories(ctx, query, owner, 0, history)
	if err != nil {
		return nil, err
	}
	return s.assembler.BuildContext(persona, scenario, query, memories, history, s.cfg.Context.TokenBudget), nil
}

// ClearMemoriesForOwner removes every memory belonging to owner and
// reports how many were deleted.
func (s *Service) ClearMemoriesForOwner(ctx context.Context, owner string) (int, error) {
	n, err := s.store.DeleteByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	s.metrics.IncDeletions(n)
	s.logger.Info("cleared memories", "owner", owner, "deleted", n)
	return n, nil
}

// SeedOwner stores the persona and first-message seed memories for a
// new character so retrieval has anchors before any journal exists.
// Seeds are capped to about 200 characters.
func (s *Service) SeedOwner(ctx context.Context, owner, personaText, firstMessage string) error {
	seeds := []struct {
		kind       model.Kind
		text       string
		importance float64
	}{
		{model.KindPersona, personaText, 0.9},
		{model.KindFirstMessage, firstMessage, 0.7},
	}
	for _, seed := range seeds {
		text := capRunes(seed.text, seedCap)
		if text == "" {
			continue
		}
		vec := s.embedder.Embed(ctx, text)
		if len(vec) == 0 {
			return fmt.Errorf("embed %s seed for %s: no provider produced a vector", seed.kind, owner)
		}
		_, err := s.store.Insert(ctx, Record{
			Owner:      owner,
			Summary:    text,
			Importance: seed.importance,
			Embedding:  vec,
			Kind:       seed.kind,
		})
		if err != nil {
			return fmt.Errorf("store %s seed: %w", seed.kind, err)
		}
	}
	return nil
}

// RebuildJournal replays a long transcript through the journal builder
// in frequency-sized chunks. Chunk failures are independent: one bad
// chunk never aborts the rebuild. The configured pacing delay runs
// between entries to respect provider rate limits.
func (s *Service) RebuildJournal(ctx context.Context, owner string, turns []models.Message, rel Relationship) ([]Entry, Relationship, error) {
	chunk := s.cfg.Journal.Frequency
	if chunk < 1 {
		chunk = journal.DefaultFrequency
	}
	var entries []Entry
	for start := 0; start < len(turns); start += chunk {
		end := start + chunk
		if end > len(turns) {
			end = len(turns)
		}
		if len(entries) > 0 && s.cfg.Journal.PacingDelay > 0 {
			if err := s.sleep(ctx, s.cfg.Journal.PacingDelay); err != nil {
				return entries, rel, err
			}
		}
		entry, err := s.builder.Build(ctx, owner, turns[start:end], rel)
		if err != nil {
			s.logger.Warn("journal rebuild chunk failed", "owner", owner, "chunk", start/chunk, "err", err)
			continue
		}
		if entry == nil {
			continue
		}
		entries = append(entries, *entry)
		rel = entry.Relationship
	}
	return entries, rel, nil
}

// MetricsSnapshot reports the service's runtime counters.
func (s *Service) MetricsSnapshot() metrics.Snapshot {
	return s.metrics.Snapshot()
}

func capRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
