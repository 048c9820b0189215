package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/memory/metrics"
	"github.com/taleweave/taleweave/pkg/memory/model"
	"github.com/taleweave/taleweave/pkg/memory/store"
	"github.com/taleweave/taleweave/pkg/models"
)

// DefaultFrequency is the minimum chunk length that triggers a journal
// entry.
const DefaultFrequency = 10

// TextEmbedder is the slice of the embedding gateway the builder needs.
// An empty result means no provider could embed the text.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Entry is one completed journal build: the stored record plus the
// relationship state the caller should carry forward.
type Entry struct {
	Record       model.MemoryRecord
	Relationship model.RelationshipState
}

// Builder turns conversation chunks into journal records. Stateless
// across invocations; everything it needs arrives as input.
type Builder struct {
	store     store.VectorStore
	embedder  TextEmbedder
	generator models.Generator
	frequency int
	logger    *log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewBuilder(st store.VectorStore, embedder TextEmbedder, generator models.Generator) *Builder {
	return &Builder{
		store:     st,
		embedder:  embedder,
		generator: generator,
		frequency: DefaultFrequency,
		logger:    log.With("component", "journal"),
		now:       time.Now,
	}
}

// WithFrequency sets the minimum chunk length; values below 1 keep the
// default.
func (b *Builder) WithFrequency(n int) *Builder {
	if n >= 1 {
		b.frequency = n
	}
	return b
}

func (b *Builder) WithLogger(logger *log.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

func (b *Builder) WithMetrics(m *metrics.Metrics) *Builder {
	b.metrics = m
	return b
}

// WithClock overrides record timestamps, for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build analyzes a conversation chunk and, when warranted, persists a
// journal record and returns it with the updated relationship state. A
// (nil, nil) return means no entry was produced, the normal outcome for
// chunks below the frequency threshold or analyses that yielded nothing
// usable. Only store faults surface as errors.
func (b *Builder) Build(ctx context.Context, owner string, turns []models.Message, rel model.RelationshipState) (*Entry, error) {
	if len(turns) < b.frequency {
		return nil, nil
	}

	raw, err := b.generator.Generate(ctx, AnalysisMessages(owner, turns))
	if err != nil {
		b.skip("analysis generation failed", "err", err)
		return nil, nil
	}

	a := b.analyze(raw)
	if a == nil {
		b.skip("analysis yielded no usable record")
		return nil, nil
	}
	if len(a.Participants) == 0 {
		a.Participants = []string{owner}
	}

	updated := rel.ApplyDelta(a.RelationshipDelta)

	vec := b.embedder.Embed(ctx, a.Summary)
	if len(vec) == 0 {
		b.skip("summary embedding failed, entry dropped")
		return nil, nil
	}

	rec := model.MemoryRecord{
		Owner:             owner,
		Summary:           a.Summary,
		CreatedAt:         b.now().UTC(),
		Importance:        model.NormalizeImportance(a.Importance),
		Embedding:         vec,
		Kind:              model.KindJournal,
		Emotions:          a.Emotions,
		Decisions:         a.Decisions,
		Topics:            a.Topics,
		Participants:      a.Participants,
		PlotElements:      a.PlotElements,
		RelationshipDelta: a.RelationshipDelta,
	}
	id, err := b.store.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("persist journal entry: %w", err)
	}
	rec.ID = id
	if b.metrics != nil {
		b.metrics.IncEntriesWritten()
	}
	b.logger.Debug("journal entry written", "owner", owner, "importance", rec.Importance)
	return &Entry{Record: rec, Relationship: updated}, nil
}

// analyze runs the clean -> extract -> repair -> parse pipeline and
// falls back to keyword heuristics when parsing fails.
func (b *Builder) analyze(raw string) *analysis {
	cleaned := StripThinkingBlocks(StripCodeFences(raw))
	if span, ok := ExtractJSON(cleaned); ok {
		a, err := parseAnalysis(Repair(span))
		if err == nil {
			return a
		}
		b.logger.Debug("journal JSON rejected, trying heuristics", "err", err)
	}
	a, ok := HeuristicAnalysis(cleaned)
	if !ok {
		return nil
	}
	return a
}

func (b *Builder) skip(msg string, kv ...any) {
	b.logger.Warn(msg, kv...)
	if b.metrics != nil {
		b.metrics.IncEntriesSkipped()
	}
}
