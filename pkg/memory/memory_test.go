package memory

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/memory/model"
	"github.com/taleweave/taleweave/pkg/memory/store"
	"github.com/taleweave/taleweave/pkg/models"
)

type constEmbedder struct {
	vec []float32
}

func (c constEmbedder) Embed(context.Context, string) []float32 {
	return c.vec
}

func testConfig() *config.Config {
	cfg, _ := config.Load("")
	cfg.Journal.Frequency = 1
	cfg.Journal.PacingDelay = 0
	cfg.Retrieval.QueryMethod = "plain"
	return cfg
}

func testService(cfg *config.Config, st store.VectorStore, emb Embedder, gen models.Generator) *Service {
	svc := NewService(cfg, st, emb, gen).WithLogger(log.New(io.Discard))
	svc.builder = svc.builder.WithLogger(log.New(io.Discard))
	svc.retriever = svc.retriever.WithLogger(log.New(io.Discard))
	svc.assembler = svc.assembler.WithLogger(log.New(io.Discard))
	return svc
}

const journalPayload = `{"summary":"Met at the tavern.","emotions":{"positive":0.6,"negative":0.1,"neutral":0.3},"decisions":[],"topics":["tavern"],"importance":4,"relationshipDelta":0.2}`

func TestSeedOwner(t *testing.T) {
	st := store.NewLocalStore()
	svc := testService(testConfig(), st, constEmbedder{vec: []float32{1, 0}}, models.NewDummyLLM(""))

	persona := strings.Repeat("Aria is a wandering bard. ", 20)
	if err := svc.SeedOwner(context.Background(), "Aria", persona, "Well met, traveler."); err != nil {
		t.Fatalf("SeedOwner: %v", err)
	}
	if n, _ := st.Count(context.Background()); n != 2 {
		t.Fatalf("stored %d seeds, want 2", n)
	}

	recs, err := svc.RetrieveRelevantMemories(context.Background(), "who are you?", "Aria", 5, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	kinds := map[model.Kind]string{}
	for _, rec := range recs {
		kinds[rec.Kind] = rec.Summary
	}
	personaSeed, ok := kinds[model.KindPersona]
	if !ok {
		t.Fatal("persona seed not retrievable")
	}
	if len([]rune(personaSeed)) > 200 {
		t.Fatalf("persona seed not capped: %d runes", len([]rune(personaSeed)))
	}
	if kinds[model.KindFirstMessage] != "Well met, traveler." {
		t.Fatalf("first message seed = %q", kinds[model.KindFirstMessage])
	}
}

func TestSeedOwnerEmbeddingFailure(t *testing.T) {
	st := store.NewLocalStore()
	svc := testService(testConfig(), st, constEmbedder{}, models.NewDummyLLM(""))

	if err := svc.SeedOwner(context.Background(), "Aria", "Persona text here.", ""); err == nil {
		t.Fatal("expected an error when no provider can embed seeds")
	}
	if n, _ := st.Count(context.Background()); n != 0 {
		t.Fatalf("stored %d records, want 0", n)
	}
}

func TestCreateJournalEntryAndRetrieve(t *testing.T) {
	st := store.NewLocalStore()
	svc := testService(testConfig(), st, constEmbedder{vec: []float32{1, 0}}, models.NewDummyLLM("").Script(journalPayload))

	entry, err := svc.CreateJournalEntry(context.Background(), "Aria",
		[]models.Message{{Role: models.RoleUser, Content: "hello"}}, Relationship{})
	if err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}
	if entry == nil || entry.Record.Summary != "Met at the tavern." {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Relationship.Status != model.StatusAcquaintance {
		t.Fatalf("status = %q", entry.Relationship.Status)
	}

	recs, err := svc.RetrieveRelevantMemories(context.Background(), "tavern?", "Aria", 0, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(recs) != 1 || recs[0].Summary != "Met at the tavern." {
		t.Fatalf("unexpected retrieval %v", recs)
	}
	if snap := svc.MetricsSnapshot(); snap.EntriesWritten != 1 {
		t.Fatalf("entries written = %d", snap.EntriesWritten)
	}
}

func TestBuildPromptContext(t *testing.T) {
	st := store.NewLocalStore()
	svc := testService(testConfig(), st, constEmbedder{vec: []float32{1, 0}}, models.NewDummyLLM("").Script(journalPayload))

	if _, err := svc.CreateJournalEntry(context.Background(), "Aria",
		[]models.Message{{Role: models.RoleUser, Content: "hello"}}, Relationship{}); err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}

	msgs, err := svc.BuildPromptContext(context.Background(), "Aria", "Aria is a bard.", "A stormy night.", "what do you remember?", nil)
	if err != nil {
		t.Fatalf("BuildPromptContext: %v", err)
	}
	system := msgs[0].Content
	if !strings.Contains(system, "Aria is a bard.") || !strings.Contains(system, "A stormy night.") {
		t.Fatalf("persona or scenario missing:\n%s", system)
	}
	if !strings.Contains(system, "Met at the tavern.") {
		t.Fatalf("retrieved memory missing:\n%s", system)
	}
	if msgs[len(msgs)-1].Content != "what do you remember?" {
		t.Fatal("query must be the final message")
	}
}

func TestClearMemoriesForOwner(t *testing.T) {
	st := store.NewLocalStore()
	svc := testService(testConfig(), st, constEmbedder{vec: []float32{1, 0}}, models.NewDummyLLM(""))

	if err := svc.SeedOwner(context.Background(), "Aria", "Persona text here.", "First line."); err != nil {
		t.Fatalf("SeedOwner: %v", err)
	}
	n, err := svc.ClearMemoriesForOwner(context.Background(), "Aria")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	if svc.MetricsSnapshot().Deletions != 2 {
		t.Fatalf("deletions metric = %d", svc.MetricsSnapshot().Deletions)
	}
}

func TestRebuildJournal(t *testing.T) {
	cfg := testConfig()
	cfg.Journal.Frequency = 2
	cfg.Journal.PacingDelay = 5 * time.Second

	gen := models.NewDummyLLM("").Script(
		journalPayload,
		"unusable",
		journalPayload,
	)
	st := store.NewLocalStore()
	svc := testService(cfg, st, constEmbedder{vec: []float32{1, 0}}, gen)

	sleeps := 0
	svc.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	turns := make([]models.Message, 6)
	for i := range turns {
		turns[i] = models.Message{Role: models.RoleUser, Content: "turn"}
	}
	entries, rel, err := svc.RebuildJournal(context.Background(), "Aria", turns, Relationship{})
	if err != nil {
		t.Fatalf("RebuildJournal: %v", err)
	}
	// The middle chunk's unusable analysis is skipped independently.
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if rel.Status != model.StatusAcquaintance {
		t.Fatalf("status = %q, want acquaintance after two +0.2 shifts", rel.Status)
	}
	if sleeps != 2 {
		t.Fatalf("paced %d times, want 2", sleeps)
	}
	if n, _ := st.Count(context.Background()); n != 2 {
		t.Fatalf("stored %d entries, want 2", n)
	}
}
