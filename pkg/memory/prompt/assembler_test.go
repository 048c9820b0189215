package prompt

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/memory/metrics"
	"github.com/taleweave/taleweave/pkg/memory/model"
	"github.com/taleweave/taleweave/pkg/models"
)

func silentAssembler() *Assembler {
	return NewAssembler(HeuristicCounter{}).
		WithSafetyMargin(0).
		WithLogger(log.New(io.Discard))
}

func memoriesOf(summaries ...string) []model.MemoryRecord {
	out := make([]model.MemoryRecord, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, model.MemoryRecord{Summary: s, Importance: 0.5})
	}
	return out
}

func TestHeuristicCounter(t *testing.T) {
	cases := map[string]int{"": 0, "abcd": 1, "abcde": 2, "12345678": 2}
	for in, want := range cases {
		if got := (HeuristicCounter{}).Count(in); got != want {
			t.Errorf("Count(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildContextPersonaAlwaysWhole(t *testing.T) {
	persona := strings.Repeat("Aria is a wandering bard. ", 10)
	msgs := silentAssembler().BuildContext(persona, "", "hello", memoriesOf("a memory"), nil, 10)
	if len(msgs) < 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Role != models.RoleSystem || !strings.Contains(msgs[0].Content, persona) {
		t.Fatal("persona must survive any budget untruncated")
	}
	if msgs[len(msgs)-1].Role != models.RoleUser || msgs[len(msgs)-1].Content != "hello" {
		t.Fatalf("query missing: %+v", msgs[len(msgs)-1])
	}
}

func TestBuildContextScenarioOnlyOnFirstTurn(t *testing.T) {
	a := silentAssembler()
	scenario := "A storm traps everyone in the tavern."

	first := a.BuildContext("Persona.", scenario, "hi", nil, nil, 500)
	if !strings.Contains(first[0].Content, scenario) {
		t.Fatal("scenario missing on first turn")
	}

	history := []models.Message{{Role: models.RoleUser, Content: "earlier turn"}}
	later := a.BuildContext("Persona.", scenario, "hi", nil, history, 500)
	if strings.Contains(later[0].Content, scenario) {
		t.Fatal("scenario should be omitted once history exists")
	}
}

func TestBuildContextMemoryOrdering(t *testing.T) {
	memories := []model.MemoryRecord{
		{Summary: "high importance chat", Importance: 0.9},
		{Summary: "made a pact", Importance: 0.3, Decisions: []string{"seal the pact"}},
		{Summary: "low importance chat", Importance: 0.5},
	}
	msgs := silentAssembler().BuildContext("P.", "", "q", memories, nil, 1000)
	system := msgs[0].Content
	pact := strings.Index(system, "made a pact")
	high := strings.Index(system, "high importance chat")
	low := strings.Index(system, "low importance chat")
	if pact < 0 || high < 0 || low < 0 {
		t.Fatalf("memories missing from context:\n%s", system)
	}
	if !(pact < high && high < low) {
		t.Fatal("expected decisions first, then importance descending")
	}
	if !strings.Contains(system, "decisions: seal the pact") {
		t.Fatal("decision sub-line missing")
	}
}

func TestBuildContextTruncatesOnlyFirstOverBudgetMemory(t *testing.T) {
	long := strings.Repeat("the dragon circled the keep ", 10) // ~70 tokens
	m := &metrics.Metrics{}
	a := silentAssembler().WithMetrics(m)

	// Fixed cost: persona 1 + query 1 tokens; budget 32 leaves 30,
	// of which 21 go to memories - not enough for either summary whole.
	msgs := a.BuildContext("P.", "", "q", memoriesOf(long, long), nil, 32)
	system := msgs[0].Content
	if !strings.Contains(system, "…") {
		t.Fatalf("expected ellipsis truncation marker:\n%s", system)
	}
	if got := strings.Count(system, "- "); got != 1 {
		t.Fatalf("expected exactly one memory line, got %d", got)
	}
	if m.Snapshot().TruncatedMemories != 1 {
		t.Fatalf("truncation metric = %d", m.Snapshot().TruncatedMemories)
	}
}

func TestBuildContextEmptyMemoryDiagnostic(t *testing.T) {
	m := &metrics.Metrics{}
	a := silentAssembler().WithMetrics(m)

	// Budget 5 minus persona and query leaves a 2-token memory budget,
	// too small for anything.
	a.BuildContext("P", "", "q", memoriesOf("a perfectly fine memory"), nil, 5)
	if m.Snapshot().EmptyContexts != 1 {
		t.Fatalf("empty-context metric = %d", m.Snapshot().EmptyContexts)
	}

	// No memories at all is not a diagnostic condition.
	a.BuildContext("P", "", "q", nil, nil, 5)
	if m.Snapshot().EmptyContexts != 1 {
		t.Fatal("diagnostic fired without candidate memories")
	}
}

func TestBuildContextTrimsHistoryToNewest(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "turn one"},
		{Role: models.RoleAssistant, Content: "turn two"},
		{Role: models.RoleUser, Content: "turn tre"},
	}
	// Budget 6: persona 1 + query 1 leaves 4 tokens of history budget;
	// each turn costs 2, so only the last two fit.
	msgs := silentAssembler().BuildContext("P", "", "q", nil, history, 6)
	var kept []string
	for _, msg := range msgs[1 : len(msgs)-1] {
		kept = append(kept, msg.Content)
	}
	if len(kept) != 2 || kept[0] != "turn two" || kept[1] != "turn tre" {
		t.Fatalf("kept %v, want the newest two turns", kept)
	}
}
