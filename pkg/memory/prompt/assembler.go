package prompt

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/taleweave/taleweave/pkg/memory/metrics"
	"github.com/taleweave/taleweave/pkg/memory/model"
	"github.com/taleweave/taleweave/pkg/models"
)

const (
	// DefaultSafetyMargin absorbs tokenizer estimation error and message
	// framing overhead.
	DefaultSafetyMargin = 64

	// memoryShare is the fraction of the post-fixed-cost budget reserved
	// for memory text; the rest goes to conversation history.
	memoryShare = 0.7
)

// Assembler folds persona, scenario, memories, and history into a
// token-budgeted prompt.
type Assembler struct {
	counter TokenCounter
	margin  int
	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewAssembler(counter TokenCounter) *Assembler {
	if counter == nil {
		counter = HeuristicCounter{}
	}
	return &Assembler{
		counter: counter,
		margin:  DefaultSafetyMargin,
		logger:  log.With("component", "context"),
	}
}

func (a *Assembler) WithSafetyMargin(margin int) *Assembler {
	if margin >= 0 {
		a.margin = margin
	}
	return a
}

func (a *Assembler) WithLogger(logger *log.Logger) *Assembler {
	if logger != nil {
		a.logger = logger
	}
	return a
}

func (a *Assembler) WithMetrics(m *metrics.Metrics) *Assembler {
	a.metrics = m
	return a
}

// BuildContext assembles the prompt for one generation call. Persona is
// always included untouched; dropping or truncating it would break
// character identity. Scenario text only matters before any history
// exists. Memories and history divide whatever budget remains.
func (a *Assembler) BuildContext(persona, scenario, query string, memories []model.MemoryRecord, history []models.Message, tokenBudget int) []models.Message {
	var system strings.Builder
	system.WriteString(persona)

	includeScenario := scenario != "" && len(history) == 0
	if includeScenario {
		system.WriteString("\n\n")
		system.WriteString(scenario)
	}

	fixed := a.counter.Count(system.String()) + a.counter.Count(query) + a.margin
	remaining := tokenBudget - fixed
	if remaining < 0 {
		remaining = 0
	}
	memoryBudget := int(float64(remaining) * memoryShare)

	memoryBlock, used := a.formatMemories(memories, memoryBudget)
	if memoryBlock != "" {
		system.WriteString("\n\nRelevant memories:\n")
		system.WriteString(memoryBlock)
	} else if len(memories) > 0 && memoryBudget > 0 {
		a.logger.Error("memories were available but none fit the context",
			"memories", len(memories), "memoryBudget", memoryBudget)
		if a.metrics != nil {
			a.metrics.IncEmptyContexts()
		}
	}

	historyBudget := remaining - used
	trimmed := a.trimHistory(history, historyBudget)

	out := make([]models.Message, 0, len(trimmed)+2)
	out = append(out, models.Message{Role: models.RoleSystem, Content: system.String()})
	out = append(out, trimmed...)
	out = append(out, models.Message{Role: models.RoleUser, Content: query})
	return out
}

// formatMemories renders memories as a bulleted block within budget and
// reports the tokens spent. Entries with decisions lead, then higher
// importance; sub-lines are opportunistic. The first over-budget memory
// is truncated with an ellipsis so at least something survives; later
// ones are dropped whole.
func (a *Assembler) formatMemories(memories []model.MemoryRecord, budget int) (string, int) {
	if len(memories) == 0 || budget <= 0 {
		return "", 0
	}
	ordered := append([]model.MemoryRecord(nil), memories...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := len(ordered[i].Decisions) > 0, len(ordered[j].Decisions) > 0
		if di != dj {
			return di
		}
		return ordered[i].Importance > ordered[j].Importance
	})

	var block strings.Builder
	used := 0
	for i, rec := range ordered {
		line := "- " + rec.Summary + "\n"
		cost := a.counter.Count(line)
		if used+cost > budget {
			if i > 0 {
				continue
			}
			truncated := a.truncate(rec.Summary, budget-used-a.counter.Count("- …\n"))
			if truncated == "" {
				continue
			}
			line = "- " + truncated + "…\n"
			block.WriteString(line)
			used += a.counter.Count(line)
			if a.metrics != nil {
				a.metrics.IncTruncatedMemories()
			}
			continue
		}
		block.WriteString(line)
		used += cost

		for _, sub := range subLines(rec) {
			subCost := a.counter.Count(sub)
			if used+subCost > budget {
				break
			}
			block.WriteString(sub)
			used += subCost
		}
	}
	return block.String(), used
}

func subLines(rec model.MemoryRecord) []string {
	var lines []string
	if len(rec.Decisions) > 0 {
		lines = append(lines, "  decisions: "+strings.Join(rec.Decisions, "; ")+"\n")
	}
	if len(rec.Participants) > 0 {
		lines = append(lines, "  participants: "+strings.Join(rec.Participants, ", ")+"\n")
	}
	if len(rec.PlotElements) > 0 {
		lines = append(lines, "  plot: "+strings.Join(rec.PlotElements, "; ")+"\n")
	}
	return lines
}

// truncate shortens text until it fits maxTokens, cutting 10% per pass.
func (a *Assembler) truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	for len(runes) > 0 && a.counter.Count(string(runes)) > maxTokens {
		cut := len(runes) * 9 / 10
		if cut == len(runes) {
			cut--
		}
		runes = runes[:cut]
	}
	return strings.TrimSpace(string(runes))
}

// trimHistory keeps the newest turns that fit the budget, preserving
// chronological order.
func (a *Assembler) trimHistory(history []models.Message, budget int) []models.Message {
	if budget <= 0 || len(history) == 0 {
		return nil
	}
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := a.counter.Count(history[i].Content)
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	if start == len(history) {
		return nil
	}
	return history[start:]
}
