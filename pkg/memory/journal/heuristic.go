package journal

import (
	"regexp"
	"sort"
	"strings"

	"github.com/taleweave/taleweave/pkg/memory/model"
)

// When a model refuses to produce parseable JSON, these rules derive a
// best-effort entry from the raw prose instead of losing the memory
// entirely. Each branch is a standalone function so the rules can be
// tested and tuned independently.

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]?`)

// SummarySentence returns the first sentence longer than ~20
// characters. Text without one cannot yield a heuristic entry.
func SummarySentence(text string) (string, bool) {
	for _, raw := range sentenceRe.FindAllString(text, -1) {
		sentence := strings.TrimSpace(raw)
		if len(sentence) > 20 {
			return sentence, true
		}
	}
	return "", false
}

var importanceBands = []struct {
	score    float64
	keywords []string
}{
	{9, []string{"critical", "crucial", "vital", "pivotal", "life-changing"}},
	{7, []string{"important", "significant", "major", "memorable"}},
	{2, []string{"minor", "trivial", "mundane", "small talk"}},
}

// ImportanceFromText scores text on the 1-10 analysis scale using
// weight keywords, defaulting to the midpoint.
func ImportanceFromText(text string) float64 {
	lower := strings.ToLower(text)
	for _, band := range importanceBands {
		for _, kw := range band.keywords {
			if strings.Contains(lower, kw) {
				return band.score
			}
		}
	}
	return 5
}

var (
	positiveWords = []string{"happy", "glad", "grateful", "warm", "trust", "laughed", "smiled", "thanked", "friendly"}
	negativeWords = []string{"angry", "upset", "hurt", "betrayed", "argued", "hostile", "afraid", "insulted", "threatened"}
)

// SentimentFromText estimates a relationship delta from sentiment
// keywords, 0.1 per net hit, capped at +/-0.3.
func SentimentFromText(text string) float64 {
	lower := strings.ToLower(text)
	net := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			net++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			net--
		}
	}
	return model.Clamp(0.1*float64(net), -0.3, 0.3)
}

var decisionMarkers = []string{"decided", "agreed", "chose", "promised", "resolved to", "will "}

// DecisionsFromText collects sentences that carry commitment verbs.
func DecisionsFromText(text string) []string {
	var decisions []string
	for _, raw := range sentenceRe.FindAllString(text, -1) {
		sentence := strings.TrimSpace(raw)
		lower := strings.ToLower(sentence)
		for _, marker := range decisionMarkers {
			if strings.Contains(lower, marker) {
				decisions = append(decisions, sentence)
				break
			}
		}
	}
	return decisions
}

var topicStopwords = map[string]bool{
	"about": true, "after": true, "again": true, "because": true,
	"before": true, "being": true, "could": true, "might": true,
	"other": true, "said": true, "should": true, "their": true,
	"there": true, "these": true, "thing": true, "things": true,
	"think": true, "though": true, "through": true, "under": true,
	"where": true, "which": true, "while": true, "would": true,
}

var wordRe = regexp.MustCompile(`[A-Za-z]+`)

// TopicsFromText surfaces recurring content words (5+ letters appearing
// at least twice), most frequent first, capped at five.
func TopicsFromText(text string) []string {
	counts := map[string]int{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 5 && !topicStopwords[w] {
			counts[w]++
		}
	}
	var topics []string
	for w, n := range counts {
		if n >= 2 {
			topics = append(topics, w)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return topics
}

// HeuristicAnalysis assembles a best-effort analysis from raw model
// output. It reports false only when the text has no usable sentence.
func HeuristicAnalysis(text string) (*analysis, bool) {
	summary, ok := SummarySentence(text)
	if !ok {
		return nil, false
	}
	delta := SentimentFromText(text)
	emotions := model.Emotions{Positive: 0.2, Negative: 0.2, Neutral: 0.6}
	switch {
	case delta > 0:
		emotions = model.Emotions{Positive: 0.6, Negative: 0.1, Neutral: 0.3}
	case delta < 0:
		emotions = model.Emotions{Positive: 0.1, Negative: 0.6, Neutral: 0.3}
	}
	return &analysis{
		Summary:           summary,
		Emotions:          emotions,
		Decisions:         DecisionsFromText(text),
		Topics:            TopicsFromText(text),
		Importance:        ImportanceFromText(text),
		RelationshipDelta: delta,
	}, true
}
