package journal

import (
	"math"
	"testing"
)

func TestSummarySentence(t *testing.T) {
	summary, ok := SummarySentence("Ok. The party finally reached the mountain shrine at dusk. More text.")
	if !ok {
		t.Fatal("expected a summary")
	}
	if summary != "The party finally reached the mountain shrine at dusk." {
		t.Fatalf("got %q", summary)
	}
	if _, ok := SummarySentence("Too short. Tiny."); ok {
		t.Fatal("expected no summary from short sentences")
	}
}

func TestImportanceFromText(t *testing.T) {
	cases := map[string]float64{
		"This was a pivotal revelation.":  9,
		"A significant step forward.":     7,
		"Just some mundane small talk.":   2,
		"They walked through the forest.": 5,
	}
	for in, want := range cases {
		if got := ImportanceFromText(in); got != want {
			t.Errorf("ImportanceFromText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSentimentFromText(t *testing.T) {
	cases := map[string]float64{
		"She smiled and thanked him.":                                 0.2,
		"He was angry and felt betrayed.":                             -0.2,
		"They talked about the weather.":                              0,
		"happy glad grateful trust warm laughed":                      0.3,
		"angry upset hurt betrayed argued hostile afraid":             -0.3,
		"She laughed, but he was angry about the insulted innkeeper.": -0.1,
	}
	for in, want := range cases {
		if got := SentimentFromText(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("SentimentFromText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDecisionsFromText(t *testing.T) {
	text := "They argued for hours. Finally they agreed to split the reward. She promised to return."
	decisions := DecisionsFromText(text)
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %v", decisions)
	}
}

func TestTopicsFromText(t *testing.T) {
	text := "The dragon guarded the treasure. Nobody had seen a dragon in years, but the treasure drew them anyway."
	topics := TopicsFromText(text)
	if len(topics) != 2 {
		t.Fatalf("expected [dragon treasure], got %v", topics)
	}
	for _, want := range []string{"dragon", "treasure"} {
		found := false
		for _, got := range topics {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing topic %q in %v", want, topics)
		}
	}
}

func TestHeuristicAnalysis(t *testing.T) {
	text := "The heroes finally reached the hidden temple and she smiled with relief. They agreed to rest before the descent."
	a, ok := HeuristicAnalysis(text)
	if !ok {
		t.Fatal("expected an analysis")
	}
	if a.Summary == "" || a.Importance != 5 {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if a.RelationshipDelta <= 0 {
		t.Fatalf("expected positive delta, got %v", a.RelationshipDelta)
	}
	if a.Emotions.Positive <= a.Emotions.Negative {
		t.Fatalf("expected positive-leaning emotions, got %+v", a.Emotions)
	}
	if len(a.Decisions) != 1 {
		t.Fatalf("expected one decision, got %v", a.Decisions)
	}
	if _, ok := HeuristicAnalysis("No."); ok {
		t.Fatal("expected failure on unusable text")
	}
}
