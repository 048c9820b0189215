package model

import (
	"math"
	"testing"
)

func TestStatusForSentimentBoundaries(t *testing.T) {
	cases := []struct {
		sentiment float64
		want      RelationshipStatus
	}{
		{0.5, StatusFriendly},
		{0.41, StatusFriendly},
		{0.4, StatusAcquaintance},
		{0.2, StatusAcquaintance},
		{0.1, StatusNeutral},
		{0.0, StatusNeutral},
		{-0.1, StatusNeutral},
		{-0.2, StatusWary},
		{-0.4, StatusWary},
		{-0.41, StatusHostile},
		{-1.0, StatusHostile},
	}
	for _, tc := range cases {
		if got := StatusForSentiment(tc.sentiment); got != tc.want {
			t.Fatalf("sentiment %.2f: expected %q, got %q", tc.sentiment, tc.want, got)
		}
	}
}

func TestApplyDeltaClampsSentiment(t *testing.T) {
	state := RelationshipState{Sentiment: 0.9, Status: StatusFriendly}
	state = state.ApplyDelta(0.5)
	if state.Sentiment != 1.0 {
		t.Fatalf("expected sentiment clamped to 1.0, got %.2f", state.Sentiment)
	}
	for i := 0; i < 20; i++ {
		state = state.ApplyDelta(-0.3)
	}
	if state.Sentiment != -1.0 {
		t.Fatalf("expected sentiment clamped to -1.0, got %.2f", state.Sentiment)
	}
	if state.Status != StatusHostile {
		t.Fatalf("expected hostile status at -1.0, got %q", state.Status)
	}
}

func TestApplyDeltaScenario(t *testing.T) {
	state := RelationshipState{Sentiment: 0.0, Status: StatusNeutral}
	state = state.ApplyDelta(0.2)
	if state.Sentiment != 0.2 {
		t.Fatalf("expected sentiment 0.2, got %.2f", state.Sentiment)
	}
	if state.Status != StatusAcquaintance {
		t.Fatalf("expected acquaintance, got %q", state.Status)
	}
}

func TestNormalizeImportance(t *testing.T) {
	cases := []struct {
		raw  float64
		want float64
	}{
		{4, 0.4},
		{10, 1.0},
		{1, 0.1},
		{0, 0.1},
		{-3, 0.1},
		{25, 1.0},
	}
	for _, tc := range cases {
		if got := NormalizeImportance(tc.raw); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("importance %.1f: expected %.2f, got %.2f", tc.raw, tc.want, got)
		}
	}
}

func TestCosineSimilarityRejectsMismatchedLengths(t *testing.T) {
	if _, ok := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); ok {
		t.Fatalf("expected mismatched lengths to be incomparable")
	}
	if _, ok := CosineSimilarity(nil, nil); ok {
		t.Fatalf("expected empty vectors to be incomparable")
	}
	if _, ok := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); ok {
		t.Fatalf("expected zero-norm vector to be incomparable")
	}
}

func TestCosineDistanceOrdering(t *testing.T) {
	query := []float32{1, 0}
	near, ok := CosineDistance(query, []float32{0.9, 0.1})
	if !ok {
		t.Fatalf("expected near vector to be comparable")
	}
	far, ok := CosineDistance(query, []float32{0.1, 0.9})
	if !ok {
		t.Fatalf("expected far vector to be comparable")
	}
	if near >= far {
		t.Fatalf("expected near distance %.4f < far distance %.4f", near, far)
	}
}

func TestMeanVector(t *testing.T) {
	mean, ok := MeanVector([]float32{1, 3}, []float32{3, 5})
	if !ok {
		t.Fatalf("expected equal-length vectors to average")
	}
	if mean[0] != 2 || mean[1] != 4 {
		t.Fatalf("unexpected mean %v", mean)
	}
	if _, ok := MeanVector([]float32{1}, []float32{1, 2}); ok {
		t.Fatalf("expected mismatched lengths to fail")
	}
}
