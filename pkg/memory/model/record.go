package model

import "time"

// Kind discriminates seed memories from journal entries.
type Kind string

const (
	KindPersona      Kind = "persona"
	KindFirstMessage Kind = "firstMessage"
	KindJournal      Kind = "journal"
)

// Emotions holds the positive/negative/neutral weights an analysis assigns
// to a conversation chunk.
type Emotions struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// MemoryRecord represents one retrievable unit of long-term memory.
// A record is immutable once stored; the only mutation the store supports
// is bulk deletion by owner.
type MemoryRecord struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	Importance float64   `json:"importance"`
	Embedding  []float32 `json:"embedding"`
	Kind       Kind      `json:"kind"`

	// Journal-only structured fields. All optional, empty for seed memories.
	Emotions          Emotions `json:"emotions,omitempty"`
	Decisions         []string `json:"decisions,omitempty"`
	Topics            []string `json:"topics,omitempty"`
	Participants      []string `json:"participants,omitempty"`
	PlotElements      []string `json:"plot_elements,omitempty"`
	RelationshipDelta float64  `json:"relationship_delta,omitempty"`

	// Distance is populated at query time: cosine distance to the query
	// vector, smaller is closer. Never persisted.
	Distance float64 `json:"distance,omitempty"`
}

// ClampImportance forces a stored importance into the [0.1, 1.0] band.
func ClampImportance(v float64) float64 {
	return Clamp(v, 0.1, 1.0)
}

// NormalizeImportance converts an analysis-scale importance (1-10) into
// the stored [0.1, 1.0] scale.
func NormalizeImportance(raw float64) float64 {
	return ClampImportance(raw / 10.0)
}

// Clamp bounds val into [minVal, maxVal].
func Clamp(val, minVal, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
