package store

import (
	"context"
	"errors"
	"sort"

	"github.com/taleweave/taleweave/pkg/memory/model"
)

// VectorStore defines the contract for long-term memory backends.
//
// Query returns up to k records ordered best-first by cosine distance
// (1 - cos, smaller is closer). Implementations compare the query vector
// only against stored vectors of equal length; anything else is skipped,
// never coerced. Callers must not assume bit-identical scores between an
// accelerated index and the brute-force path, only that closer matches
// rank higher.
type VectorStore interface {
	// EnsureReady is idempotent initialization, safe to call concurrently.
	// Every other operation implicitly ensures readiness.
	EnsureReady(ctx context.Context) error

	// Insert appends a new immutable record and returns its id. The
	// authoritative write must commit even when an accelerated index
	// mirror is unavailable.
	Insert(ctx context.Context, rec model.MemoryRecord) (string, error)

	// Query returns up to k nearest records by cosine distance, best first.
	Query(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error)

	// DeleteByOwner removes every record belonging to owner, including any
	// accelerated-index entries, and returns the number removed. Unknown
	// owners yield 0, not an error.
	DeleteByOwner(ctx context.Context, owner string) (int, error)
}

var (
	// ErrEmptyEmbedding rejects writes without a usable vector. Records
	// are never stored with zero-length embeddings.
	ErrEmptyEmbedding = errors.New("record has no embedding")

	// ErrNoOwner rejects writes without an owner scope.
	ErrNoOwner = errors.New("record has no owner")
)

// sortByDistance orders records ascending by cosine distance, breaking
// ties by recency (newer first).
func sortByDistance(records []model.MemoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Distance != records[j].Distance {
			return records[i].Distance < records[j].Distance
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
