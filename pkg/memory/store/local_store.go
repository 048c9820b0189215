package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/taleweave/taleweave/pkg/memory/model"
)

// LocalStore is the default embedded backend. The authoritative copy of
// every record lives in an in-process map; a chromem-go collection per
// embedding dimensionality mirrors the vectors as an accelerated KNN
// index. The mirror is strictly best-effort: if any index operation
// fails the store degrades to a brute-force cosine scan and stays there.
type LocalStore struct {
	mu      sync.RWMutex
	records map[string]model.MemoryRecord

	index   *chromem.DB
	byDim   map[int]*chromem.Collection
	indexOK bool

	logger *log.Logger

	initOnce sync.Once
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		indexOK: true,
		logger:  log.With("component", "local-store"),
	}
}

// WithLogger overrides the default logger.
func (s *LocalStore) WithLogger(logger *log.Logger) *LocalStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithoutIndex disables the accelerated mirror entirely, leaving only the
// brute-force path. Used by deployments without the index and by tests
// that need to pin down fallback behavior.
func (s *LocalStore) WithoutIndex() *LocalStore {
	s.indexOK = false
	return s
}

func (s *LocalStore) EnsureReady(_ context.Context) error {
	s.initOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.records == nil {
			s.records = make(map[string]model.MemoryRecord)
		}
		s.byDim = make(map[int]*chromem.Collection)
		if s.indexOK {
			s.index = chromem.NewDB()
		}
	})
	return nil
}

func (s *LocalStore) Insert(ctx context.Context, rec model.MemoryRecord) (string, error) {
	if err := s.EnsureReady(ctx); err != nil {
		return "", err
	}
	if len(rec.Embedding) == 0 {
		return "", ErrEmptyEmbedding
	}
	if rec.Owner == "" {
		return "", ErrNoOwner
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Importance = model.ClampImportance(rec.Importance)
	rec.Embedding = append([]float32(nil), rec.Embedding...)
	rec.Distance = 0

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()

	// The map write above is the commit point; the mirror only accelerates.
	s.indexAdd(ctx, rec)
	return rec.ID, nil
}

func (s *LocalStore) indexAdd(ctx context.Context, rec model.MemoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indexOK {
		return
	}
	col, err := s.dimCollection(len(rec.Embedding))
	if err == nil {
		err = col.AddDocument(ctx, chromem.Document{
			ID:        rec.ID,
			Content:   rec.Summary,
			Embedding: rec.Embedding,
			Metadata:  map[string]string{"owner": rec.Owner},
		})
	}
	if err != nil {
		s.logger.Warn("accelerated index unavailable, falling back to scan", "err", err)
		s.indexOK = false
	}
}

// dimCollection returns the mirror collection for one dimensionality.
// Keeping dimensionalities apart makes dimension isolation structural on
// the accelerated path.
func (s *LocalStore) dimCollection(dim int) (*chromem.Collection, error) {
	if col, ok := s.byDim[dim]; ok {
		return col, nil
	}
	col, err := s.index.GetOrCreateCollection(fmt.Sprintf("memories-%d", dim), nil, nil)
	if err != nil {
		return nil, err
	}
	s.byDim[dim] = col
	return col, nil
}

func (s *LocalStore) Query(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	if err := s.EnsureReady(ctx); err != nil {
		return nil, err
	}
	if k <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	indexOK := s.indexOK
	col := s.byDim[len(embedding)]
	s.mu.RUnlock()

	if indexOK {
		if col == nil {
			// No record of this dimensionality has ever been indexed.
			return nil, nil
		}
		if recs, err := s.queryIndex(ctx, col, embedding, k); err == nil {
			return recs, nil
		} else {
			s.logger.Warn("accelerated query failed, scanning", "err", err)
		}
	}
	return s.scan(embedding, k), nil
}

func (s *LocalStore) queryIndex(ctx context.Context, col *chromem.Collection, embedding []float32, k int) ([]model.MemoryRecord, error) {
	n := k
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}
	results, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]model.MemoryRecord, 0, len(results))
	for _, res := range results {
		rec, ok := s.records[res.ID]
		if !ok {
			continue
		}
		rec.Distance = 1 - float64(res.Similarity)
		records = append(records, rec)
	}
	return records, nil
}

// scan is the brute-force fallback: cosine distance against every stored
// vector of matching dimensionality, ascending, truncated to k.
func (s *LocalStore) scan(embedding []float32, k int) []model.MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []model.MemoryRecord
	for _, rec := range s.records {
		dist, ok := model.CosineDistance(embedding, rec.Embedding)
		if !ok {
			continue
		}
		rec.Distance = dist
		records = append(records, rec)
	}
	sortByDistance(records)
	if len(records) > k {
		records = records[:k]
	}
	return records
}

func (s *LocalStore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	if err := s.EnsureReady(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	count := 0
	for id, rec := range s.records {
		if rec.Owner == owner {
			delete(s.records, id)
			count++
		}
	}
	collections := make([]*chromem.Collection, 0, len(s.byDim))
	if s.indexOK {
		for _, col := range s.byDim {
			collections = append(collections, col)
		}
	}
	s.mu.Unlock()

	for _, col := range collections {
		if err := col.Delete(ctx, map[string]string{"owner": owner}, nil); err != nil {
			s.logger.Warn("index delete failed", "owner", owner, "err", err)
		}
	}
	return count, nil
}

// Count reports the number of stored records.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	if err := s.EnsureReady(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
