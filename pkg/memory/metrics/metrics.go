package metrics

import "sync/atomic"

// Metrics captures lightweight runtime counters for observability.
type Metrics struct {
	entriesWritten    atomic.Int64
	entriesSkipped    atomic.Int64
	retrievals        atomic.Int64
	providerFallbacks atomic.Int64
	rerankFallbacks   atomic.Int64
	truncatedMemories atomic.Int64
	emptyContexts     atomic.Int64
	deletions         atomic.Int64
}

func (m *Metrics) IncEntriesWritten()     { m.entriesWritten.Add(1) }
func (m *Metrics) IncEntriesSkipped()     { m.entriesSkipped.Add(1) }
func (m *Metrics) IncRetrievals(n int)    { m.retrievals.Add(int64(n)) }
func (m *Metrics) IncProviderFallbacks()  { m.providerFallbacks.Add(1) }
func (m *Metrics) IncRerankFallbacks()    { m.rerankFallbacks.Add(1) }
func (m *Metrics) IncTruncatedMemories()  { m.truncatedMemories.Add(1) }
func (m *Metrics) IncEmptyContexts()      { m.emptyContexts.Add(1) }
func (m *Metrics) IncDeletions(n int)     { m.deletions.Add(int64(n)) }

// Snapshot holds the current counter values for reporting/logging.
type Snapshot struct {
	EntriesWritten    int64 `json:"entries_written"`
	EntriesSkipped    int64 `json:"entries_skipped"`
	Retrievals        int64 `json:"retrievals"`
	ProviderFallbacks int64 `json:"provider_fallbacks"`
	RerankFallbacks   int64 `json:"rerank_fallbacks"`
	TruncatedMemories int64 `json:"truncated_memories"`
	EmptyContexts     int64 `json:"empty_contexts"`
	Deletions         int64 `json:"deletions"`
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		EntriesWritten:    m.entriesWritten.Load(),
		EntriesSkipped:    m.entriesSkipped.Load(),
		Retrievals:        m.retrievals.Load(),
		ProviderFallbacks: m.providerFallbacks.Load(),
		RerankFallbacks:   m.rerankFallbacks.Load(),
		TruncatedMemories: m.truncatedMemories.Load(),
		EmptyContexts:     m.emptyContexts.Load(),
		Deletions:         m.deletions.Load(),
	}
}
