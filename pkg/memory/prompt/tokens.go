package prompt

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many tokens a text block costs.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter approximates tokens as length/4, the usual rule of
// thumb for English prose. It exists so budgeting still works when no
// real tokenizer is available.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// TiktokenCounter counts with the cl100k_base encoding, degrading to
// the heuristic if the encoding cannot be loaded. Initialization is
// lazy because loading the BPE ranks is comparatively expensive.
type TiktokenCounter struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
	fallback HeuristicCounter
	logger   *log.Logger
}

func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{logger: log.With("component", "tokenizer")}
}

func (t *TiktokenCounter) Count(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			t.logger.Warn("tokenizer unavailable, using length heuristic", "err", err)
			return
		}
		t.encoding = enc
	})
	if t.encoding == nil {
		return t.fallback.Count(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}
