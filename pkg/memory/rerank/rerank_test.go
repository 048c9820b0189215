package rerank

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLexicalRerankerOrdersByOverlap(t *testing.T) {
	docs := []string{
		"a recipe for bread",
		"the dragon guarded the mountain pass",
		"they spoke of the dragon in the mountain tavern",
	}
	indices, err := LexicalReranker{}.Rerank(context.Background(), "dragon mountain tavern", docs, 0)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(indices) != 3 {
		t.Fatalf("got %d indices, want 3", len(indices))
	}
	if indices[0] != 2 || indices[1] != 1 || indices[2] != 0 {
		t.Fatalf("unexpected order %v", indices)
	}
}

func TestLexicalRerankerTopN(t *testing.T) {
	docs := []string{"alpha", "beta", "gamma"}
	indices, err := LexicalReranker{}.Rerank(context.Background(), "beta", docs, 2)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(indices) != 2 {
		t.Fatalf("got %d indices, want 2", len(indices))
	}
	if indices[0] != 1 {
		t.Fatalf("expected beta first, got %v", indices)
	}
}

func TestLexicalRerankerEmptyDocs(t *testing.T) {
	indices, err := LexicalReranker{}.Rerank(context.Background(), "anything", nil, 5)
	if err != nil || indices != nil {
		t.Fatalf("got %v, %v", indices, err)
	}
}

type stubReranker struct {
	indices []int
	err     error
	calls   int
}

func (s *stubReranker) Rerank(context.Context, string, []string, int) ([]int, error) {
	s.calls++
	return s.indices, s.err
}

func silentChain() *Chain {
	return NewChain("").WithLogger(log.New(io.Discard))
}

func TestChainFallsBack(t *testing.T) {
	failing := &stubReranker{err: errors.New("quota exceeded")}
	good := &stubReranker{indices: []int{1, 0}}
	c := silentChain().
		WithReranker("cohere", failing).
		WithReranker("lexical", good)

	indices, err := c.Rerank(context.Background(), "q", []string{"a", "b"}, 2)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(indices) != 2 || indices[0] != 1 {
		t.Fatalf("unexpected indices %v", indices)
	}
	if failing.calls != 1 {
		t.Fatalf("failing reranker called %d times, want 1", failing.calls)
	}
}

func TestChainTotalFailure(t *testing.T) {
	bad := errors.New("down")
	c := silentChain().
		WithReranker("cohere", &stubReranker{err: bad}).
		WithReranker("lexical", &stubReranker{err: bad})

	_, err := c.Rerank(context.Background(), "q", []string{"a"}, 1)
	if !errors.Is(err, ErrAllRerankersFailed) {
		t.Fatalf("err = %v, want ErrAllRerankersFailed", err)
	}
}
