package rerank

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// LexicalReranker is an offline fallback that scores documents by
// normalized token overlap with the query. It never beats a trained
// model but it keeps reranking deterministic and available when no
// provider is reachable.
type LexicalReranker struct{}

func (LexicalReranker) Rerank(_ context.Context, query string, docs []string, topN int) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}
	queryTokens := tokenSet(query)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(docs))
	for i, doc := range docs {
		ranked = append(ranked, scored{index: i, score: overlap(queryTokens, tokenSet(doc))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	indices := make([]int, 0, topN)
	for _, r := range ranked[:topN] {
		indices = append(indices, r.index)
	}
	return indices, nil
}

func tokenSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		set[tok] = true
	}
	return set
}

// overlap is the share of query tokens the document covers.
func overlap(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if doc[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
