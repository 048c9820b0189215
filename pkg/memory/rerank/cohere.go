package rerank

import (
	"context"
	"errors"
	"os"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// CohereReranker scores query/document relevance with the Cohere rerank
// endpoint.
type CohereReranker struct {
	Client *cohereclient.Client
	Model  string
}

func NewCohereReranker(model string) (*CohereReranker, error) {
	key := os.Getenv("COHERE_API_KEY")
	if key == "" {
		return nil, errors.New("missing COHERE_API_KEY")
	}
	if model == "" {
		model = "rerank-english-v3.0"
	}
	return &CohereReranker{
		Client: cohereclient.NewClient(cohereclient.WithToken(key)),
		Model:  model,
	}, nil
}

func (c *CohereReranker) Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}
	items := make([]*cohere.RerankRequestDocumentsItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, &cohere.RerankRequestDocumentsItem{String: doc})
	}
	resp, err := c.Client.Rerank(ctx, &cohere.RerankRequest{
		Model:     cohere.String(c.Model),
		Query:     query,
		Documents: items,
		TopN:      cohere.Int(topN),
	})
	if err != nil {
		return nil, err
	}
	indices := make([]int, 0, len(resp.Results))
	for _, res := range resp.Results {
		indices = append(indices, res.Index)
	}
	if len(indices) == 0 {
		return nil, errors.New("cohere returned no results")
	}
	return indices, nil
}
