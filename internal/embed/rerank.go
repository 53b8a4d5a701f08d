package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RerankResult pairs a document's original index with the cross-encoder's
// logit score per (query, document) pair.
type RerankResult struct {
	Index int
	Score float64
}

// Reranker is the external cross-encoder contract. It is optional: the
// search engine only calls it when the caller opts in.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]RerankResult, error)
}

// httpReranker calls a batched HTTPS rerank endpoint, mirroring the
// embeddings client's remote transport.
type httpReranker struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPReranker builds a Reranker backed by a remote cross-encoder
// endpoint that accepts {query, documents} and returns {results}.
func NewHTTPReranker(endpoint, apiKey string) Reranker {
	return &httpReranker{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponseItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type rerankResponse struct {
	Results []rerankResponseItem `json:"results"`
}

func (r *httpReranker) Rerank(ctx context.Context, query string, docs []string) ([]RerankResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Documents: docs})
	if err != nil {
		return nil, fmt.Errorf("encode rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank endpoint returned status %d", resp.StatusCode)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	out := make([]RerankResult, len(parsed.Results))
	for i, r := range parsed.Results {
		out[i] = RerankResult{Index: r.Index, Score: r.Score}
	}
	return out, nil
}

// MockReranker scores documents deterministically for tests: it boosts
// documents containing the query verbatim and otherwise preserves input
// order, so reordering behavior in the search engine is exercisable
// without a live cross-encoder.
type MockReranker struct{}

func (MockReranker) Rerank(_ context.Context, query string, docs []string) ([]RerankResult, error) {
	out := make([]RerankResult, len(docs))
	for i, d := range docs {
		score := 0.1
		if query != "" && strings.Contains(d, query) {
			score = 0.9
		}
		out[i] = RerankResult{Index: i, Score: score}
	}
	return out, nil
}
