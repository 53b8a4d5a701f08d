package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// remoteProvider calls a batched HTTPS embedding API. The endpoint's
// dimension and model identity are supplied by the caller up front since
// the core must know them before the compatibility key is decided.
type remoteProvider struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// NewRemoteProvider builds a Provider backed by a remote batch-embedding
// HTTP endpoint. The endpoint must accept {texts, mode} and return
// {embeddings}, mirroring the local server's wire shape.
func NewRemoteProvider(endpoint, apiKey, model string, dimensions int) Provider {
	return &remoteProvider{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type remoteEmbedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
	Model string   `json:"model,omitempty"`
}

type remoteEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *remoteProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(remoteEmbedRequest{Texts: texts, Mode: string(mode), Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint returned status %d", resp.StatusCode)
	}

	var parsed remoteEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding endpoint returned %d vectors for %d inputs", len(parsed.Embeddings), len(texts))
	}
	for _, v := range parsed.Embeddings {
		normalizeInPlace(v)
	}
	return parsed.Embeddings, nil
}

func (p *remoteProvider) Dimensions() int { return p.dimensions }

func (p *remoteProvider) Close() error { return nil }
