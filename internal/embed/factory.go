package embed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and parameterizes an embedding Provider. Provider, model,
// and Dimensions together form the index compatibility key:
// changing any of them after an index exists forces a full rebuild.
type Config struct {
	// Provider is "onnx", "remote", or "mock".
	Provider string

	// ModelDir is the local directory holding model.onnx/tokenizer.json
	// for the "onnx" provider; downloaded there on first use if absent.
	ModelDir string

	// Endpoint is the batched HTTPS embedding URL for the "remote" provider.
	Endpoint string

	// APIKey authenticates against Endpoint, when set.
	APIKey string

	// Model names the remote model; advertised alongside Provider/Dimensions.
	Model string

	// Dimensions is required for "remote" (the client can't otherwise know
	// the vector width in advance); ignored for "onnx" (fixed at 384) and
	// "mock" (fixed at 384).
	Dimensions int
}

// defaultModelDir places the downloaded ONNX model under the user cache
// directory, falling back to a relative path if that can't be resolved.
func defaultModelDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "hybrid-search", "models", "bge-small-en-v1.5")
	}
	return filepath.Join(".cache", "hybrid-search", "models", "bge-small-en-v1.5")
}

// NewProvider builds the embeddings client named by config.Provider.
func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "onnx", "": // empty defaults to the local ONNX model
		modelDir := config.ModelDir
		if modelDir == "" {
			modelDir = defaultModelDir()
		}
		return NewONNXProvider(context.Background(), modelDir)

	case "remote":
		if config.Endpoint == "" {
			return nil, fmt.Errorf("remote embedding provider requires an endpoint")
		}
		dim := config.Dimensions
		if dim == 0 {
			dim = 384
		}
		return NewRemoteProvider(config.Endpoint, config.APIKey, config.Model, dim), nil

	case "mock":
		return newMockProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: onnx, remote, mock)", config.Provider)
	}
}

// RerankerConfig selects the cross-encoder reranker, when the caller opts
// into reranking.
type RerankerConfig struct {
	Provider string // "http" or "mock"
	Endpoint string
	APIKey   string
}

// NewReranker builds a Reranker, or nil if config.Provider is empty —
// reranking is optional and the search engine skips the step entirely
// when no reranker is configured.
func NewReranker(config RerankerConfig) (Reranker, error) {
	switch config.Provider {
	case "":
		return nil, nil
	case "http":
		if config.Endpoint == "" {
			return nil, fmt.Errorf("http reranker requires an endpoint")
		}
		return NewHTTPReranker(config.Endpoint, config.APIKey), nil
	case "mock":
		return MockReranker{}, nil
	default:
		return nil, fmt.Errorf("unsupported reranker provider: %s (supported: http, mock)", config.Provider)
	}
}
