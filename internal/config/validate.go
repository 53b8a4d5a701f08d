package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidDimensions indicates invalid embedding dimensions.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidChunkSize indicates an invalid chunk size.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates an invalid overlap.
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrEmptyEndpoint indicates a remote provider with no endpoint.
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrEmptyModel indicates a missing embedding model name.
	ErrEmptyModel = errors.New("empty embedding model")

	// ErrInvalidReranker indicates an unsupported reranker provider.
	ErrInvalidReranker = errors.New("invalid reranker provider")

	// ErrInvalidCacheSettings indicates invalid cache limits.
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
)

// Validate checks that the configuration is complete and internally
// consistent. All problems are reported at once rather than one per run.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateReranker(&cfg.Reranker); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "onnx", "remote", "mock", "":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'onnx', 'remote', or 'mock', got '%s'", ErrInvalidProvider, cfg.Provider))
	}

	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}

	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}

	// Only the remote provider talks to an endpoint; the ONNX path loads
	// model files locally and the mock needs nothing.
	if provider == "remote" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required for the remote provider", ErrEmptyEndpoint))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateReranker(cfg *RerankerConfig) error {
	switch strings.ToLower(cfg.Provider) {
	case "", "mock":
		return nil
	case "http":
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return fmt.Errorf("%w: http reranker requires an endpoint", ErrInvalidReranker)
		}
		return nil
	default:
		return fmt.Errorf("%w: must be '', 'http', or 'mock', got '%s'", ErrInvalidReranker, cfg.Provider)
	}
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error

	if cfg.DocChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: doc_chunk_size must be positive, got %d", ErrInvalidChunkSize, cfg.DocChunkSize))
	}
	if cfg.CodeChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: code_chunk_size must be positive, got %d", ErrInvalidChunkSize, cfg.CodeChunkSize))
	}
	if cfg.Overlap < 0 {
		errs = append(errs, fmt.Errorf("%w: overlap cannot be negative, got %d", ErrInvalidOverlap, cfg.Overlap))
	}
	if cfg.DocChunkSize > 0 && cfg.Overlap >= cfg.DocChunkSize {
		errs = append(errs, fmt.Errorf("%w: overlap (%d) must be less than doc_chunk_size (%d)", ErrInvalidOverlap, cfg.Overlap, cfg.DocChunkSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateStorage(cfg *StorageConfig) error {
	var errs []error

	// Negative limits are invalid; zero disables the corresponding eviction.
	if cfg.CacheMaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_max_age_days cannot be negative, got %d", ErrInvalidCacheSettings, cfg.CacheMaxAgeDays))
	}
	if cfg.CacheMaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_max_size_mb cannot be negative, got %.2f", ErrInvalidCacheSettings, cfg.CacheMaxSizeMB))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors flattens to errors.Join so callers can still errors.Is
// against the sentinel values when several fields fail at once.
func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
