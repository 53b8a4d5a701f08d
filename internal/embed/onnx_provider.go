package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/codesearch/hybrid-search/internal/embed/onnx"
)

// onnxProvider embeds locally via ONNX Runtime, batching through the
// model handle it loaded. BGE-family models distinguish queries from
// passages with a short instruction prefix rather than a separate head, so
// EmbedModeQuery gets "query: " and EmbedModePassage gets no prefix.
type onnxProvider struct {
	model *onnx.Model
}

// NewONNXProvider downloads (if needed) and loads the BGE-small ONNX model
// from modelDir, returning a Provider that produces L2-normalized vectors.
func NewONNXProvider(ctx context.Context, modelDir string) (Provider, error) {
	if !onnx.Exists(modelDir) {
		d := onnx.NewDownloader()
		if err := d.DownloadModel(ctx, modelDir, nil); err != nil {
			return nil, fmt.Errorf("download embedding model: %w", err)
		}
	}
	model, err := onnx.Load(modelDir)
	if err != nil {
		return nil, fmt.Errorf("load embedding model: %w", err)
	}
	return &onnxProvider{model: model}, nil
}

func (p *onnxProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	prefixed := texts
	if mode == EmbedModeQuery {
		prefixed = make([]string, len(texts))
		for i, t := range texts {
			prefixed[i] = "query: " + t
		}
	}

	vectors, err := p.model.EmbedBatch(prefixed)
	if err != nil {
		return nil, fmt.Errorf("onnx embed batch: %w", err)
	}
	for _, v := range vectors {
		normalizeInPlace(v)
	}
	return vectors, nil
}

func (p *onnxProvider) Dimensions() int { return onnx.Dimensions }

func (p *onnxProvider) Close() error { return p.model.Close() }

// normalizeInPlace L2-normalizes v. The zero vector is left untouched
// rather than dividing by zero.
func normalizeInPlace(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
}
