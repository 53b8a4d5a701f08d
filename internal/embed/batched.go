package embed

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// BatchProgress reports embedding progress after each provider call.
type BatchProgress struct {
	Batch          int // 1-indexed batch number
	ProcessedTexts int
	TotalTexts     int
}

// BatchOptions bounds a single provider call. Zero values fall back to
// the defaults below.
type BatchOptions struct {
	// MaxTexts caps texts per provider call.
	MaxTexts int

	// MaxTokens caps the summed token count per provider call, so a batch
	// of large chunks doesn't blow a remote endpoint's request limit.
	MaxTokens int

	// Progress, when non-nil, is called after each batch completes.
	Progress func(BatchProgress)
}

const (
	defaultMaxTexts  = 64
	defaultMaxTokens = 100_000
)

// tokenEncoding is the shared tiktoken handle. cl100k_base is not the BGE
// tokenizer, but for budget accounting any modern BPE is close enough,
// and it loads without model files.
var (
	tokenEncOnce sync.Once
	tokenEnc     *tiktoken.Tiktoken
)

// CountTokens estimates text's token count for batch budgeting. Falls
// back to a bytes/4 heuristic if the encoding fails to initialize.
func CountTokens(text string) int {
	tokenEncOnce.Do(func() {
		tokenEnc, _ = tiktoken.GetEncoding("cl100k_base")
	})
	if tokenEnc == nil {
		return len(text) / 4
	}
	return len(tokenEnc.Encode(text, nil, nil))
}

// EmbedBatched embeds texts through provider in order-preserving batches,
// cutting a new batch when either the text count or the token budget
// would be exceeded. A single oversized text still goes through as its
// own batch; truncation is the provider's business, not ours.
func EmbedBatched(ctx context.Context, provider Provider, texts []string, mode EmbedMode, opts BatchOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if opts.MaxTexts <= 0 {
		opts.MaxTexts = defaultMaxTexts
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	results := make([][]float32, 0, len(texts))
	processed := 0
	batchNum := 0

	start := 0
	for start < len(texts) {
		end := start
		tokens := 0
		for end < len(texts) && end-start < opts.MaxTexts {
			t := CountTokens(texts[end])
			if end > start && tokens+t > opts.MaxTokens {
				break
			}
			tokens += t
			end++
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batchNum++
		vectors, err := provider.Embed(ctx, texts[start:end], mode)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", batchNum, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("batch %d: provider returned %d vectors for %d texts", batchNum, len(vectors), end-start)
		}
		results = append(results, vectors...)

		processed += end - start
		if opts.Progress != nil {
			opts.Progress(BatchProgress{Batch: batchNum, ProcessedTexts: processed, TotalTexts: len(texts)})
		}
		start = end
	}

	return results, nil
}
