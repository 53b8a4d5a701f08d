package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/embed"
	"github.com/codesearch/hybrid-search/internal/model"
)

// batchFlusher accumulates chunks across files and flushes them to the
// embeddings provider and vector store once BatchSize is reached
// (default batch size 256).
type batchFlusher struct {
	idx    *Indexer
	chunks []model.Chunk
}

func newBatchFlusher(idx *Indexer) *batchFlusher {
	return &batchFlusher{idx: idx}
}

// add queues relPath's chunks, flushing whenever the pending batch reaches
// the configured batch size.
func (f *batchFlusher) add(ctx context.Context, relPath string, chunks []model.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	for len(f.chunks) >= f.idx.cfg.BatchSize {
		batch := f.chunks[:f.idx.cfg.BatchSize]
		f.chunks = f.chunks[f.idx.cfg.BatchSize:]
		if err := f.flush(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// flushRemaining flushes whatever is left in the pending batch, even if it
// is smaller than BatchSize. Call once after the caller's loop ends.
func (f *batchFlusher) flushRemaining(ctx context.Context) error {
	if len(f.chunks) == 0 {
		return nil
	}
	batch := f.chunks
	f.chunks = nil
	return f.flush(ctx, batch)
}

func (f *batchFlusher) flush(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embed.EmbedBatched(ctx, f.idx.provider, texts, embed.EmbedModePassage, embed.BatchOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", coreerrors.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: provider returned %d vectors for %d chunks", coreerrors.ErrEmbedding, len(vectors), len(chunks))
	}

	rows := make([]model.EmbeddingRow, len(chunks))
	for i, c := range chunks {
		rows[i] = model.FromChunk(c, vectors[i])
	}
	return f.idx.store.AddDocuments(rows)
}

// readFileQuiet reads a file's full contents, used by Verify where a
// missing file is an expected outcome rather than an error worth wrapping.
func readFileQuiet(path string) ([]byte, error) {
	return os.ReadFile(path)
}
