package chunker

import (
	"github.com/codesearch/hybrid-search/internal/fingerprint"
	"github.com/codesearch/hybrid-search/internal/model"
)

// ApplyOverlap is an optional post-pass the indexer applies to text
// files only: for every chunk after the first, prefix
// the embeddable Content with the last OverlapSize characters of the
// previous chunk under a "\n...\n\n" separator. ContentRaw is left untouched
// so duplicate detection and the round-trip invariant never see the
// overlap text.
func ApplyOverlap(chunks []model.Chunk, overlapSize int) []model.Chunk {
	if overlapSize <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]model.Chunk, len(chunks))
	copy(out, chunks)
	for i := 1; i < len(out); i++ {
		prevContent := out[i-1].Content
		tail := prevContent
		if len(tail) > overlapSize {
			tail = tail[len(tail)-overlapSize:]
		}
		out[i].Content = tail + "\n...\n\n" + out[i].Content
		out[i].Hash = fingerprint.HexString(out[i].Content)
	}
	return out
}
