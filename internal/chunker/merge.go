package chunker

import "github.com/codesearch/hybrid-search/internal/model"

// mergeSmallDeclarations folds small adjacent declarations: a small top-level
// declaration that references an identifier defined in the immediately
// preceding small declaration is folded into its successor, so e.g. a
// one-line type alias doesn't end up isolated from the function that
// consumes it.
func (c *Chunker) mergeSmallDeclarations(chunks []model.Chunk) []model.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	threshold := c.opts.MergeThreshold
	if threshold <= 0 {
		return chunks
	}

	out := make([]model.Chunk, 0, len(chunks))
	out = append(out, chunks[0])
	for i := 1; i < len(chunks); i++ {
		prev := out[len(out)-1]
		cur := chunks[i]

		eligible := len(prev.ContentRaw) < threshold &&
			len(cur.ContentRaw) < threshold &&
			prev.Meta.SymbolName != "" &&
			prev.Meta.ParentScope == "" &&
			cur.Meta.ParentScope == "" &&
			containsWholeWord(cur.ContentRaw, prev.Meta.SymbolName)

		if eligible {
			merged := cur
			merged.StartLine = prev.StartLine
			merged.ContentRaw = prev.ContentRaw + "\n\n" + cur.ContentRaw
			merged.Content = prev.Content + "\n\n" + cur.Content
			out[len(out)-1] = merged
			continue
		}
		out = append(out, cur)
	}
	return out
}
