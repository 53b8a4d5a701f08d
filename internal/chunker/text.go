package chunker

import (
	"strings"

	"github.com/codesearch/hybrid-search/internal/meta"
	"github.com/codesearch/hybrid-search/internal/model"
)

// textExts are the prose extensions routed to the text path instead of
// the code paths. Data formats (json, yaml, toml) stay on the regex path:
// their structure is closer to code than to prose.
var textExts = map[string]bool{"md": true, "mdx": true, "txt": true, "rst": true}

func isTextExt(ext string) bool { return textExts[ext] }

// chunkText splits prose by markdown headings, cutting oversized sections
// at blank lines. Chunks carry Kind text so the indexer knows to run the
// overlap post-pass before embedding.
func (c *Chunker) chunkText(relPath, language string, lines []string) []model.Chunk {
	maxChars := c.opts.MaxCharsMedium
	if c.opts.ProviderCharCap > 0 && c.opts.ProviderCharCap < maxChars {
		maxChars = c.opts.ProviderCharCap
	}

	var chunks []model.Chunk
	start := 1
	size := 0
	heading := ""

	flush := func(end int) {
		if end < start {
			return
		}
		raw := strings.Join(sliceLines(lines, start, end), "\n")
		if strings.TrimSpace(raw) == "" {
			start = end + 1
			size = 0
			return
		}
		cm := meta.ChunkMeta{
			SymbolName: heading,
			SymbolType: meta.SymbolModule,
			Language:   language,
		}

		var sb strings.Builder
		sb.WriteString("// File: ")
		sb.WriteString(relPath)
		sb.WriteByte('\n')
		if heading != "" {
			sb.WriteString("// Section: ")
			sb.WriteString(heading)
			sb.WriteByte('\n')
		}
		sb.WriteString(raw)

		chunks = append(chunks, model.Chunk{
			RelPath:    relPath,
			StartLine:  start,
			EndLine:    end,
			Kind:       model.ChunkKindText,
			Content:    sb.String(),
			ContentRaw: raw,
			Meta:       cm,
		})
		start = end + 1
		size = 0
	}

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") && lineNo > start {
			flush(lineNo - 1)
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		} else if lineNo == start && strings.HasPrefix(trimmed, "#") {
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}

		size += len(line) + 1
		if size > maxChars && trimmed == "" {
			flush(lineNo)
		}
	}
	flush(len(lines))

	return c.finalizeIndices(chunks)
}

// OverlapSize exposes the configured overlap window for the indexer's
// text-file post-pass.
func (c *Chunker) OverlapSize() int { return c.opts.OverlapSize }
