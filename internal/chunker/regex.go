package chunker

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/codesearch/hybrid-search/internal/meta"
	"github.com/codesearch/hybrid-search/internal/model"
)

// boundaryOpeners are line-prefix patterns that open a new top-level
// declaration across the languages the regex fallback supports.
// Matched at the start of a (trimmed) line, since this path only runs when
// no AST parser was available for the extension. Built on regexp2 rather
// than RE2 for the trailing negative lookahead, which keeps a keyword
// followed by "= require" (as in `module = require(...)`) from counting as
// a boundary; RE2 has no lookaround.
var boundaryOpeners = regexp2.MustCompile(
	`^(export\s+)?(async\s+)?(?:(?:public|private|protected|static)\s+)*(function\b|class\b|def\b|func\b|fn\b|impl\b|interface\b|struct\b|trait\b|module\b|namespace\b)(?!\s*=\s*require)`,
	regexp2.None,
)

func matchesBoundaryOpener(line string) bool {
	ok, err := boundaryOpeners.MatchString(line)
	return err == nil && ok
}

// chunkRegex is the fallback path: scan
// lines for boundary-opening patterns, splitting on them while tracking
// brace depth so only balanced, top-level cuts are made; a pending chunk
// that exceeds the max at depth 0 forces a split even without a new
// boundary keyword.
func (c *Chunker) chunkRegex(relPath, language string, content []byte, lines []string) []model.Chunk {
	maxChars := c.opts.MaxCharsMedium
	if c.opts.ProviderCharCap > 0 && c.opts.ProviderCharCap < maxChars {
		maxChars = c.opts.ProviderCharCap
	}

	var chunks []model.Chunk
	depth := 0
	start := 1
	size := 0

	flush := func(end int) {
		if end < start {
			return
		}
		body := strings.Join(sliceLines(lines, start, end), "\n")
		if strings.TrimSpace(body) == "" {
			start = end + 1
			size = 0
			return
		}
		name := firstBoundaryName(lines[start-1])
		cm := meta.ChunkMeta{
			SymbolName: name,
			SymbolType: guessSymbolType(lines[start-1]),
			Language:   language,
			Complexity: 1,
		}
		chunks = append(chunks, c.buildChunk(relPath, start, end, lines, cm, language, relPath, nil))
		start = end + 1
		size = 0
	}

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if depth == 0 && lineNo > start && matchesBoundaryOpener(trimmed) {
			flush(lineNo - 1)
		}

		depth += bracketDelta(line)
		size += len(line) + 1

		if depth <= 0 && size > maxChars {
			flush(lineNo)
		}
	}
	flush(len(lines))

	return c.finalizeIndices(chunks)
}

func firstBoundaryName(line string) string {
	m := regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*[\(<{:]`).FindStringSubmatch(line)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func guessSymbolType(line string) meta.SymbolType {
	switch {
	case strings.Contains(line, "class "), strings.Contains(line, "struct "):
		return meta.SymbolClass
	case strings.Contains(line, "interface "), strings.Contains(line, "trait "):
		return meta.SymbolType_
	case strings.Contains(line, "namespace "), strings.Contains(line, "module "):
		return meta.SymbolModule
	default:
		return meta.SymbolFunction
	}
}
