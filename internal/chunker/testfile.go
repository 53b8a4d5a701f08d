package chunker

import (
	"regexp"
	"strings"

	"github.com/codesearch/hybrid-search/internal/meta"
	"github.com/codesearch/hybrid-search/internal/model"
)

// testCallPattern matches a jest/mocha/vitest-style describe/it/test call
// opening a callback: describe("...", () => { / it('...', function() {.
var testCallPattern = regexp.MustCompile(`^\s*(describe|it|test|context|specify)(?:\.\w+)?\s*\(\s*['"` + "`" + `](.*?)['"` + "`" + `]`)

// chunkTestFile is the dedicated test-file path: every
// describe/it/test call becomes its own chunk, whose content is prefixed
// with the full "describe > it" path so the embedding carries the nested
// test name even though the chunk itself only spans one call's body.
func (c *Chunker) chunkTestFile(relPath, language string, lines []string) []model.Chunk {
	type frame struct {
		name  string
		depth int
	}
	var stack []frame
	var chunks []model.Chunk

	depth := 0
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		m := testCallPattern.FindStringSubmatch(line)
		if m == nil {
			depth += bracketDelta(line)
			for len(stack) > 0 && depth < stack[len(stack)-1].depth {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		startLine := i + 1
		callDepthBefore := depth
		callEnd := findCallEnd(lines, i)
		path := append(append([]frame{}, stack...), frame{name: m[2], depth: callDepthBefore + 1})

		if strings.EqualFold(m[1], "describe") || strings.EqualFold(m[1], "context") {
			// A describe/context block nests further calls; push it and
			// keep walking instead of emitting a leaf chunk for it.
			stack = append(stack, frame{name: m[2], depth: callDepthBefore + 1})
			depth += bracketDelta(line)
			continue
		}

		names := make([]string, len(path))
		for j, f := range path {
			names[j] = f.name
		}
		testPath := strings.Join(names, " > ")

		raw := strings.Join(sliceLines(lines, startLine, callEnd), "\n")
		cm := meta.ChunkMeta{
			SymbolName: testPath,
			SymbolType: meta.SymbolFunction,
			Variant:    meta.Variant("test"),
			Language:   language,
			Complexity: 1,
		}

		var sb strings.Builder
		sb.WriteString("// File: ")
		sb.WriteString(relPath)
		sb.WriteByte('\n')
		sb.WriteString("// Test: ")
		sb.WriteString(testPath)
		sb.WriteByte('\n')
		sb.WriteString(raw)

		chunks = append(chunks, model.Chunk{
			RelPath:    relPath,
			StartLine:  startLine,
			EndLine:    callEnd,
			Kind:       model.ChunkKindCode,
			Content:    sb.String(),
			ContentRaw: raw,
			Meta:       cm,
		})

		// Advance past this leaf call's body; its internal braces don't
		// affect the enclosing describe stack's depth bookkeeping.
		for j := i; j < callEnd && j < len(lines); j++ {
			depth += bracketDelta(lines[j])
		}
		i = callEnd - 1
	}

	return c.finalizeIndices(chunks)
}

// findCallEnd scans forward from a call's opening line until bracket depth
// returns to (at most) its starting level, returning the line that closes
// the call.
func findCallEnd(lines []string, startIdx int) int {
	depth := 0
	started := false
	for i := startIdx; i < len(lines); i++ {
		d := bracketDelta(lines[i])
		depth += d
		if d != 0 {
			started = true
		}
		if started && depth <= 0 {
			return i + 1
		}
	}
	return len(lines)
}
