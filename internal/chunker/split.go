package chunker

import (
	"strings"

	"github.com/codesearch/hybrid-search/internal/meta"
	"github.com/codesearch/hybrid-search/internal/model"
	"github.com/codesearch/hybrid-search/internal/parsers"
)

// classSplit is the first and preferred split strategy: the
// class's signature plus any fields declared before its first member
// becomes one chunk, and every member (method) becomes its own chunk,
// recursively re-split if it is itself oversized. Each member chunk's
// header carries the "// Class: <name>" context line via cm.ParentScope.
func (c *Chunker) classSplit(b parsers.Boundary, cm meta.ChunkMeta, language, relPath string, lines []string, imports []parsers.ImportDecl, start, end, maxChars int) []model.Chunk {
	sigEnd := b.SignatureEndLine
	if len(b.Children) > 0 && b.Children[0].StartLine-1 > sigEnd {
		// Fields declared between the opening brace and the first member
		// stay part of the signature chunk.
		sigEnd = b.Children[0].StartLine - 1
	}
	if sigEnd < start {
		sigEnd = start
	}
	if sigEnd > end {
		sigEnd = end
	}

	var out []model.Chunk
	sigBody := strings.Join(sliceLines(lines, start, sigEnd), "\n")
	if strings.TrimSpace(sigBody) != "" {
		out = append(out, c.buildChunk(relPath, start, sigEnd, lines, cm, language, relPath, imports))
	}

	for i, child := range b.Children {
		childStart := extendForDoc(lines, child.StartLine, c.opts.DocLookbackLines)
		childEnd := child.EndLine
		if childEnd < childStart {
			childEnd = childStart
		}
		if i+1 < len(b.Children) && b.Children[i+1].StartLine-1 < childEnd {
			// Don't let an over-extended member swallow its sibling.
			childEnd = b.Children[i+1].StartLine - 1
			if childEnd < childStart {
				childEnd = childStart
			}
		}

		childMeta := buildChunkMeta(child, language, b.Name, cm.ScopeDepth+1)
		childBody := strings.Join(sliceLines(lines, childStart, childEnd), "\n")
		childMax := c.adaptiveMax(childMeta.Complexity)

		if len(childBody) <= childMax {
			out = append(out, c.buildChunk(relPath, childStart, childEnd, lines, childMeta, language, relPath, imports))
			continue
		}
		out = append(out, c.bodyStatementSplit(child, childMeta, language, relPath, lines, imports, childStart, childEnd, childMax)...)
	}
	return out
}

// bodyStatementSplit is the second strategy, for an
// oversized function or namespace body: the signature line(s) repeat at
// the top of every child chunk, and every non-first child prepends an
// overlap comment naming the first line of up to 3 preceding statements.
func (c *Chunker) bodyStatementSplit(b parsers.Boundary, cm meta.ChunkMeta, language, relPath string, lines []string, imports []parsers.ImportDecl, start, end, maxChars int) []model.Chunk {
	sigEnd := b.SignatureEndLine
	if sigEnd < start {
		sigEnd = start
	}
	if sigEnd > end {
		sigEnd = end
	}
	sigLines := sliceLines(lines, start, sigEnd)
	sigText := strings.Join(sigLines, "\n")

	bodyStart := sigEnd + 1
	if bodyStart > end {
		// No body left to split; fall back to a straight line split.
		return c.lineSplit(relPath, start, end, lines, cm, language, imports, maxChars)
	}

	statements := splitStatements(lines, bodyStart, end)
	if len(statements) == 0 {
		return c.lineSplit(relPath, start, end, lines, cm, language, imports, maxChars)
	}

	var out []model.Chunk
	var current []statement
	currentSize := len(sigText)
	flush := func() {
		if len(current) == 0 {
			return
		}
		chunkStart := start
		var body strings.Builder
		body.WriteString(sigText)
		body.WriteByte('\n')
		if len(out) > 0 {
			body.WriteString(overlapComment(current[0].precedingFirstLines))
		}
		for _, st := range current {
			body.WriteString(strings.Join(st.lines, "\n"))
			body.WriteByte('\n')
		}
		chunkEnd := current[len(current)-1].endLine
		raw := strings.TrimRight(body.String(), "\n")
		out = append(out, c.buildChunkFromText(relPath, chunkStart, chunkEnd, raw, cm, imports))
		current = nil
		currentSize = len(sigText)
	}

	var precedingFirstLines []string
	for _, st := range statements {
		st.precedingFirstLines = lastNStrings(precedingFirstLines, 3)
		size := len(strings.Join(st.lines, "\n"))
		if currentSize+size > maxChars && len(current) > 0 {
			flush()
		}
		current = append(current, st)
		currentSize += size
		if len(st.lines) > 0 {
			precedingFirstLines = append(precedingFirstLines, strings.TrimSpace(st.lines[0]))
		}
	}
	flush()
	return out
}

// lineSplit is the last-resort strategy:
// chop the raw line range into maxChars-sized windows with no statement
// awareness. Each window is a plain slice of the range; the signature is
// not repeated in later windows.
func (c *Chunker) lineSplit(relPath string, start, end int, lines []string, cm meta.ChunkMeta, language string, imports []parsers.ImportDecl, maxChars int) []model.Chunk {
	var out []model.Chunk
	windowStart := start
	size := 0
	for i := start; i <= end; i++ {
		lineLen := len(lines[i-1]) + 1
		if size+lineLen > maxChars && i > windowStart {
			out = append(out, c.buildChunk(relPath, windowStart, i-1, lines, cm, language, relPath, imports))
			windowStart = i
			size = 0
		}
		size += lineLen
	}
	if windowStart <= end {
		out = append(out, c.buildChunk(relPath, windowStart, end, lines, cm, language, relPath, imports))
	}
	return out
}

// buildChunkFromText builds a chunk whose ContentRaw is a synthesized body
// (signature + overlap comment + statements) rather than a plain line
// slice of the source, as produced by bodyStatementSplit.
func (c *Chunker) buildChunkFromText(relPath string, start, end int, raw string, cm meta.ChunkMeta, imports []parsers.ImportDecl) model.Chunk {
	cm.Imports = relevantImportModules(raw, imports)
	header := buildHeader(relPath, cm, raw)
	importBlock := relevantImportLines(raw, imports)

	var sb strings.Builder
	sb.WriteString(header)
	if importBlock != "" {
		sb.WriteString(importBlock)
	}
	sb.WriteString(raw)

	return model.Chunk{
		RelPath:    relPath,
		StartLine:  start,
		EndLine:    end,
		Kind:       model.ChunkKindCode,
		Content:    sb.String(),
		ContentRaw: raw,
		Meta:       cm,
	}
}

// overlapComment renders the "first lines of up to 3 preceding statements"
// context prepended to every non-first child chunk.
func overlapComment(precedingFirstLines []string) string {
	if len(precedingFirstLines) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("// ... preceding statements:\n")
	for _, line := range precedingFirstLines {
		sb.WriteString("//   ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func lastNStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

type statement struct {
	startLine           int
	endLine             int
	lines               []string
	precedingFirstLines []string
}

// splitStatements partitions lines[start..end] into top-level statements
// by tracking bracket depth: a statement ends when depth returns to 0 (or
// a blank line is hit at depth 0). This is a heuristic, language-agnostic
// stand-in for a real per-statement AST walk, matching the regex
// fallback's own depth-tracking approach (see regex.go).
func splitStatements(lines []string, start, end int) []statement {
	var out []statement
	depth := 0
	var cur []string
	curStart := start

	flush := func(lastLine int) {
		if len(cur) == 0 {
			return
		}
		out = append(out, statement{startLine: curStart, endLine: lastLine, lines: cur})
		cur = nil
	}

	for i := start; i <= end && i <= len(lines); i++ {
		line := lines[i-1]
		if len(cur) == 0 {
			curStart = i
		}
		cur = append(cur, line)
		depth += bracketDelta(line)
		if depth <= 0 {
			if strings.TrimSpace(line) == "" {
				cur = cur[:len(cur)-1]
				flush(i - 1)
				continue
			}
			flush(i)
			depth = 0
		}
	}
	flush(end)
	return out
}

func bracketDelta(line string) int {
	delta := 0
	inString := byte(0)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inString != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == inString {
				inString = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			inString = ch
		case '{', '(', '[':
			delta++
		case '}', ')', ']':
			delta--
		}
	}
	return delta
}
