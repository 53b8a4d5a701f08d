package search

import (
	"fmt"
	"strings"
)

// Render formats a Hit in a stable, machine-parseable text shape: a
// heading line, a meta line, then a fenced code block.
func Render(h Hit) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s:%d-%d", h.File, h.StartLine, h.EndLine)
	if h.SymbolName != "" || h.SymbolType != "" {
		fmt.Fprintf(&b, " (%s, %s)", h.SymbolName, h.SymbolType)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Relevance: %.0f%%", h.Relevance*100)
	if h.RerankScore != nil {
		fmt.Fprintf(&b, " | Rerank: %.4f", *h.RerankScore)
	}
	if h.Complexity > 0 {
		fmt.Fprintf(&b, " | Complexity: %d", h.Complexity)
	}
	if h.ParentScope != "" {
		fmt.Fprintf(&b, " | in %s", h.ParentScope)
	}
	b.WriteString("\n")

	b.WriteString("```\n")
	b.WriteString(h.Content)
	b.WriteString("\n```")

	return b.String()
}

// RenderAll joins multiple hits with a blank line between each, the shape
// a CLI writes to stdout.
func RenderAll(hits []Hit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = Render(h)
	}
	return strings.Join(parts, "\n\n")
}
