// Package region computes the per-file list of AST regions a downstream
// renderer may collapse. It reuses the same parser registry
// and Boundary walk the chunker uses; the indexer parses each file a
// second time to feed it, since the chunker does not expose its AST.
package region

import (
	"strings"

	"github.com/codesearch/hybrid-search/internal/model"
	"github.com/codesearch/hybrid-search/internal/parsers"
)

// Extract walks ast's boundaries (and their children) and returns every
// CollapsibleRegion, sorted by StartLine.
func Extract(ast parsers.AST, lines []string) []model.CollapsibleRegion {
	var out []model.CollapsibleRegion
	for _, b := range ast.Boundaries() {
		out = append(out, regionsFor(b, lines)...)
	}
	sortByStart(out)
	return out
}

func regionsFor(b parsers.Boundary, lines []string) []model.CollapsibleRegion {
	var out []model.CollapsibleRegion
	if kind, ok := regionKind(b); ok {
		out = append(out, model.CollapsibleRegion{
			Kind:             kind,
			Name:             b.Name,
			StartLine:        b.StartLine,
			EndLine:          b.EndLine,
			SignatureEndLine: signatureEndLine(b, lines),
			Indentation:      indentationOf(lines, b.StartLine),
		})
	}
	for _, child := range b.Children {
		out = append(out, regionsFor(child, lines)...)
	}
	return out
}

// regionKind maps a Boundary's universal SymbolType/Variant onto the
// renderer-facing RegionKind enum. Types, enums, and plain variables never
// produce a collapsible region — only callables and class bodies do.
func regionKind(b parsers.Boundary) (model.RegionKind, bool) {
	switch b.SymbolType {
	case "method":
		if b.Name == "constructor" || b.Name == "__init__" || b.Name == "New" {
			return model.RegionConstructor, true
		}
		return model.RegionMethod, true
	case "function":
		if b.Name == "New" {
			return model.RegionConstructor, true
		}
		if b.Variant == "arrow" {
			return model.RegionArrow, true
		}
		return model.RegionFunction, true
	case "class":
		return model.RegionFunction, len(b.Children) > 0
	default:
		return "", false
	}
}

// signatureEndLine points at the last line of the signature, as the
// parser's SignatureEndLine reports it (the line before a "{" that sits on
// its own line, the brace line itself for "f() {", the ":" line for
// Python), or at the boundary's own start line when that field is unset.
func signatureEndLine(b parsers.Boundary, lines []string) int {
	if b.SignatureEndLine > 0 {
		return b.SignatureEndLine
	}
	return b.StartLine
}

func indentationOf(lines []string, lineNo int) int {
	if lineNo < 1 || lineNo > len(lines) {
		return 0
	}
	line := lines[lineNo-1]
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func sortByStart(regions []model.CollapsibleRegion) {
	for i := 1; i < len(regions); i++ {
		for j := i; j > 0 && regions[j-1].StartLine > regions[j].StartLine; j-- {
			regions[j-1], regions[j] = regions[j], regions[j-1]
		}
	}
}
