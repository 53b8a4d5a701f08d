package chunker

import (
	"strings"

	"github.com/codesearch/hybrid-search/internal/meta"
	"github.com/codesearch/hybrid-search/internal/parsers"
)

// buildHeader renders the structured context header prepended to every
// chunk's embeddable Content: file, symbol type/name, export status, and
// the lexical keyword line.
func buildHeader(relPath string, cm meta.ChunkMeta, raw string) string {
	var sb strings.Builder
	sb.WriteString("// File: ")
	sb.WriteString(relPath)
	sb.WriteByte('\n')
	sb.WriteString("// Type: ")
	sb.WriteString(string(cm.SymbolType))
	sb.WriteByte('\n')
	sb.WriteString("// Name: ")
	sb.WriteString(cm.SymbolName)
	sb.WriteByte('\n')
	if cm.ParentScope != "" {
		sb.WriteString("// Class: ")
		sb.WriteString(cm.ParentScope)
		sb.WriteByte('\n')
	}
	sb.WriteString("// Exported: ")
	if cm.IsExported {
		sb.WriteString("true")
	} else {
		sb.WriteString("false")
	}
	sb.WriteByte('\n')
	sb.WriteString("// Keywords: ")
	sb.WriteString(keywordLine(raw, cm))
	sb.WriteByte('\n')
	return sb.String()
}

// relevantImportModules filters the file's imports down to the ones whose
// bound identifier appears as a whole-word token somewhere in raw,
// returning just the module paths for ChunkMeta.Imports.
func relevantImportModules(raw string, imports []parsers.ImportDecl) []string {
	var out []string
	seen := map[string]bool{}
	for _, imp := range relevantImports(raw, imports) {
		if !seen[imp.Module] {
			seen[imp.Module] = true
			out = append(out, imp.Module)
		}
	}
	return out
}

// relevantImportLines renders the relevant-imports block prepended below
// the structured header.
func relevantImportLines(raw string, imports []parsers.ImportDecl) string {
	rel := relevantImports(raw, imports)
	if len(rel) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, imp := range rel {
		sb.WriteString("// uses: ")
		sb.WriteString(imp.Module)
		if len(imp.Identifiers) > 0 {
			sb.WriteString(" (")
			sb.WriteString(strings.Join(imp.Identifiers, ", "))
			sb.WriteString(")")
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func relevantImports(raw string, imports []parsers.ImportDecl) []parsers.ImportDecl {
	var out []parsers.ImportDecl
	for _, imp := range imports {
		for _, ident := range imp.Identifiers {
			if ident == "" {
				continue
			}
			if containsWholeWord(raw, ident) {
				out = append(out, imp)
				break
			}
		}
	}
	return out
}

func containsWholeWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		pos := idx + i
		before := byte(0)
		if pos > 0 {
			before = text[pos-1]
		}
		after := byte(0)
		if pos+len(word) < len(text) {
			after = text[pos+len(word)]
		}
		if !isWordByte(before) && !isWordByte(after) {
			return true
		}
		idx = pos + len(word)
		if idx >= len(text) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
