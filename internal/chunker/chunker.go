// Package chunker turns a file's bytes into semantically coherent Chunk
// spans: an AST-guided path when the parser registry has a grammar for the
// file's extension, a regex-driven fallback otherwise, and a dedicated path
// for test files.
package chunker

import (
	"path/filepath"
	"strings"

	"github.com/codesearch/hybrid-search/internal/fingerprint"
	"github.com/codesearch/hybrid-search/internal/meta"
	"github.com/codesearch/hybrid-search/internal/model"
	"github.com/codesearch/hybrid-search/internal/parsers"
)

// Options tunes the adaptive size windows the AST path computes from
// cyclomatic complexity.
type Options struct {
	MaxCharsSimple  int // complexity <= 5
	MaxCharsMedium  int // complexity <= 15
	MaxCharsComplex int // complexity > 15

	// ProviderCharCap is the embeddings provider's token budget, expressed
	// as a character ceiling (~1200 for the local model, ~7500 remote). The
	// effective max for any chunk is min(adaptive, ProviderCharCap).
	ProviderCharCap int

	// OverlapSize is the character count carried into the text-file
	// overlap post-pass the indexer applies to text files.
	OverlapSize int

	// MergeThreshold is the size, in characters, below which two adjacent
	// top-level declarations are eligible for the small-declaration merge
	// heuristic.
	MergeThreshold int

	// DocLookbackLines bounds how far back a leading-comment scan walks
	// when extending a boundary's start.
	DocLookbackLines int
}

// DefaultOptions carries the tuning the index was built around.
func DefaultOptions() Options {
	return Options{
		MaxCharsSimple:   2000,
		MaxCharsMedium:   1500,
		MaxCharsComplex:  1000,
		ProviderCharCap:  7500,
		OverlapSize:      200,
		MergeThreshold:   200,
		DocLookbackLines: 20,
	}
}

// Chunker is the stateless entry point; it holds only the parser registry
// and tuning knobs, and is safe for concurrent use across the indexer's
// worker pool.
type Chunker struct {
	registry *parsers.Registry
	opts     Options
}

func New(registry *parsers.Registry, opts Options) *Chunker {
	return &Chunker{registry: registry, opts: opts}
}

// Chunk converts one file's bytes into ordered chunks.
func (c *Chunker) Chunk(content []byte, relPath string) ([]model.Chunk, error) {
	if len(content) == 0 {
		return nil, nil
	}

	lines := strings.Split(string(content), "\n")
	ext := strings.TrimPrefix(filepath.Ext(relPath), ".")
	language := languageForExt(ext)

	if isTextExt(ext) {
		return c.chunkText(relPath, language, lines), nil
	}

	if isTestFile(relPath) {
		if chunks := c.chunkTestFile(relPath, language, lines); len(chunks) > 0 {
			return chunks, nil
		}
		// Fall through to the normal path for test files whose bodies
		// carry no recognizable describe/it/test calls.
	}

	if c.registry != nil && c.registry.Supported(ext) {
		plugin, err := c.registry.Get(ext)
		if err == nil {
			ast, perr := plugin.Parse(content)
			if perr == nil {
				defer ast.Close()
				chunks := c.chunkAST(ast, plugin.Language(), relPath, content, lines)
				if chunks != nil {
					return chunks, nil
				}
				// A parse that yields zero boundaries (pure-data file,
				// stub, whatever) still degrades to regex rather than
				// returning nothing.
			}
			// perr != nil: catastrophic parser failure, degrade to regex.
		}
	}

	return c.chunkRegex(relPath, language, content, lines), nil
}

func languageForExt(ext string) string {
	switch ext {
	case "ts", "tsx":
		return "typescript"
	case "js", "jsx", "mjs", "cjs":
		return "javascript"
	case "py":
		return "python"
	case "go":
		return "go"
	case "rs":
		return "rust"
	case "java":
		return "java"
	case "c", "h":
		return "c"
	case "cpp", "cc", "hpp":
		return "cpp"
	case "rb":
		return "ruby"
	case "php":
		return "php"
	case "md", "mdx":
		return "markdown"
	default:
		return ext
	}
}

func isTestFile(relPath string) bool {
	base := strings.ToLower(filepath.Base(relPath))
	return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.Contains(relPath, "__tests__")
}

// chunkAST walks every top-level boundary the plugin found and expands it
// into one or more Chunks, then applies the cross-boundary merge heuristic.
func (c *Chunker) chunkAST(ast parsers.AST, language, relPath string, source []byte, lines []string) []model.Chunk {
	boundaries := ast.Boundaries()
	if len(boundaries) == 0 {
		return nil
	}
	imports := ast.Imports()

	var raw []model.Chunk
	for _, b := range boundaries {
		raw = append(raw, c.expandBoundary(b, language, relPath, lines, imports, "", 0)...)
	}
	raw = c.mergeSmallDeclarations(raw)
	return c.finalizeIndices(raw)
}

// expandBoundary turns one Boundary (and, recursively, its Children) into
// zero or more Chunks, honoring the class/body-statement/line split
// preference order.
func (c *Chunker) expandBoundary(b parsers.Boundary, language, relPath string, lines []string, imports []parsers.ImportDecl, parentScope string, depth int) []model.Chunk {
	scope := parentScope
	if b.ParentScope != "" {
		scope = b.ParentScope
	}

	cm := buildChunkMeta(b, language, scope, depth)
	start := extendForDoc(lines, b.StartLine, c.opts.DocLookbackLines)
	end := b.EndLine
	if end < start || end > len(lines) {
		end = len(lines)
	}

	maxChars := c.adaptiveMax(cm.Complexity)
	body := strings.Join(sliceLines(lines, start, end), "\n")

	if len(b.Children) > 0 {
		return c.classSplit(b, cm, language, relPath, lines, imports, start, end, maxChars)
	}

	if len(body) <= maxChars {
		return []model.Chunk{c.buildChunk(relPath, start, end, lines, cm, language, relPath, imports)}
	}

	return c.bodyStatementSplit(b, cm, language, relPath, lines, imports, start, end, maxChars)
}

func (c *Chunker) adaptiveMax(complexity int) int {
	var n int
	switch {
	case complexity <= 5:
		n = c.opts.MaxCharsSimple
	case complexity <= 15:
		n = c.opts.MaxCharsMedium
	default:
		n = c.opts.MaxCharsComplex
	}
	if c.opts.ProviderCharCap > 0 && c.opts.ProviderCharCap < n {
		return c.opts.ProviderCharCap
	}
	return n
}

func buildChunkMeta(b parsers.Boundary, language, parentScope string, depth int) meta.ChunkMeta {
	return meta.ChunkMeta{
		SymbolName:       b.Name,
		SymbolType:       meta.SymbolType(b.SymbolType),
		Variant:          meta.Variant(b.Variant),
		Language:         language,
		IsExported:       b.IsExported,
		IsAsync:          b.IsAsync,
		IsStatic:         b.IsStatic,
		IsAbstract:       b.IsAbstract,
		Decorators:       b.Decorators,
		Complexity:       b.Complexity,
		HasDocumentation: b.HasDoc,
		ParentScope:      parentScope,
		ScopeDepth:       depth,
	}
}

// extendForDoc extends startLine backward through contiguous leading
// comment lines, bounded by maxLookback. It is
// intentionally language-agnostic: a line "looks like" a doc comment if,
// once trimmed, it starts with a known comment marker.
func extendForDoc(lines []string, startLine, maxLookback int) int {
	start := startLine
	for steps := 0; steps < maxLookback && start > 1; steps++ {
		candidate := strings.TrimSpace(lines[start-2])
		if candidate == "" {
			break
		}
		if looksLikeComment(candidate) {
			start--
			continue
		}
		break
	}
	return start
}

func looksLikeComment(trimmed string) bool {
	switch {
	case strings.HasPrefix(trimmed, "//"):
		return true
	case strings.HasPrefix(trimmed, "#"):
		return true
	case strings.HasPrefix(trimmed, "/*"), strings.HasPrefix(trimmed, "*"), strings.HasSuffix(trimmed, "*/"):
		return true
	case strings.HasPrefix(trimmed, "\"\"\""), strings.HasPrefix(trimmed, "'''"):
		return true
	default:
		return false
	}
}

func sliceLines(lines []string, start, end int) []string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return nil
	}
	return lines[start-1 : end]
}

// buildChunk assembles one final model.Chunk: the structured header,
// relevant-imports block, keyword line, and the raw body. contentRawPath is always relPath; it exists as a parameter
// only to keep this function's signature symmetric with its callers.
func (c *Chunker) buildChunk(relPath string, start, end int, lines []string, cm meta.ChunkMeta, language, contentRawPath string, imports []parsers.ImportDecl) model.Chunk {
	raw := strings.Join(sliceLines(lines, start, end), "\n")
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

// finalizeIndices assigns a stable ChunkIndex by source order and computes
// each chunk's Hash (SHA-1 of Content).
func (c *Chunker) finalizeIndices(chunks []model.Chunk) []model.Chunk {
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].Hash = fingerprint.HexString(chunks[i].Content)
	}
	return chunks
}
