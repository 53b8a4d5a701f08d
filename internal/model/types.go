// Package model holds the data types shared across the chunker, the
// indexer, and the vector store: Chunk, CollapsibleRegion, and the file
// fingerprint record persisted in the sidecar.
package model

import (
	"encoding/json"

	"github.com/codesearch/hybrid-search/internal/meta"
)

// ChunkKind distinguishes a code span from a prose span (markdown, plain
// text). Duplicate detection and most structural filters only apply to code.
type ChunkKind string

const (
	ChunkKindCode ChunkKind = "code"
	ChunkKindText ChunkKind = "text"
)

// Chunk is a contiguous, 1-indexed, inclusive line range of one file.
// Identity is "<relative-path>:<chunkIndex>" (see Chunk.ID).
//
// Invariants: StartLine <= EndLine; chunks of a file are ordered
// by ChunkIndex, non-empty, and never extend past the file; Content stays
// within the configured size window; chunks are never mutated after
// insert — updates happen by delete-and-reinsert.
type Chunk struct {
	RelPath    string // project-relative path, "/" separators
	ChunkIndex int
	StartLine  int
	EndLine    int
	Kind       ChunkKind

	// Content is the stored, embeddable text: it may carry the structured
	// context header (relevant-imports block, keyword line, overlap
	// preamble) the chunker builds. It is what gets embedded.
	Content string

	// ContentRaw is the exact source slice for [StartLine, EndLine]. It is
	// what duplicate detection compares — never the decorated Content.
	ContentRaw string

	// Hash is SHA-1 of Content, the unit of incremental invalidation.
	Hash string

	Meta meta.ChunkMeta
}

// ID returns the chunk's stable identity, "<relative-path>:<chunkIndex>".
func (c Chunk) ID() string {
	return c.RelPath + ":" + itoa(c.ChunkIndex)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// RegionKind enumerates the AST shapes the region extractor understands.
type RegionKind string

const (
	RegionMethod      RegionKind = "method"
	RegionFunction    RegionKind = "function"
	RegionConstructor RegionKind = "constructor"
	RegionArrow       RegionKind = "arrow"
)

// CollapsibleRegion is an AST range a downstream renderer may hide. The
// chunker and indexer only compute and persist it; rendering is out of
// scope here.
type CollapsibleRegion struct {
	Kind             RegionKind
	Name             string
	StartLine        int
	EndLine          int
	SignatureEndLine int
	Indentation      int
}

// FileRecord is the sidecar's per-file fingerprint: size, mtime, content
// hash, the hash of every chunk body, and the file's collapsible regions.
type FileRecord struct {
	Path               string              `json:"path"`
	Size               int64               `json:"size"`
	MtimeMs            int64               `json:"mtimeMs"`
	ContentHash        string              `json:"hash"`
	ChunkHashes        []string            `json:"chunk_hashes"`
	CollapsibleRegions []CollapsibleRegion `json:"collapsible_regions"`
}

// EmbeddingsKey is the index compatibility key: (provider, model,
// dimension). Any change invalidates the index and forces a full rebuild.
type EmbeddingsKey struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	Device    string `json:"device,omitempty"`
}

// Equal reports whether two compatibility keys are identical.
func (k EmbeddingsKey) Equal(other EmbeddingsKey) bool {
	return k.Provider == other.Provider && k.Model == other.Model && k.Dimension == other.Dimension
}

// IndexMeta is the full sidecar document, index-meta.json.
type IndexMeta struct {
	Version    int                   `json:"version"`
	Root       string                `json:"root"`
	Embeddings EmbeddingsKey         `json:"embeddings"`
	Files      map[string]FileRecord `json:"files"`
	UpdatedAt  string                `json:"updatedAt"`

	// Extra captures any top-level key this process doesn't know about, so
	// a round trip through an older build never drops a newer writer's
	// fields.
	Extra map[string]json.RawMessage `json:"-"`
}

// EmbeddingRow is one row of the vector store's embedding table. Decorators are flattened to a comma string at write time via
// meta.ChunkMeta.DecoratorsCSV.
type EmbeddingRow struct {
	ID               string
	Vector           []float32
	Content          string
	ContentRaw       string
	File             string
	StartLine        int
	EndLine          int
	ChunkIndex       int
	Type             string
	SymbolName       string
	SymbolType       string
	Complexity       int
	IsExported       bool
	ParentScope      string
	ScopeDepth       int
	HasDocumentation bool
	Language         string
	Imports          string
	Variant          string
	IsAsync          bool
	IsStatic         bool
	IsAbstract       bool
	Decorators       string
}

// FromChunk builds the store row for a chunk given its embedding vector.
func FromChunk(c Chunk, vector []float32) EmbeddingRow {
	m := c.Meta
	return EmbeddingRow{
		ID:               c.ID(),
		Vector:           vector,
		Content:          c.Content,
		ContentRaw:       c.ContentRaw,
		File:             c.RelPath,
		StartLine:        c.StartLine,
		EndLine:          c.EndLine,
		ChunkIndex:       c.ChunkIndex,
		Type:             string(c.Kind),
		SymbolName:       m.SymbolName,
		SymbolType:       string(m.SymbolType),
		Complexity:       m.Complexity,
		IsExported:       m.IsExported,
		ParentScope:      m.ParentScope,
		ScopeDepth:       m.ScopeDepth,
		HasDocumentation: m.HasDocumentation,
		Language:         m.Language,
		Imports:          m.ImportsCSV(),
		Variant:          string(m.Variant),
		IsAsync:          m.IsAsync,
		IsStatic:         m.IsStatic,
		IsAbstract:       m.IsAbstract,
		Decorators:       m.DecoratorsCSV(),
	}
}
