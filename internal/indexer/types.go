// Package indexer implements the incremental indexer: it
// enumerates a project's files, chunks and embeds the ones that changed,
// and keeps the vector store and sidecar in lockstep with the filesystem.
package indexer

import (
	"github.com/codesearch/hybrid-search/internal/model"
)

// Config tunes one Indexer instance: ~8 concurrent prepare workers,
// 256-row embedding batches, a 500 KiB per-file size cap.
type Config struct {
	// ProjectRoot is the absolute path being indexed.
	ProjectRoot string

	// DataDir is the root under which every project's data directory is
	// namespaced by fingerprint.ProjectHash.
	DataDir string

	// Extensions is the indexable-filter extension allowlist,
	// without leading dots.
	Extensions map[string]bool

	// IgnoreGlobs supplements .gitignore with additional glob patterns
	// composed into the project's ignore rules.
	IgnoreGlobs []string

	// MaxFileSize is the per-file size cap in bytes.
	MaxFileSize int64

	// Workers bounds the prepare phase's concurrency.
	Workers int

	// BatchSize is the embedding/vector-store flush batch size.
	BatchSize int
}

// DefaultExtensions is the indexable-filter extension allowlist.
func DefaultExtensions() map[string]bool {
	exts := []string{
		"ts", "tsx", "js", "jsx", "py", "go", "rs", "java", "c", "cpp", "h", "hpp",
		"cs", "rb", "php", "swift", "kt", "scala", "vue", "svelte",
		"md", "mdx", "txt", "json", "yaml", "yml", "toml",
	}
	out := make(map[string]bool, len(exts))
	for _, e := range exts {
		out[e] = true
	}
	return out
}

// DefaultConfig fills in every tuning knob.
func DefaultConfig(projectRoot, dataDir string) Config {
	return Config{
		ProjectRoot: projectRoot,
		DataDir:     dataDir,
		Extensions:  DefaultExtensions(),
		MaxFileSize: 500 * 1024,
		Workers:     8,
		BatchSize:   256,
	}
}

// Mode distinguishes the two top-level entry points for reporting.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// Action classifies what an incremental pass does with one file: skip unchanged files, delete files that went empty, patch the
// chunks that actually changed, or fall back to a full delete+reinsert.
type Action string

const (
	ActionSkip          Action = "skip"
	ActionDelete        Action = "delete"
	ActionPartialUpdate Action = "partial_update"
	ActionFullReindex   Action = "full_reindex"
)

// Result is the summary returned by IndexFull and IndexIncremental.
type Result struct {
	// RunID uniquely identifies one index pass in progress events and logs.
	RunID   string
	Mode    Mode
	Files   int // files that were (re)written in some form
	Skipped int
	Removed int // files whose rows were removed: gone from the tree, or emptied
	Errors  []error
}

// VerifyResult is Verify()'s read-only comparison against the sidecar.
type VerifyResult struct {
	Files      int
	Changed    []string
	Missing    []string // enumerated and recorded in the sidecar, but unreadable
	Removed    []string // files recorded but gone from the enumeration
	Embeddings model.EmbeddingsKey
	UpdatedAt  string
}

// Stats surfaces row counts and the compatibility key for operator/CLI use.
type Stats struct {
	RowCount   int
	Embeddings model.EmbeddingsKey
	UpdatedAt  string
}

// prepared is one file's worth of prepare-phase output: the fingerprint
// record to persist and the chunks ready for embedding. It carries no
// vector-store or embeddings-client state — the prepare phase is pure CPU work.
type prepared struct {
	relPath string
	record  model.FileRecord
	chunks  []model.Chunk
	err     error
}
