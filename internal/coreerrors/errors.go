// Package coreerrors defines the sentinel error values shared by every
// subsystem of the search engine, matching the behavioral taxonomy in the
// error handling design: callers use errors.Is against these values rather
// than inspecting strings.
package coreerrors

import "errors"

var (
	// ErrNotIndexed is returned when an operation needs an index that has
	// never been built for the given project root.
	ErrNotIndexed = errors.New("project has not been indexed")

	// ErrDimensionMismatch is returned when the stored vector length
	// disagrees with the configured embedding dimension. Fatal for the
	// operation in progress; callers must drop the collection and reindex.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch: full reindex required")

	// ErrEmbedding wraps a failure surfaced by the embeddings provider.
	// The batch that triggered it is abandoned; the rest of the index is
	// left untouched.
	ErrEmbedding = errors.New("embedding provider failed")

	// ErrStore wraps an I/O or schema-drift failure from the vector store.
	ErrStore = errors.New("vector store operation failed")

	// ErrCancelled is returned when a caller-supplied context is cancelled
	// mid-operation. State remains consistent at the point of cancellation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrInvalidFilter marks a structural filter clause that failed
	// validation (bad key, empty in/not_in list). The clause is dropped;
	// the surrounding query still runs.
	ErrInvalidFilter = errors.New("invalid filter clause")

	// ErrWatcherRefused is returned when a watch target resolves to a
	// forbidden location (filesystem root or the user's home directory).
	ErrWatcherRefused = errors.New("refusing to watch this location")

	// ErrUnsupportedLanguage is returned by the parser registry when no
	// grammar is registered for a file extension. Not fatal: the chunker
	// treats it as a signal to fall back to regex chunking.
	ErrUnsupportedLanguage = errors.New("no parser registered for language")
)

// ParseDegraded wraps a non-fatal AST parse failure for one file. The
// chunker does not construct it: on a parse failure it falls back to the
// regex path without logging and returns no error to callers of Chunk.
type ParseDegraded struct {
	Path string
	Err  error
}

func (e *ParseDegraded) Error() string {
	return "parse degraded for " + e.Path + ": " + e.Err.Error()
}

func (e *ParseDegraded) Unwrap() error { return e.Err }
