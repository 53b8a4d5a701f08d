// Package parsers resolves a file extension to an AST parser handle and
// exposes a uniform Boundary/Import walk over each language's tree-sitter
// grammar (or, for Go, the standard library's go/ast).
package parsers

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
)

// Plugin is the per-language contract every grammar implements. The
// chunker is entirely language-neutral: it only calls Plugin methods.
type Plugin interface {
	// Language is the canonical name stored in ChunkMeta.Language.
	Language() string

	// Extensions lists the file extensions routed to this plugin, without
	// the leading dot ("ts", "tsx").
	Extensions() []string

	// Parse builds an AST for source. Tree-sitter plugins return (nil, err)
	// only on a catastrophic parser failure; their error-recovery nodes are
	// still walkable. The go/ast plugin returns an error for any syntax
	// error.
	Parse(source []byte) (AST, error)
}

// AST is a parsed file, opaque outside this package except for the walk
// operations the chunker and region extractor need.
type AST interface {
	// Boundaries returns every top-level declaration the language plugin
	// recognizes as a chunk boundary: function, class,
	// interface/type-alias/enum, namespace/module, or a const/let/var
	// whose initializer is an arrow/lambda.
	Boundaries() []Boundary

	// Imports returns every file-level import statement.
	Imports() []ImportDecl

	// Close releases the underlying tree-sitter tree. Safe to call once.
	Close()
}

// Boundary describes one AST node the chunker may turn into a Chunk.
type Boundary struct {
	Node             *sitter.Node // nil for the go/ast plugin
	Name             string
	StartLine        int // 1-indexed
	EndLine          int
	SignatureEndLine int
	SymbolType       string // meta.SymbolType value
	Variant          string // meta.Variant value, may be empty
	IsExported       bool
	IsAsync          bool
	IsStatic         bool
	IsAbstract       bool
	Decorators       []string
	HasDoc           bool
	ParentScope      string
	ScopeDepth       int
	Complexity       int
	// Children holds nested boundaries (methods inside a class) so the
	// chunker's class-splitting strategy doesn't need to re-walk.
	Children         []Boundary
}

// ImportDecl is a parsed file-level import: the module path plus every
// identifier it binds, used by the chunker's relevant-imports filter.
type ImportDecl struct {
	Module      string
	Identifiers []string
	Line        int
}

// Registry resolves extension -> Plugin, initializing each grammar lazily
// and once per process. Get returns coreerrors.ErrUnsupportedLanguage for
// an unregistered extension, and a plugin's own load error (remembered for
// that extension) when it fails to build; either way the chunker falls
// back to regex mode for that extension.
type Registry struct {
	mu     sync.Mutex
	byExt  map[string]func() (Plugin, error)
	cache  map[string]Plugin
	failed map[string]error
}

// NewRegistry builds the default registry wired to every language plugin
// in this package.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:  make(map[string]func() (Plugin, error)),
		cache:  make(map[string]Plugin),
		failed: make(map[string]error),
	}
	register := func(exts []string, factory func() (Plugin, error)) {
		for _, ext := range exts {
			r.byExt[ext] = factory
		}
	}

	register([]string{"py"}, func() (Plugin, error) { return newPythonPlugin(), nil })
	register([]string{"ts", "tsx"}, func() (Plugin, error) { return newTypeScriptPlugin(), nil })
	register([]string{"js", "jsx", "mjs", "cjs"}, func() (Plugin, error) { return newJavaScriptPlugin(), nil })
	register([]string{"go"}, func() (Plugin, error) { return newGoPlugin(), nil })
	register([]string{"rs"}, func() (Plugin, error) { return newRustPlugin(), nil })
	register([]string{"java"}, func() (Plugin, error) { return newJavaPlugin(), nil })
	register([]string{"c", "h"}, func() (Plugin, error) { return newCPlugin(), nil })
	register([]string{"cpp", "cc", "hpp"}, func() (Plugin, error) { return newCPlugin(), nil })
	register([]string{"rb"}, func() (Plugin, error) { return newRubyPlugin(), nil })
	register([]string{"php"}, func() (Plugin, error) { return newPHPPlugin(), nil })

	return r
}

// Get resolves an extension (without leading dot) to a Plugin, building
// and caching it on first use.
func (r *Registry) Get(ext string) (Plugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[ext]; ok {
		return p, nil
	}
	if err, ok := r.failed[ext]; ok {
		return nil, err
	}

	factory, ok := r.byExt[ext]
	if !ok {
		return nil, coreerrors.ErrUnsupportedLanguage
	}

	p, err := factory()
	if err != nil {
		r.failed[ext] = err
		return nil, err
	}
	r.cache[ext] = p
	return p, nil
}

// Supported reports whether ext has a registered plugin, without
// attempting to initialize it.
func (r *Registry) Supported(ext string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byExt[ext]
	return ok
}
