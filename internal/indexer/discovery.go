package indexer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// defaultIgnoreGlobs are always composed into a project's ignore rules,
// ahead of .gitignore and any caller-supplied patterns.
var defaultIgnoreGlobs = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"dist/**",
	"build/**",
	"target/**",
	"__pycache__/**",
	".codesearch/**",
}

// discovery walks a project root and yields the project-relative paths
// that pass the indexable filter: allowlisted extension, not
// ignored, and within the size cap.
type discovery struct {
	root    string
	exts    map[string]bool
	ignores []glob.Glob
	maxSize int64
}

func newDiscovery(cfg Config) (*discovery, error) {
	patterns := append(append([]string{}, defaultIgnoreGlobs...), cfg.IgnoreGlobs...)
	patterns = append(patterns, readGitignore(cfg.ProjectRoot)...)

	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue // an unparseable ignore pattern is skipped, never fatal
		}
		compiled = append(compiled, g)
	}

	return &discovery{
		root:    cfg.ProjectRoot,
		exts:    cfg.Extensions,
		ignores: compiled,
		maxSize: cfg.MaxFileSize,
	}, nil
}

// readGitignore loads the project root's .gitignore, if any, as glob
// patterns. It does not walk nested .gitignore files — one root-level file
// composed with the defaults covers the common layouts.
func readGitignore(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "/")
		out = append(out, line, line+"/**")
	}
	return out
}

// walk enumerates every indexable file under root, relative-path sorted
// for deterministic test output (stored row order itself is not
// observable, but enumeration order is worth making boring).
func (d *discovery) walk() ([]string, error) {
	var out []string
	err := filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(d.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if d.isIgnored(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.isIgnored(rel) {
			return nil
		}
		if !d.hasIndexableExt(rel) {
			return nil
		}
		if info.Size() > d.maxSize {
			return nil
		}

		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// IgnoreFunc exposes the composed ignore rules (defaults + config globs +
// root .gitignore) as a predicate over project-relative paths, for the
// watcher's event filter. Call it again after a .gitignore edit to pick up
// the new rules.
func IgnoreFunc(cfg Config) (func(rel string) bool, error) {
	d, err := newDiscovery(cfg)
	if err != nil {
		return nil, err
	}
	return d.isIgnored, nil
}

func (d *discovery) isIgnored(rel string) bool {
	for _, g := range d.ignores {
		if g.Match(rel) || g.Match(rel+"/**") {
			return true
		}
	}
	return false
}

func (d *discovery) hasIndexableExt(rel string) bool {
	ext := strings.TrimPrefix(filepath.Ext(rel), ".")
	return d.exts[ext]
}
