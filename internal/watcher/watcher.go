// Package watcher keeps a project's index in lockstep with its working
// tree: it subscribes to directory change notifications, coalesces them
// into a dirty bit, and drives debounced incremental-index passes with
// error backoff.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
)

// IndexFunc runs one incremental-index pass. The watcher never cares what
// the pass did, only whether it failed.
type IndexFunc func(ctx context.Context) error

// Options tunes one Watcher.
type Options struct {
	// Interval is the ticker period between dirty checks. Default 60s.
	Interval time.Duration

	// MaxInterval caps the exponential backoff applied after transient
	// index errors. Default 8x Interval.
	MaxInterval time.Duration

	// MaxConsecutiveErrors is the failure count after which the watcher
	// pauses instead of backing off further. Default 3.
	MaxConsecutiveErrors int

	// Ignore reports whether a project-relative path should not flip the
	// dirty bit. Nil means nothing is ignored beyond dotfiles under .git.
	Ignore func(relPath string) bool

	// OnIgnoreRulesChanged fires when a .gitignore inside the project is
	// written, so the owner can recompose its ignore rules. A .gitignore
	// edit does not itself flip the dirty bit.
	OnIgnoreRulesChanged func()

	// OnIndexError fires after every failed index pass, before backoff or
	// pause is applied.
	OnIndexError func(err error)

	// OnPaused fires once when the consecutive-error limit is reached.
	OnPaused func(err error)
}

func (o *Options) fillDefaults() {
	if o.Interval <= 0 {
		o.Interval = 60 * time.Second
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 8 * o.Interval
	}
	if o.MaxConsecutiveErrors <= 0 {
		o.MaxConsecutiveErrors = 3
	}
}

// Watcher owns one project root's change subscription and reindex loop.
type Watcher struct {
	root  string
	index IndexFunc
	opts  Options

	mu          sync.Mutex
	dirty       bool
	running     bool
	pending     bool
	consecutive int
	paused      bool
	interval    time.Duration
}

// New validates the watch target and returns a Watcher ready to Start.
// Watching the filesystem root or the user's home directory is refused
// with coreerrors.ErrWatcherRefused.
func New(root string, index IndexFunc, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs = filepath.Clean(abs)

	if abs == string(filepath.Separator) || filepath.Dir(abs) == abs {
		return nil, coreerrors.ErrWatcherRefused
	}
	if home, herr := os.UserHomeDir(); herr == nil && abs == filepath.Clean(home) {
		return nil, coreerrors.ErrWatcherRefused
	}

	opts.fillDefaults()
	return &Watcher{
		root:     abs,
		index:    index,
		opts:     opts,
		interval: opts.Interval,
	}, nil
}

// Start blocks, watching the tree and running index passes, until ctx is
// cancelled. It returns nil on cancellation and an error only for a
// subscription failure that prevents watching at all.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	timer := time.NewTimer(w.currentInterval())
	defer timer.Stop()

	done := make(chan error, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher: notification error: %v", err)

		case <-timer.C:
			if w.shouldRun() {
				go func() { done <- w.index(ctx) }()
			} else {
				timer.Reset(w.currentInterval())
			}

		case err := <-done:
			again := w.finishRun(err)
			if again {
				// A change arrived mid-run; one follow-up pass, then
				// back to the ticker.
				go func() { done <- w.index(ctx) }()
				continue
			}
			// The ticker keeps running even while paused so that a
			// later Resume takes effect without restarting the loop;
			// shouldRun gates on the paused flag.
			timer.Reset(w.currentInterval())
		}
	}
}

// MarkDirty flips the dirty bit by hand, for callers that learn about
// changes out of band (a branch switch, an explicit refresh request).
func (w *Watcher) MarkDirty() {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

// Resume clears a pause entered after repeated index failures and restores
// the base ticker interval. The caller is expected to have fixed whatever
// was failing; Start's loop picks the new state up on its next cycle.
func (w *Watcher) Resume() {
	w.mu.Lock()
	w.paused = false
	w.consecutive = 0
	w.interval = w.opts.Interval
	w.mu.Unlock()
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, serr := os.Stat(ev.Name); serr == nil && info.IsDir() {
			if w.opts.Ignore == nil || !w.opts.Ignore(rel) {
				_ = w.addTree(fsw, ev.Name)
			}
		}
	}

	if filepath.Base(rel) == ".gitignore" {
		if w.opts.OnIgnoreRulesChanged != nil {
			w.opts.OnIgnoreRulesChanged()
		}
		return
	}

	if w.opts.Ignore != nil && w.opts.Ignore(rel) {
		return
	}

	w.mu.Lock()
	w.dirty = true
	if w.running {
		w.pending = true
	}
	w.mu.Unlock()
}

// addTree registers dir and every non-ignored directory beneath it.
// fsnotify watches are per-directory, not recursive.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip, don't abort the watch
		}
		if !d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(w.root, path)
		if rerr == nil {
			rel = filepath.ToSlash(rel)
			if rel == ".git" || strings.HasPrefix(rel, ".git/") {
				return filepath.SkipDir
			}
			if rel != "." && w.opts.Ignore != nil && w.opts.Ignore(rel) {
				return filepath.SkipDir
			}
		}
		if aerr := fsw.Add(path); aerr != nil {
			log.Printf("watcher: cannot watch %s: %v", path, aerr)
		}
		return nil
	})
}

func (w *Watcher) shouldRun() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused || w.running || !w.dirty {
		return false
	}
	w.dirty = false
	w.running = true
	return true
}

// finishRun records one pass's outcome and reports whether a follow-up
// pass should fire immediately (a change arrived while the pass ran).
func (w *Watcher) finishRun(err error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, coreerrors.ErrCancelled) {
		w.consecutive++
		w.dirty = true // the failed pass's changes are still unindexed
		if w.opts.OnIndexError != nil {
			w.opts.OnIndexError(err)
		}
		if w.consecutive >= w.opts.MaxConsecutiveErrors {
			w.paused = true
			if w.opts.OnPaused != nil {
				w.opts.OnPaused(err)
			}
			return false
		}
		next := w.interval * 2
		if next > w.opts.MaxInterval {
			next = w.opts.MaxInterval
		}
		w.interval = next
		return false
	}

	w.consecutive = 0
	w.interval = w.opts.Interval

	if w.pending {
		w.pending = false
		w.dirty = false
		w.running = true
		return true
	}
	return false
}

func (w *Watcher) currentInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// Snapshot reports the loop's current state for status displays and tests.
func (w *Watcher) Snapshot() (dirty, running, paused bool, consecutiveErrors int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty, w.running, w.paused, w.consecutive
}
