package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codesearch/hybrid-search/internal/indexer"
	"github.com/codesearch/hybrid-search/internal/watcher"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project for changes and reindex incrementally",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Minute, "how often to check for accumulated changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}

	idx, provider, err := a.openIndexer(nil)
	if err != nil {
		return err
	}
	defer idx.Close()
	defer provider.Close()

	idxCfg := a.cfg.ToIndexerConfig(a.rootDir, a.dataDir)

	// The ignore predicate is rebuilt whenever a .gitignore changes, so
	// the matcher and the filesystem never drift for long.
	var ignoreMu sync.RWMutex
	ignore, err := indexer.IgnoreFunc(idxCfg)
	if err != nil {
		return fmt.Errorf("compose ignore rules: %w", err)
	}

	w, err := watcher.New(a.rootDir, func(ctx context.Context) error {
		result, err := idx.IndexIncremental(ctx)
		if err != nil {
			return err
		}
		if result.Files > 0 || result.Removed > 0 {
			fmt.Printf("reindexed: %d updated, %d removed, %d unchanged\n",
				result.Files, result.Removed, result.Skipped)
		}
		return nil
	}, watcher.Options{
		Interval: watchInterval,
		Ignore: func(rel string) bool {
			ignoreMu.RLock()
			defer ignoreMu.RUnlock()
			return ignore(rel)
		},
		OnIgnoreRulesChanged: func() {
			if fresh, ferr := indexer.IgnoreFunc(idxCfg); ferr == nil {
				ignoreMu.Lock()
				ignore = fresh
				ignoreMu.Unlock()
			}
		},
		OnIndexError: func(err error) {
			fmt.Fprintf(os.Stderr, "index pass failed: %v\n", err)
		},
		OnPaused: func(err error) {
			fmt.Fprintf(os.Stderr, "watch paused after repeated failures: %v\n", err)
		},
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
