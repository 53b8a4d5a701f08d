package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codesearch/hybrid-search/internal/indexer"
)

var (
	quietFlag       bool
	incrementalFlag bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the codebase for semantic search",
	Long: `Index parses the current project, chunks it by symbol and documentation
section, embeds each chunk, and stores the result in a local vector
store for search and duplicate detection.

By default index always runs a full rebuild; pass --incremental to
reuse the existing index and only touch files that changed since the
last run.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress output")
	indexCmd.Flags().BoolVarP(&incrementalFlag, "incremental", "i", false, "reindex only files that changed since the last run")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling indexing...")
		cancel()
	}()

	a, err := newApp()
	if err != nil {
		return err
	}

	bus := indexer.NewBus()
	idx, provider, err := a.openIndexer(bus)
	if err != nil {
		return err
	}
	defer idx.Close()
	defer provider.Close()

	done := watchProgress(bus, quietFlag)

	var result indexer.Result
	if incrementalFlag {
		result, err = idx.IndexIncremental(ctx)
	} else {
		result, err = idx.IndexFull(ctx)
	}
	bus.Close()
	<-done

	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if !quietFlag {
		fmt.Printf("\nIndexing complete (%s):\n", result.Mode)
		fmt.Printf("  Files:   %d indexed, %d skipped, %d removed\n", result.Files, result.Skipped, result.Removed)
		if len(result.Errors) > 0 {
			fmt.Printf("  Errors:  %d (see above)\n", len(result.Errors))
		}
	}
	return nil
}
