package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the index against the filesystem without writing anything",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	result, err := idx.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	fmt.Printf("Files tracked: %d\n", result.Files)
	printPaths("Changed", result.Changed)
	printPaths("Missing", result.Missing)
	printPaths("Removed", result.Removed)

	if len(result.Changed) == 0 && len(result.Missing) == 0 && len(result.Removed) == 0 {
		fmt.Println("Index is up to date.")
	}
	return nil
}

func printPaths(label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", label, len(paths))
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
}
