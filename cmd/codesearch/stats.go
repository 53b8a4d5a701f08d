package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch/hybrid-search/internal/store"
)

var statsRecent bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the current index's size and embedding compatibility key",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsRecent, "recent", false, "print the most recently indexed project root and exit")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if statsRecent {
		root, err := store.GetMostRecentIndexedProject(a.dataDir)
		if err != nil {
			return err
		}
		if root == "" {
			fmt.Println("No project has been indexed yet.")
			return nil
		}
		fmt.Println(root)
		return nil
	}

	idx, provider, err := a.openIndexer(nil)
	if err != nil {
		return err
	}
	defer idx.Close()
	defer provider.Close()

	stats, err := idx.Stats()
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	fmt.Printf("Rows:       %d\n", stats.RowCount)
	fmt.Printf("Provider:   %s\n", stats.Embeddings.Provider)
	fmt.Printf("Model:      %s\n", stats.Embeddings.Model)
	fmt.Printf("Dimensions: %d\n", stats.Embeddings.Dimension)
	fmt.Printf("Updated at: %s\n", stats.UpdatedAt)
	return nil
}
