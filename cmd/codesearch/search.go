package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch/hybrid-search/internal/search"
)

var (
	searchLimit        int
	searchFilterExprs  []string
	searchRerank       bool
	searchMaxPerFile   int
	searchMaxPerSymbol int
	searchMinScore     float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed codebase by meaning and structure",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringArrayVarP(&searchFilterExprs, "filter", "f", nil, `structural filter, e.g. "symbolType=function" or "complexity>5"`)
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "apply the cross-encoder reranker, if configured")
	searchCmd.Flags().IntVar(&searchMaxPerFile, "max-per-file", 0, "cap results per file (0 = unlimited)")
	searchCmd.Flags().IntVar(&searchMaxPerSymbol, "max-per-symbol", 0, "cap results per symbol (0 = unlimited)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results below this relevance score (0-1)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}

	provider, err := a.provider()
	if err != nil {
		return fmt.Errorf("create embedding provider: %w", err)
	}
	defer provider.Close()

	st, err := a.openStore(provider)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer st.Close()

	engine, err := a.searchEngine(provider, st)
	if err != nil {
		return err
	}

	filters, err := parseFilters(searchFilterExprs)
	if err != nil {
		return err
	}

	hits, invalid, err := engine.Search(ctx, search.Query{
		Text:         args[0],
		Limit:        searchLimit,
		Filters:      filters,
		Rerank:       searchRerank,
		MaxPerFile:   searchMaxPerFile,
		MaxPerSymbol: searchMaxPerSymbol,
		MinScore:     searchMinScore,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, ic := range invalid {
		fmt.Printf("warning: dropped filter %q: %s\n", ic.Filter.Key, ic.Reason)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}

	fmt.Println(search.RenderAll(hits))
	return nil
}
