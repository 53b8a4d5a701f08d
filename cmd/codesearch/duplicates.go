package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch/hybrid-search/internal/duplicate"
)

var (
	dupCrossFileOnly bool
	dupOnlyExported  bool
	dupIgnoreTests   bool
	dupMinLines      int
	dupMinComplexity int
	dupExclude       string
	dupRankByImpact  bool
	dupFilterExprs   []string
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Find structural duplicates across the indexed codebase",
	RunE:  runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
	duplicatesCmd.Flags().BoolVar(&dupCrossFileOnly, "cross-file-only", false, "only report duplicates across different files")
	duplicatesCmd.Flags().BoolVar(&dupOnlyExported, "only-exported", false, "only consider exported symbols")
	duplicatesCmd.Flags().BoolVar(&dupIgnoreTests, "ignore-tests", true, "exclude test files from candidate selection")
	duplicatesCmd.Flags().IntVar(&dupMinLines, "min-lines", 0, "minimum symbol length to consider")
	duplicatesCmd.Flags().IntVar(&dupMinComplexity, "min-complexity", 0, "minimum cyclomatic complexity to consider")
	duplicatesCmd.Flags().StringVar(&dupExclude, "exclude", "", "regex excluding symbol names from candidate selection")
	duplicatesCmd.Flags().BoolVar(&dupRankByImpact, "rank-by-impact", true, "sort groups by estimated impact instead of discovery order")
	duplicatesCmd.Flags().StringArrayVarP(&dupFilterExprs, "filter", "f", nil, "structural filter scoping candidate selection")
}

func runDuplicates(cmd *cobra.Command, args []string) error {
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

	scope, err := parseFilters(dupFilterExprs)
	if err != nil {
		return err
	}

	det := a.duplicateDetector(st)
	result, err := det.Detect(ctx, duplicate.Options{
		ScopeFilter:          scope,
		IgnoreTests:          dupIgnoreTests,
		CrossFileOnly:        dupCrossFileOnly,
		OnlyExported:         dupOnlyExported,
		MinLines:             dupMinLines,
		MinComplexity:        dupMinComplexity,
		ExcludePattern:       dupExclude,
		NormalizeIdentifiers: true,
		RankByImpact:         dupRankByImpact,
	})
	if err != nil {
		return fmt.Errorf("duplicate detection failed: %w", err)
	}

	if len(result.Groups) == 0 {
		fmt.Println("No duplicates found.")
	}
	for i, g := range result.Groups {
		fmt.Printf("Group %d (%s, similarity %.2f, impact %.0f):\n", i+1, g.Level, g.Similarity, g.Impact.Score)
		for _, inst := range g.Instances {
			fmt.Printf("  %s:%d-%d  %s\n", inst.File, inst.StartLine, inst.EndLine, inst.SymbolName)
		}
	}
	fmt.Printf("\n%d duplicate group(s) across %d file(s), ~%d lines reclaimable\n",
		result.Summary.TotalDuplicates, result.Summary.FilesAffected, result.Summary.TotalSavings)
	if len(result.AcceptableDuplicates) > 0 {
		fmt.Printf("(%d group(s) set aside as acceptable patterns)\n", len(result.AcceptableDuplicates))
	}
	return nil
}
