package main

import (
	"fmt"

	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search documents at the head revision",
		Long:  `Search every tracked text file at the head revision. The pattern is a regular expression, or a literal when it does not compile.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().Bool("case-sensitive", false, "Match case exactly")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := loadApp(cmd, "")
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}

	results, err := store.SearchAtHead(cmd.Context(), args[0], !caseSensitive)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if asJSON {
		return outputSearchResultsJSON(cmd, results)
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%s\n", r.Filename, r.LineNumber, r.MatchedLine)
	}
	return nil
}

func outputSearchResultsJSON(cmd *cobra.Command, results []internal.SearchResult) error {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"path": r.Filename.String(),
			"line": r.LineNumber,
			"text": r.MatchedLine,
		})
	}
	return outputJSON(cmd, out)
}
