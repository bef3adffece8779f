package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search site content directly",
	Long: `Searches the WordPress site through its REST API without involving
the language model. Useful for checking what content a question would
be answered from.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	limit := searchLimit
	if limit <= 0 {
		limit = defaultMaxResults
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := searchService.Search(ctx, args[0], limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, records)
	}
	return outputSearchList(cmd, records)
}

func outputSearchJSON(cmd *cobra.Command, records []domain.ContentRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchList(cmd *cobra.Command, records []domain.ContentRecord) error {
	if len(records) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range records {
		cmd.Printf("  [%d] %s\n", i+1, r.Title)
		cmd.Printf("      %s\n", citationStyle.Render(r.URL))
		if r.Excerpt != "" {
			cmd.Printf("      %s\n", r.Excerpt)
		}
		cmd.Println()
	}
	return nil
}
