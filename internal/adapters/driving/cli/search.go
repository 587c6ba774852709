package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

var (
	searchTenant string
	searchTopK   int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search knowledge-base documents",
	Long: `Finds published documents relevant to a query.

Vector similarity is tried first, then full-text search, then keyword
scoring. The first method that finds anything answers. Without --tenant only
global documents are searched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchTenant, "tenant", "t", "", "organisation ID (default global documents only)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	opts := domain.RetrievalOptions{
		Scope: domain.TenantScope(searchTenant),
		TopK:  searchTopK,
	}

	result, err := s.Retrieval.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, result)
	}

	return outputSearchTable(cmd, result)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result *domain.RetrievalResult) error {
	if len(result.Candidates) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n\n", result.Tier.Description())
	for i, c := range result.Candidates {
		// Format: [N] Title (Score)
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.Document.Title, c.Score)
		cmd.Printf("      ID: %s\n", c.Document.ID)
		if len(c.Document.Tags) > 0 {
			cmd.Printf("      Tags: %s\n", strings.Join(c.Document.Tags, ", "))
		}
		if c.Document.Summary != "" {
			cmd.Printf("      %s\n", c.Document.Summary)
		}
		cmd.Println()
	}

	return nil
}
