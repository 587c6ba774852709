package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

var (
	contextTenant   string
	contextTopK     int
	contextMaxChars int
	contextJSON     bool
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble prompt context for a query",
	Long: `Retrieves documents for a query and packs their title, summary and body
into context text, most relevant first, within a character budget.

The text goes to stdout so it can be piped into a prompt. Sources are listed
on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextTenant, "tenant", "t", "", "organisation ID (default global documents only)")
	contextCmd.Flags().IntVarP(&contextTopK, "top-k", "n", 0, "maximum number of documents (default from settings)")
	contextCmd.Flags().IntVarP(&contextMaxChars, "max-chars", "c", 0, "context budget in characters (default from settings)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output articles and text as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	opts := domain.RetrievalOptions{
		Scope: domain.TenantScope(contextTenant),
		TopK:  contextTopK,
	}

	result, err := s.Retrieval.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	rag := s.Assembler.Build(result.Candidates, contextMaxChars)

	if contextJSON {
		return outputJSON(cmd, rag)
	}

	if len(rag.Articles) == 0 {
		cmd.PrintErrln("No relevant documents found.")
		return nil
	}

	// Stdout, so the text can be piped
	if rag.Text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), rag.Text)
	}

	cmd.PrintErrf("\nSources (%s):\n", result.Tier.Description())
	for _, a := range rag.Articles {
		marker := " "
		if a.Included {
			marker = "*"
		}
		cmd.PrintErrf("  %s %s  %s (%.2f)\n", marker, a.ID, a.Title, a.Score)
	}
	return nil
}
