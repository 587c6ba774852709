package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

var (
	relatedKind   string
	relatedTenant string
	relatedLimit  int
	relatedJSON   bool
)

var relatedCmd = &cobra.Command{
	Use:   "related [document-id]",
	Short: "List entities related to a document",
	Long: `Lists documents similar to the given one, or the tasks, phases or dashboards
of an organisation that share keywords with it.

Kinds:
  document   - documents ranked by embedding similarity (default)
  task       - project tasks
  phase      - project phases
  dashboard  - dashboards`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	relatedCmd.Flags().StringVarP(&relatedKind, "kind", "k", string(domain.RelationDocument), "document, task, phase or dashboard")
	relatedCmd.Flags().StringVarP(&relatedTenant, "tenant", "t", "", "organisation whose items to search (default the document's)")
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 5, "maximum number of results")
	relatedCmd.Flags().BoolVar(&relatedJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	kind := domain.RelationKind(relatedKind)
	if !kind.IsValid() {
		return fmt.Errorf("invalid kind %q: %w", relatedKind, domain.ErrUnsupportedType)
	}

	if kind == domain.RelationDocument {
		docs, err := s.Relation.RelatedDocuments(cmd.Context(), args[0], relatedLimit)
		if err != nil {
			return fmt.Errorf("failed to find related documents: %w", err)
		}
		if relatedJSON {
			return outputJSON(cmd, docs)
		}
		if len(docs) == 0 {
			cmd.Println("No related documents found.")
			return nil
		}
		for i, r := range docs {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.Document.Title, r.Similarity)
			cmd.Printf("      ID: %s\n", r.Document.ID)
		}
		return nil
	}

	items, err := s.Relation.RelatedItems(cmd.Context(), args[0], kind, relatedTenant, relatedLimit)
	if err != nil {
		return fmt.Errorf("failed to find related %ss: %w", kind, err)
	}
	if relatedJSON {
		return outputJSON(cmd, items)
	}
	if len(items) == 0 {
		cmd.Printf("No related %ss found.\n", kind)
		return nil
	}
	for i, item := range items {
		cmd.Printf("  [%d] %s\n", i+1, item.Target.Title)
		cmd.Printf("      ID: %s\n", item.Target.ID)
		cmd.Printf("      Matched: %s\n", strings.Join(item.MatchedKeywords, ", "))
	}
	return nil
}
