package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage knowledge-base documents",
	Long:  `Add, view, delete or re-embed knowledge-base documents.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add or update a document from a markdown file",
	Long: `Stores a markdown file as a document and generates its embedding.

Optional YAML front matter sets the metadata:

  ---
  id: refund-policy
  title: Refund policy
  summary: How refunds work
  tags: [billing, support]
  tenant: acme
  published: true
  ---

Without an id a new one is generated, so adding the same file twice creates
two documents. If embedding fails the document is still saved; run
'projctx document reembed' later.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentAdd,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Generate missing embeddings",
	Long:  `Generates embeddings for documents stored while no provider was reachable.`,
	Args:  cobra.NoArgs,
	RunE:  runDocumentReembed,
}

var (
	addID       string
	addTenant   string
	addTags     []string
	addDraft    bool
	reembedSize int
)

func init() {
	documentAddCmd.Flags().StringVar(&addID, "id", "", "document ID (overrides front matter)")
	documentAddCmd.Flags().StringVarP(&addTenant, "tenant", "t", "", "owning organisation (overrides front matter)")
	documentAddCmd.Flags().StringSliceVar(&addTags, "tag", nil, "tag to add (repeatable)")
	documentAddCmd.Flags().BoolVar(&addDraft, "draft", false, "store unpublished")
	documentReembedCmd.Flags().IntVarP(&reembedSize, "limit", "n", 100, "maximum number of documents")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReembedCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	doc, err := parseDocumentFile(args[0], f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	if addID != "" {
		doc.ID = addID
	}
	if addTenant != "" {
		doc.TenantID = addTenant
	}
	doc.Tags = append(doc.Tags, addTags...)
	if addDraft {
		doc.Published = false
	}

	if err := s.Documents.Save(cmd.Context(), doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	cmd.Printf("Saved document %s (%s)\n", doc.ID, doc.Title)
	if !doc.HasEmbedding() {
		cmd.Println("Note: no embedding was generated. Run 'projctx document reembed' once a provider is reachable.")
	}
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	doc, err := s.Documents.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	scope := "global"
	if doc.TenantID != "" {
		scope = doc.TenantID
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  Scope:     %s\n", scope)
	cmd.Printf("  Published: %t\n", doc.Published)
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:      %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.HasEmbedding() {
		cmd.Printf("  Embedding: %d dimensions\n", len(doc.Embedding))
	} else {
		cmd.Printf("  Embedding: (none)\n")
	}
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if doc.Summary != "" {
		cmd.Printf("\n%s\n", doc.Summary)
	}
	if doc.Body != "" {
		cmd.Printf("\n%s\n", doc.Body)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	if err := s.Documents.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func runDocumentReembed(cmd *cobra.Command, _ []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	n, err := s.Documents.ReembedMissing(cmd.Context(), reembedSize)
	cmd.Printf("Embedded %d document(s)\n", n)
	if err != nil {
		return fmt.Errorf("some documents could not be embedded: %w", err)
	}
	return nil
}
