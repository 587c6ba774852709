package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

const (
	defaultRelatedLimit = 5
	maxRelatedLimit     = 50
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query    string `json:"query" jsonschema:"free-text question or search terms"`
	TenantID string `json:"tenant_id,omitempty" jsonschema:"organisation ID; omit to search global documents only"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of documents (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Tier    string            `json:"tier"`
	Count   int               `json:"count"`
	Results []CandidateOutput `json:"results"`
}

// CandidateOutput represents a single ranked document.
type CandidateOutput struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Score      float64  `json:"score"`
}

// RAGContextInput is the input schema for the rag_context tool.
type RAGContextInput struct {
	Query    string `json:"query" jsonschema:"question the context should help answer"`
	TenantID string `json:"tenant_id,omitempty" jsonschema:"organisation ID; omit to use global documents only"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of documents to consider"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"character budget for the context text"`
}

// RAGContextOutput is the output schema for the rag_context tool.
type RAGContextOutput struct {
	Tier     string                  `json:"tier"`
	Articles []domain.ContextArticle `json:"articles"`
	Text     string                  `json:"context_text"`
}

// RelatedInput is the input schema for the related tool.
type RelatedInput struct {
	DocumentID string `json:"document_id" jsonschema:"source document ID"`
	Kind       string `json:"kind,omitempty" jsonschema:"document, task, phase or dashboard (default document)"`
	TenantID   string `json:"tenant_id,omitempty" jsonschema:"organisation whose items to search; defaults to the document's"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// RelatedOutput is the output schema for the related tool. Documents is set
// for kind document, Items otherwise.
type RelatedOutput struct {
	Kind      string                  `json:"kind"`
	Documents []RelatedDocumentOutput `json:"documents,omitempty"`
	Items     []RelatedItemOutput     `json:"items,omitempty"`
}

// RelatedDocumentOutput is a document ranked by similarity.
type RelatedDocumentOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// RelatedItemOutput is a project item sharing keywords with the document.
type RelatedItemOutput struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// WorkspaceContextInput is the input schema for the workspace_context tool.
type WorkspaceContextInput struct {
	ProjectID   string `json:"project_id" jsonschema:"project to summarise"`
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"organisation of the project"`
}

// WorkspaceContextOutput is the output schema for the workspace_context tool.
type WorkspaceContextOutput struct {
	Text        string   `json:"text"`
	Unavailable []string `json:"unavailable,omitempty"`
	Snapshot    any      `json:"snapshot"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find knowledge-base documents relevant to a query, ranked by relevance",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rag_context",
		Description: "Retrieve documents for a query and pack them into prompt-ready context text",
	}, s.handleRAGContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "related",
		Description: "List documents, tasks, phases or dashboards related to a document",
	}, s.handleRelated)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "workspace_context",
		Description: "Summarise every data domain of a project for prompting",
	}, s.handleWorkspaceContext)
}

func retrievalOptions(tenantID string, topK int) domain.RetrievalOptions {
	return domain.RetrievalOptions{
		Scope: domain.TenantScope(tenantID),
		TopK:  topK,
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.current().Retrieval.Retrieve(ctx, input.Query, retrievalOptions(input.TenantID, input.TopK))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Tier:    result.Tier.String(),
		Count:   len(result.Candidates),
		Results: make([]CandidateOutput, len(result.Candidates)),
	}
	for i, c := range result.Candidates {
		output.Results[i] = CandidateOutput{
			DocumentID: c.Document.ID,
			Title:      c.Document.Title,
			Summary:    c.Document.Summary,
			Tags:       c.Document.Tags,
			Score:      c.Score,
		}
	}

	return nil, output, nil
}

// handleRAGContext handles the rag_context tool invocation.
func (s *Server) handleRAGContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RAGContextInput,
) (*mcp.CallToolResult, RAGContextOutput, error) {
	ports := s.current()
	result, err := ports.Retrieval.Retrieve(ctx, input.Query, retrievalOptions(input.TenantID, input.TopK))
	if err != nil {
		return nil, RAGContextOutput{}, err
	}

	rag := ports.Assembler.Build(result.Candidates, input.MaxChars)
	articles := rag.Articles
	if articles == nil {
		articles = []domain.ContextArticle{}
	}

	return nil, RAGContextOutput{
		Tier:     result.Tier.String(),
		Articles: articles,
		Text:     rag.Text,
	}, nil
}

// handleRelated handles the related tool invocation.
func (s *Server) handleRelated(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RelatedInput,
) (*mcp.CallToolResult, RelatedOutput, error) {
	relation := s.current().Relation
	if relation == nil {
		return nil, RelatedOutput{}, fmt.Errorf("related: %w", domain.ErrUnsupportedType)
	}
	if input.DocumentID == "" {
		return nil, RelatedOutput{}, fmt.Errorf("document_id is required: %w", domain.ErrInvalidInput)
	}

	kind := domain.RelationKind(input.Kind)
	if kind == "" {
		kind = domain.RelationDocument
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	limit = min(limit, maxRelatedLimit)

	output := RelatedOutput{Kind: kind.String()}

	if kind == domain.RelationDocument {
		related, err := relation.RelatedDocuments(ctx, input.DocumentID, limit)
		if err != nil {
			return nil, RelatedOutput{}, err
		}
		output.Documents = make([]RelatedDocumentOutput, len(related))
		for i, r := range related {
			output.Documents[i] = RelatedDocumentOutput{
				DocumentID: r.Document.ID,
				Title:      r.Document.Title,
				Similarity: r.Similarity,
			}
		}
		return nil, output, nil
	}

	items, err := relation.RelatedItems(ctx, input.DocumentID, kind, input.TenantID, limit)
	if err != nil {
		return nil, RelatedOutput{}, err
	}
	output.Items = make([]RelatedItemOutput, len(items))
	for i, item := range items {
		output.Items[i] = RelatedItemOutput{
			ID:              item.Target.ID,
			Title:           item.Target.Title,
			MatchedKeywords: item.MatchedKeywords,
		}
	}
	return nil, output, nil
}

// handleWorkspaceContext handles the workspace_context tool invocation.
func (s *Server) handleWorkspaceContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WorkspaceContextInput,
) (*mcp.CallToolResult, WorkspaceContextOutput, error) {
	workspace := s.current().Workspace
	if workspace == nil {
		return nil, WorkspaceContextOutput{}, fmt.Errorf("workspace_context: %w", domain.ErrUnsupportedType)
	}

	snapshot, err := workspace.Build(ctx, input.ProjectID, input.WorkspaceID)
	if err != nil {
		return nil, WorkspaceContextOutput{}, err
	}

	return nil, WorkspaceContextOutput{
		Text:        workspace.Format(snapshot),
		Unavailable: snapshot.Unavailable,
		Snapshot:    snapshot,
	}, nil
}
