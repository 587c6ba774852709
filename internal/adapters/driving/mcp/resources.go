package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for projctx resources.
	uriScheme = "projctx://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Title, summary and body of a knowledge-base document",
		MIMEType:    "text/markdown",
	}, s.handleDocumentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "workspaces/{workspaceId}/projects/{projectId}",
		Name:        "project-context",
		Description: "Prompt-ready snapshot of a project's workspace data",
		MIMEType:    "text/plain",
	}, s.handleProjectResource)
}

// handleDocumentResource returns a document rendered as markdown.
// Unpublished documents are not exposed.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	documents := s.current().Document
	if documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// projctx://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := documents.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !doc.Published) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     renderDocument(doc),
		}},
	}, nil
}

// handleProjectResource returns the formatted workspace snapshot.
func (s *Server) handleProjectResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	workspace := s.current().Workspace
	if workspace == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	workspaceID, projectID := extractProjectIDs(req.Params.URI)
	if projectID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	snapshot, err := workspace.Build(ctx, projectID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("building workspace context: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     workspace.Format(snapshot),
		}},
	}, nil
}

func renderDocument(doc *domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", doc.Title)
	if doc.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Summary)
	}
	if len(doc.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Body)
	}
	return b.String()
}

// extractDocumentID extracts the document ID from a URI like projctx://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// extractProjectIDs parses projctx://workspaces/{workspaceId}/projects/{projectId}.
func extractProjectIDs(uri string) (workspaceID, projectID string) {
	const prefix = uriScheme + "workspaces/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}

	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != 3 || parts[1] != "projects" || parts[2] == "" {
		return "", ""
	}
	return parts[0], parts[2]
}
