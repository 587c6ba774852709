package mcp

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result *domain.RetrievalResult
	err    error

	query string
	opts  domain.RetrievalOptions
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	query string,
	opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	m.query = query
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{Tier: domain.TierNone}, nil
	}
	return m.result, nil
}

// mockAssembler is a mock implementation of driving.ContextAssembler.
type mockAssembler struct {
	maxChars int
}

func (m *mockAssembler) Build(candidates []domain.RetrievalCandidate, maxChars int) domain.RAGContext {
	m.maxChars = maxChars
	rag := domain.RAGContext{}
	for _, c := range candidates {
		rag.Articles = append(rag.Articles, domain.ContextArticle{
			ID:       c.Document.ID,
			Title:    c.Document.Title,
			Score:    c.Score,
			Included: true,
		})
		rag.Text += c.Document.Title + "\n"
	}
	return rag
}

// mockRelationService is a mock implementation of driving.RelationService.
type mockRelationService struct {
	documents []domain.RelatedDocument
	items     []domain.RelatedItem
	err       error

	kind     domain.RelationKind
	tenantID string
	limit    int
}

func (m *mockRelationService) RelatedDocuments(
	_ context.Context, _ string, limit int,
) ([]domain.RelatedDocument, error) {
	m.kind = domain.RelationDocument
	m.limit = limit
	return m.documents, m.err
}

func (m *mockRelationService) RelatedItems(
	_ context.Context, _ string, kind domain.RelationKind, tenantID string, limit int,
) ([]domain.RelatedItem, error) {
	m.kind = kind
	m.tenantID = tenantID
	m.limit = limit
	return m.items, m.err
}

// mockWorkspaceService is a mock implementation of driving.WorkspaceContextService.
type mockWorkspaceService struct {
	snapshot *domain.WorkspaceSnapshot
	err      error
}

func (m *mockWorkspaceService) Build(
	_ context.Context, projectID, workspaceID string,
) (*domain.WorkspaceSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &domain.WorkspaceSnapshot{ProjectID: projectID, WorkspaceID: workspaceID}, nil
}

func (m *mockWorkspaceService) Format(snapshot *domain.WorkspaceSnapshot) string {
	return "PROJECT " + snapshot.ProjectID + " IN " + snapshot.WorkspaceID
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	document *domain.Document
	err      error
}

func (m *mockDocumentService) Save(_ context.Context, _ *domain.Document) error {
	return m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) ReembedMissing(_ context.Context, _ int) (int, error) {
	return 0, m.err
}

func requiredPorts() *Ports {
	return &Ports{
		Retrieval: &mockRetrievalService{},
		Assembler: &mockAssembler{},
	}
}
