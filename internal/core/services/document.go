package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService stores knowledge-base documents and keeps their
// embeddings in step with their content.
type DocumentService struct {
	docStore driven.DocumentStore
	embedder driven.EmbeddingService
	now      func() time.Time
}

// NewDocumentService creates a new document service.
// The embedder is optional; without it documents are stored unembedded.
func NewDocumentService(docStore driven.DocumentStore, embedder driven.EmbeddingService) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		embedder: embedder,
		now:      time.Now,
	}
}

// Save stores a document. The embedding is regenerated in full when title,
// summary or body differ from what the stored vector was computed from.
// An embedding failure leaves the vector empty for ReembedMissing to retry.
func (s *DocumentService) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: document title required", domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	now := s.now()
	existing, err := s.docStore.GetDocument(ctx, doc.ID)
	switch {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
		if !doc.HasEmbedding() && !existing.NeedsEmbedding() &&
			existing.ContentHash == doc.ComputeContentHash() {
			doc.Embedding = existing.Embedding
			doc.ContentHash = existing.ContentHash
		}
	case errors.Is(err, domain.ErrNotFound):
		doc.CreatedAt = now
	default:
		return fmt.Errorf("get document: %w", err)
	}
	doc.UpdatedAt = now

	if doc.NeedsEmbedding() {
		s.embed(ctx, doc)
	}
	s.fitDimensions(doc)

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// Delete removes a document.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	return s.docStore.DeleteDocument(ctx, documentID)
}

// ReembedMissing backfills vectors for documents that have none. It keeps
// going past individual failures and reports them together.
func (s *DocumentService) ReembedMissing(ctx context.Context, limit int) (int, error) {
	if s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	docs, err := s.docStore.ListMissingEmbeddings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list documents without embeddings: %w", err)
	}
	logger.Info("Re-embedding %d documents", len(docs))

	updated := 0
	var errs []error
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		doc := &docs[i]
		if !s.embed(ctx, doc) {
			errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, domain.ErrProviderFailure))
			continue
		}
		doc.UpdatedAt = s.now()
		if err := s.docStore.SaveDocument(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("save document %s: %w", doc.ID, err))
			continue
		}
		updated++
	}

	return updated, errors.Join(errs...)
}

// fitDimensions brings a caller-supplied vector to the embedder's size.
// Without an embedder there is no size to enforce.
func (s *DocumentService) fitDimensions(doc *domain.Document) {
	if s.embedder == nil || !doc.HasEmbedding() {
		return
	}
	dims := s.embedder.Dimensions()
	if dims <= 0 {
		return
	}
	if fitted, changed := domain.FitDimensions(doc.Embedding, dims); changed {
		logger.Error("Document %s vector has %d dimensions, fitted to %d", doc.ID, len(doc.Embedding), dims)
		doc.Embedding = fitted
	}
}

// embed sets the document's vector and content hash. It reports false and
// clears the vector when no embedding could be produced.
func (s *DocumentService) embed(ctx context.Context, doc *domain.Document) bool {
	doc.ContentHash = doc.ComputeContentHash()
	doc.Embedding = nil
	if s.embedder == nil {
		return false
	}

	vec, err := s.embedder.Embed(ctx, doc.EmbeddingText())
	if err != nil {
		logger.Error("Embedding document %s failed: %v", doc.ID, err)
		return false
	}
	doc.Embedding = vec
	return true
}
