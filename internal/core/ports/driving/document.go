package driving

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// DocumentService manages knowledge-base documents and their embeddings.
type DocumentService interface {
	// Save stores a document, regenerating its embedding when title,
	// summary or body changed. Embedding failures do not fail the save.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, documentID string) error

	// ReembedMissing generates embeddings for up to limit documents that
	// have none and returns how many were updated.
	ReembedMissing(ctx context.Context, limit int) (int, error)
}
