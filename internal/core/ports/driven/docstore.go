package driven

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// DocumentStore persists documents and serves the reads behind each
// retrieval tier. Every list method returns only published documents
// visible under the given scope.
type DocumentStore interface {
	// SaveDocument stores or updates a document. Embeddings are always
	// written in the bracketed string encoding.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID, published or not.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error

	// ListEmbedded returns up to limit documents with a non-null stored
	// vector, leaving the vector in its stored encoding. When more documents
	// qualify, the most recently updated ones are kept.
	ListEmbedded(ctx context.Context, scope domain.Scope, limit int) ([]domain.EmbeddedDocument, error)

	// FullTextSearch runs the native text-search operator with every term
	// required. Results are in the store's rank order. Stores without such
	// an operator return domain.ErrFullTextUnsupported.
	FullTextSearch(ctx context.Context, terms []string, scope domain.Scope, limit int) ([]domain.Document, error)

	// ListPublished returns up to limit documents for heuristic scoring.
	ListPublished(ctx context.Context, scope domain.Scope, limit int) ([]domain.Document, error)

	// ListMissingEmbeddings returns documents of any tenant, published or
	// not, whose vector is null.
	ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.Document, error)
}
