package driving

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// RelationService discovers entities related to a document.
type RelationService interface {
	// RelatedDocuments returns up to limit documents ranked by embedding
	// similarity to the source document, honouring its scope.
	RelatedDocuments(ctx context.Context, documentID string, limit int) ([]domain.RelatedDocument, error)

	// RelatedItems returns up to limit tasks, phases or dashboards of the
	// tenant that share keywords with the source document.
	RelatedItems(
		ctx context.Context, documentID string, kind domain.RelationKind, tenantID string, limit int,
	) ([]domain.RelatedItem, error)
}
