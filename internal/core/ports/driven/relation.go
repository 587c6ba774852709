package driven

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// RelationStore lists entities a document can be related to without
// embeddings. Targets are limited to projects of the given tenant.
type RelationStore interface {
	ListRelationTargets(
		ctx context.Context, kind domain.RelationKind, tenantID string, limit int,
	) ([]domain.RelationTarget, error)
}
