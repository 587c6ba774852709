package driving

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// WorkspaceContextService builds project snapshots for prompting.
type WorkspaceContextService interface {
	// Build aggregates every data domain of a project. Individual domain
	// failures leave that section empty; only cancellation of ctx fails
	// the call.
	Build(ctx context.Context, projectID, workspaceID string) (*domain.WorkspaceSnapshot, error)

	// Format serializes a snapshot into prompt text. Output is deterministic.
	Format(snapshot *domain.WorkspaceSnapshot) string
}
