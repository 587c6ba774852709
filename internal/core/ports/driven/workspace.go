package driven

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// WorkspaceStore reads the independent data domains aggregated into a
// workspace snapshot. Each method is called concurrently with the others
// under its own deadline; a nil result with a nil error means the domain is
// empty.
type WorkspaceStore interface {
	GetWorkspace(ctx context.Context, workspaceID string) (*domain.WorkspaceInfo, error)
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	ListTeamMembers(ctx context.Context, projectID string) ([]domain.TeamMember, error)
	GetScopeOfWork(ctx context.Context, projectID string) (*domain.ScopeOfWork, error)
	ListPhases(ctx context.Context, projectID string) ([]domain.Phase, error)
	ListTasks(ctx context.Context, projectID string) ([]domain.Task, error)
	ListSpecs(ctx context.Context, projectID string) ([]domain.Spec, error)
	ListDecisions(ctx context.Context, projectID string) ([]domain.Decision, error)
	ListTechDebt(ctx context.Context, projectID string) ([]domain.TechDebtItem, error)
	ListMetrics(ctx context.Context, projectID string) ([]domain.Metric, error)
	ListDiscovery(ctx context.Context, projectID string) ([]domain.FieldEntry, error)
	ListStrategy(ctx context.Context, projectID string) ([]domain.FieldEntry, error)
	ListRoadmap(ctx context.Context, projectID string) ([]domain.RoadmapItem, error)
	ListStakeholders(ctx context.Context, projectID string) ([]domain.Stakeholder, error)
	ListUploads(ctx context.Context, projectID string) ([]domain.Upload, error)
	ListDashboards(ctx context.Context, projectID string) ([]domain.Dashboard, error)
}

// WorkspaceWriter loads workspace data, typically from an import file.
// SaveProject replaces every domain row of the project.
type WorkspaceWriter interface {
	SaveWorkspace(ctx context.Context, workspace domain.WorkspaceInfo) error
	SaveProject(ctx context.Context, project domain.Project, data domain.ProjectData) error
}
