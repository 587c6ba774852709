package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

// Ensure WorkspaceStore implements the interfaces.
var (
	_ driven.WorkspaceStore  = (*WorkspaceStore)(nil)
	_ driven.RelationStore   = (*WorkspaceStore)(nil)
	_ driven.WorkspaceWriter = (*WorkspaceStore)(nil)
)

// WorkspaceStore is an in-memory implementation of driven.WorkspaceStore
// and driven.RelationStore.
type WorkspaceStore struct {
	mu         sync.RWMutex
	workspaces map[string]domain.WorkspaceInfo
	projects   map[string]domain.Project
	data       map[string]domain.ProjectData
}

// NewWorkspaceStore creates a new in-memory workspace store.
func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{
		workspaces: make(map[string]domain.WorkspaceInfo),
		projects:   make(map[string]domain.Project),
		data:       make(map[string]domain.ProjectData),
	}
}

// SaveWorkspace stores an organisation.
func (s *WorkspaceStore) SaveWorkspace(_ context.Context, w domain.WorkspaceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[w.ID] = w
	return nil
}

// SaveProject stores a project and replaces all of its domain rows.
func (s *WorkspaceStore) SaveProject(_ context.Context, p domain.Project, data domain.ProjectData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	s.data[p.ID] = data
	return nil
}

// GetWorkspace returns the organisation, or nil if unknown.
func (s *WorkspaceStore) GetWorkspace(_ context.Context, workspaceID string) (*domain.WorkspaceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// GetProject returns the project, or nil if unknown.
func (s *WorkspaceStore) GetProject(_ context.Context, projectID string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListTeamMembers returns the project team.
func (s *WorkspaceStore) ListTeamMembers(_ context.Context, projectID string) ([]domain.TeamMember, error) {
	return slices.Clone(s.project(projectID).Team), nil
}

// GetScopeOfWork returns the scope of work, or nil if none.
func (s *WorkspaceStore) GetScopeOfWork(_ context.Context, projectID string) (*domain.ScopeOfWork, error) {
	scope := s.project(projectID).ScopeOfWork
	if scope == nil {
		return nil, nil
	}
	cp := *scope
	return &cp, nil
}

// ListPhases returns the project phases.
func (s *WorkspaceStore) ListPhases(_ context.Context, projectID string) ([]domain.Phase, error) {
	return slices.Clone(s.project(projectID).Phases), nil
}

// ListTasks returns the project tasks.
func (s *WorkspaceStore) ListTasks(_ context.Context, projectID string) ([]domain.Task, error) {
	return slices.Clone(s.project(projectID).Tasks), nil
}

// ListSpecs returns the project specs.
func (s *WorkspaceStore) ListSpecs(_ context.Context, projectID string) ([]domain.Spec, error) {
	return slices.Clone(s.project(projectID).Specs), nil
}

// ListDecisions returns the project decisions.
func (s *WorkspaceStore) ListDecisions(_ context.Context, projectID string) ([]domain.Decision, error) {
	return slices.Clone(s.project(projectID).Decisions), nil
}

// ListTechDebt returns the project tech debt.
func (s *WorkspaceStore) ListTechDebt(_ context.Context, projectID string) ([]domain.TechDebtItem, error) {
	return slices.Clone(s.project(projectID).TechDebt), nil
}

// ListMetrics returns the project metrics.
func (s *WorkspaceStore) ListMetrics(_ context.Context, projectID string) ([]domain.Metric, error) {
	return slices.Clone(s.project(projectID).Metrics), nil
}

// ListDiscovery returns the project discovery fields.
func (s *WorkspaceStore) ListDiscovery(_ context.Context, projectID string) ([]domain.FieldEntry, error) {
	return slices.Clone(s.project(projectID).Discovery), nil
}

// ListStrategy returns the project strategy fields.
func (s *WorkspaceStore) ListStrategy(_ context.Context, projectID string) ([]domain.FieldEntry, error) {
	return slices.Clone(s.project(projectID).Strategy), nil
}

// ListRoadmap returns the project roadmap.
func (s *WorkspaceStore) ListRoadmap(_ context.Context, projectID string) ([]domain.RoadmapItem, error) {
	return slices.Clone(s.project(projectID).Roadmap), nil
}

// ListStakeholders returns the project stakeholders.
func (s *WorkspaceStore) ListStakeholders(_ context.Context, projectID string) ([]domain.Stakeholder, error) {
	return slices.Clone(s.project(projectID).Stakeholders), nil
}

// ListUploads returns the project uploads.
func (s *WorkspaceStore) ListUploads(_ context.Context, projectID string) ([]domain.Upload, error) {
	return slices.Clone(s.project(projectID).Uploads), nil
}

// ListDashboards returns the project dashboards.
func (s *WorkspaceStore) ListDashboards(_ context.Context, projectID string) ([]domain.Dashboard, error) {
	return slices.Clone(s.project(projectID).Dashboards), nil
}

// ListRelationTargets returns tasks, phases or dashboards from every project
// of the tenant, ordered by project ID.
func (s *WorkspaceStore) ListRelationTargets(
	_ context.Context, kind domain.RelationKind, tenantID string, limit int,
) ([]domain.RelationTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projectIDs []string
	for id, p := range s.projects {
		if p.WorkspaceID == tenantID {
			projectIDs = append(projectIDs, id)
		}
	}
	sort.Strings(projectIDs)

	var out []domain.RelationTarget
	for _, id := range projectIDs {
		data := s.data[id]
		switch kind {
		case domain.RelationTask:
			for _, t := range data.Tasks {
				out = append(out, relationTarget(kind, t.ID, t.Title, t.Description))
			}
		case domain.RelationPhase:
			for _, p := range data.Phases {
				out = append(out, relationTarget(kind, p.ID, p.Name, p.Description))
			}
		case domain.RelationDashboard:
			for _, d := range data.Dashboards {
				out = append(out, relationTarget(kind, d.ID, d.Name, d.Description))
			}
		default:
			return nil, domain.ErrUnsupportedType
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *WorkspaceStore) project(projectID string) domain.ProjectData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[projectID]
}

func relationTarget(kind domain.RelationKind, id, title string, fields ...string) domain.RelationTarget {
	return domain.RelationTarget{
		Kind:  kind,
		ID:    id,
		Title: title,
		Text:  strings.Join(fields, " "),
	}
}
