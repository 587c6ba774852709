package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedProject(t *testing.T, store *Store) {
	t.Helper()
	writer := store.WorkspaceWriter()
	ctx := context.Background()
	updated := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, writer.SaveWorkspace(ctx, domain.WorkspaceInfo{ID: "ws-1", Name: "Acme", Description: "Payments"}))
	require.NoError(t, writer.SaveProject(ctx,
		domain.Project{ID: "proj-1", WorkspaceID: "ws-1", Name: "Billing revamp", Status: "active",
			StartDate: date(2024, 1, 1), TargetDate: date(2024, 6, 30)},
		domain.ProjectData{
			Team: []domain.TeamMember{
				{ID: "u1", Name: "Ana", Role: "engineer"},
				{ID: "u2", Name: "Bo", Role: "pm"},
			},
			ScopeOfWork: &domain.ScopeOfWork{ID: "sow", Title: "Billing", Deliverables: []string{"API", "UI"},
				StartDate: date(2024, 1, 1), EndDate: date(2024, 3, 1)},
			Phases: []domain.Phase{
				{ID: "ph-1", Name: "Discovery rollout", Description: "Billing research", Status: "completed", Position: 1},
				{ID: "ph-2", Name: "Build", Status: "active", Position: 2},
			},
			Tasks: []domain.Task{
				{ID: "t-1", PhaseID: "ph-2", Title: "Refund endpoint", Description: "Partial refunds",
					Status: "open", Priority: "high", DueDate: date(2024, 2, 10), UpdatedAt: updated},
				{ID: "t-2", Title: "Invoice export", Status: "done"},
			},
			Specs:     []domain.Spec{{ID: "s-1", Title: "API spec", Kind: "api", UpdatedAt: updated}},
			Decisions: []domain.Decision{{ID: "d-1", Title: "Use Stripe", Outcome: "accepted"}},
			TechDebt:  []domain.TechDebtItem{{ID: "td-1", Title: "Legacy cron", Severity: "high", Status: "open"}},
			Metrics:   []domain.Metric{{ID: "m-1", Name: "Latency", Unit: "ms", Current: 120.5, Target: 100}},
			Discovery: []domain.FieldEntry{{Key: "problem", Value: "Manual refunds"}},
			Strategy:  []domain.FieldEntry{{Key: "goal", Value: "Self-serve"}},
			Roadmap:   []domain.RoadmapItem{{ID: "r-1", Title: "GA", Quarter: "Q2", TargetDate: date(2024, 6, 1)}},
			Stakeholders: []domain.Stakeholder{
				{ID: "sh-1", Name: "CFO", Influence: "high"},
			},
			Uploads:    []domain.Upload{{ID: "up-1", FileName: "plan.pdf", SizeBytes: 2048, UploadedAt: updated}},
			Dashboards: []domain.Dashboard{{ID: "db-1", Name: "Billing health", Description: "Refund rates", WidgetCount: 4}},
		},
	))
}

func TestWorkspaceStore_Reads(t *testing.T) {
	store := setupTestStore(t)
	seedProject(t, store)
	ws := store.WorkspaceStore()
	ctx := context.Background()

	w, err := ws.GetWorkspace(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", w.Name)

	p, err := ws.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Billing revamp", p.Name)
	require.NotNil(t, p.StartDate)
	assert.True(t, date(2024, 1, 1).Equal(*p.StartDate))

	team, err := ws.ListTeamMembers(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, team, 2)
	assert.Equal(t, "Ana", team[0].Name)

	sow, err := ws.GetScopeOfWork(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"API", "UI"}, sow.Deliverables)
	assert.True(t, date(2024, 3, 1).Equal(*sow.EndDate))

	phases, err := ws.ListPhases(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, phases, 2)
	assert.Equal(t, "proj-1", phases[0].ProjectID)
	assert.Nil(t, phases[0].StartDate)

	tasks, err := ws.ListTasks(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "ph-2", tasks[0].PhaseID)
	assert.True(t, date(2024, 2, 10).Equal(*tasks[0].DueDate))
	assert.True(t, tasks[1].UpdatedAt.IsZero())
	assert.Nil(t, tasks[1].DueDate)

	metrics, err := ws.ListMetrics(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, 120.5, metrics[0].Current)

	discovery, err := ws.ListDiscovery(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Manual refunds", discovery[0].Value)

	strategy, err := ws.ListStrategy(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, strategy, 1)
	assert.Equal(t, "goal", strategy[0].Key)

	uploads, err := ws.ListUploads(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), uploads[0].SizeBytes)

	dashboards, err := ws.ListDashboards(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 4, dashboards[0].WidgetCount)

	specs, err := ws.ListSpecs(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, specs, 1)

	decisions, err := ws.ListDecisions(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, decisions, 1)

	debt, err := ws.ListTechDebt(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, debt, 1)

	roadmap, err := ws.ListRoadmap(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, roadmap, 1)
	assert.Equal(t, "Q2", roadmap[0].Quarter)

	stakeholders, err := ws.ListStakeholders(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, stakeholders, 1)
}

func TestWorkspaceStore_MissingRowsAreEmpty(t *testing.T) {
	store := setupTestStore(t)
	ws := store.WorkspaceStore()
	ctx := context.Background()

	w, err := ws.GetWorkspace(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, w)

	p, err := ws.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	sow, err := ws.GetScopeOfWork(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, sow)

	tasks, err := ws.ListTasks(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestWorkspaceStore_SaveProjectReplacesRows(t *testing.T) {
	store := setupTestStore(t)
	seedProject(t, store)
	ctx := context.Background()

	require.NoError(t, store.WorkspaceWriter().SaveProject(ctx,
		domain.Project{ID: "proj-1", WorkspaceID: "ws-1", Name: "Renamed"},
		domain.ProjectData{Tasks: []domain.Task{{ID: "t-9", Title: "Only task"}}},
	))

	ws := store.WorkspaceStore()
	p, err := ws.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)

	tasks, err := ws.ListTasks(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t-9", tasks[0].ID)

	team, err := ws.ListTeamMembers(ctx, "proj-1")
	require.NoError(t, err)
	assert.Empty(t, team)

	sow, err := ws.GetScopeOfWork(ctx, "proj-1")
	require.NoError(t, err)
	assert.Nil(t, sow)
}

func TestWorkspaceStore_SaveProjectRollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	seedProject(t, store)
	ctx := context.Background()

	// Duplicate task IDs violate the primary key.
	err := store.WorkspaceWriter().SaveProject(ctx,
		domain.Project{ID: "proj-1", WorkspaceID: "ws-1", Name: "Broken"},
		domain.ProjectData{Tasks: []domain.Task{{ID: "dup"}, {ID: "dup"}}},
	)
	require.Error(t, err)

	p, err := store.WorkspaceStore().GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Billing revamp", p.Name)
}

func TestWorkspaceStore_ListRelationTargets(t *testing.T) {
	store := setupTestStore(t)
	seedProject(t, store)
	ctx := context.Background()
	require.NoError(t, store.WorkspaceWriter().SaveProject(ctx,
		domain.Project{ID: "proj-2", WorkspaceID: "ws-2"},
		domain.ProjectData{Tasks: []domain.Task{{ID: "foreign", Title: "Refund endpoint"}}},
	))
	rel := store.RelationStore()

	tasks, err := rel.ListRelationTargets(ctx, domain.RelationTask, "ws-1", 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.RelationTarget{
		Kind: domain.RelationTask, ID: "t-1", Title: "Refund endpoint", Text: "Partial refunds",
	}, tasks[0])

	phases, err := rel.ListRelationTargets(ctx, domain.RelationPhase, "ws-1", 1)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, "Discovery rollout", phases[0].Title)

	dashboards, err := rel.ListRelationTargets(ctx, domain.RelationDashboard, "ws-1", 0)
	require.NoError(t, err)
	require.Len(t, dashboards, 1)
	assert.Equal(t, "Refund rates", dashboards[0].Text)

	_, err = rel.ListRelationTargets(ctx, domain.RelationDocument, "ws-1", 10)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
