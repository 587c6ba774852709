package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projctx/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/projctx/internal/core/domain"
)

var testNow = time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedWorkspace() *memory.WorkspaceStore {
	store := memory.NewWorkspaceStore()
	_ = store.SaveWorkspace(context.Background(), domain.WorkspaceInfo{ID: "ws-1", Name: "Acme", Description: "Payments company"})
	_ = store.SaveProject(
		context.Background(),
		domain.Project{ID: "proj-1", WorkspaceID: "ws-1", Name: "Billing revamp", Status: "active"},
		domain.ProjectData{
			Team: []domain.TeamMember{
				{ID: "u1", Name: "Sam", Role: "engineer"},
				{ID: "u2", Name: "Alex", Role: "engineer"},
				{ID: "u3", Name: "Kim", Role: "pm"},
			},
			ScopeOfWork: &domain.ScopeOfWork{
				Title:        "Billing v2",
				Deliverables: []string{"Refund API"},
				StartDate:    date(2024, 1, 1),
				EndDate:      date(2024, 1, 31),
			},
			Phases: []domain.Phase{
				{ID: "p3", Name: "Launch", Position: 3},
				{ID: "p1", Name: "Discovery", Position: 1},
				{ID: "p0", Name: "Kickoff", Position: 0, Status: domain.PhaseStatusCompleted},
				{ID: "p2", Name: "Build", Position: 2, Status: "in_progress"},
			},
			Tasks: []domain.Task{
				{ID: "t1", Title: "Old", Status: "todo", Priority: "high", DueDate: date(2024, 2, 1), UpdatedAt: testNow.Add(-72 * time.Hour)},
				{ID: "t2", Title: "Done late", Status: "done", Priority: "low", DueDate: date(2024, 2, 1), UpdatedAt: testNow.Add(-time.Hour)},
				{ID: "t3", Title: "Future", Status: "todo", Priority: "high", DueDate: date(2024, 3, 1), UpdatedAt: testNow},
			},
			Specs: []domain.Spec{{ID: "s1", Title: "Refund API", Kind: "api", Content: strings.Repeat("z", 600)}},
			TechDebt: []domain.TechDebtItem{
				{ID: "d1", Title: "Minor", Severity: "low", Status: "open"},
				{ID: "d2", Title: "Outage risk", Severity: "critical", Status: "open"},
				{ID: "d3", Title: "Fixed", Severity: "high", Status: "resolved"},
			},
			Metrics: []domain.Metric{
				{ID: "m1", Name: "Uptime", Unit: "%", Current: 99.95, Target: 99.9},
				{ID: "m2", Name: "Churn", Unit: "%", Current: 3, Target: 5},
			},
			Discovery:  []domain.FieldEntry{{Key: "problem", Value: "Refunds are manual"}},
			Roadmap:    []domain.RoadmapItem{{ID: "r1", Title: "GA", Status: "planned", TargetDate: date(2024, 4, 1)}},
			Uploads:    []domain.Upload{{ID: "f1", FileName: "spec.pdf", SizeBytes: 100}, {ID: "f2", FileName: "a.png", SizeBytes: 50}},
			Dashboards: []domain.Dashboard{{ID: "db1", Name: "Revenue", WidgetCount: 4}},
		},
	)
	return store
}

func newTestWorkspaceService(store *mockWorkspaceStore, settings domain.WorkspaceSettings) *WorkspaceContextService {
	s := NewWorkspaceContextService(store, settings)
	s.now = func() time.Time { return testNow }
	return s
}

func TestNewWorkspaceContextService_Defaults(t *testing.T) {
	s := NewWorkspaceContextService(memory.NewWorkspaceStore(), domain.WorkspaceSettings{})

	assert.Equal(t, domain.DefaultQueryTimeout, s.settings.QueryTimeout)
	assert.Equal(t, domain.DefaultPreviewChars, s.settings.PreviewChars)
	assert.Equal(t, domain.DefaultRecentItems, s.settings.RecentItems)
}

func TestWorkspaceContextService_Build_AllDomains(t *testing.T) {
	s := newTestWorkspaceService(&mockWorkspaceStore{WorkspaceStore: seedWorkspace()}, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)

	assert.Empty(t, snap.Unavailable)
	assert.Equal(t, testNow, snap.GeneratedAt)
	require.NotNil(t, snap.Workspace)
	assert.Equal(t, "Acme", snap.Workspace.Name)
	require.NotNil(t, snap.Project)
	assert.Equal(t, "Billing revamp", snap.Project.Name)

	require.NotNil(t, snap.Team)
	assert.Equal(t, 3, snap.Team.Total)
	assert.Equal(t, []domain.CountEntry{{Key: "engineer", Count: 2}, {Key: "pm", Count: 1}}, snap.Team.ByRole)

	require.NotNil(t, snap.Phases)
	assert.Equal(t, 4, snap.Phases.Total)
	assert.Equal(t, 3, snap.Phases.Active)
	assert.Equal(t, "Kickoff", snap.Phases.Phases[0].Name)

	require.NotNil(t, snap.Tasks)
	assert.Equal(t, 3, snap.Tasks.Total)
	assert.Equal(t, 1, snap.Tasks.Overdue)
	assert.Equal(t, []domain.CountEntry{{Key: "high", Count: 2}, {Key: "low", Count: 1}}, snap.Tasks.ByPriority)
	assert.Equal(t, "t3", snap.Tasks.Recent[0].ID)

	require.NotNil(t, snap.TechDebt)
	assert.Equal(t, 2, snap.TechDebt.Open)
	assert.Equal(t, "d2", snap.TechDebt.Top[0].ID)

	require.NotNil(t, snap.Metrics)
	assert.Equal(t, 1, snap.Metrics.OnTarget)

	require.NotNil(t, snap.Uploads)
	assert.Equal(t, int64(150), snap.Uploads.TotalBytes)

	require.NotNil(t, snap.Dashboards)
	require.NotNil(t, snap.Discovery)
	require.NotNil(t, snap.Roadmap)

	// Empty domains stay nil
	assert.Nil(t, snap.Decisions)
	assert.Nil(t, snap.Strategy)
	assert.Nil(t, snap.Stakeholders)
}

func TestWorkspaceContextService_Build_SuggestsPhaseDates(t *testing.T) {
	s := newTestWorkspaceService(&mockWorkspaceStore{WorkspaceStore: seedWorkspace()}, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)
	require.NotNil(t, snap.ScopeOfWork)

	// Three active phases across Jan 1 to Jan 31, completed kickoff skipped
	suggestions := snap.ScopeOfWork.SuggestedDates
	require.Len(t, suggestions, 3)
	assert.Equal(t, "Discovery", suggestions[0].PhaseName)
	assert.Equal(t, *date(2024, 1, 1), suggestions[0].StartDate)
	assert.Equal(t, *date(2024, 1, 11), suggestions[0].EndDate)
	assert.Equal(t, "Launch", suggestions[2].PhaseName)
	assert.False(t, suggestions[2].EndDate.After(*date(2024, 1, 31)))
}

func TestWorkspaceContextService_Build_CapsPreviews(t *testing.T) {
	s := newTestWorkspaceService(&mockWorkspaceStore{WorkspaceStore: seedWorkspace()}, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)
	require.NotNil(t, snap.Specs)

	content := snap.Specs.Recent[0].Content
	assert.Equal(t, 500+len(ellipsis), utf8.RuneCountInString(content))
	assert.True(t, strings.HasSuffix(content, ellipsis))
}

func TestWorkspaceContextService_Build_FailingDomainDegrades(t *testing.T) {
	store := &mockWorkspaceStore{WorkspaceStore: seedWorkspace(), tasksErr: errors.New("relation \"tasks\" does not exist")}
	s := newTestWorkspaceService(store, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)

	assert.Nil(t, snap.Tasks)
	assert.Equal(t, []string{domain.DomainTasks}, snap.Unavailable)
	assert.NotNil(t, snap.Project)
	assert.NotNil(t, snap.Phases)
	assert.NotNil(t, snap.Specs)
}

func TestWorkspaceContextService_Build_SlowDomainTimesOut(t *testing.T) {
	store := &mockWorkspaceStore{WorkspaceStore: seedWorkspace(), specsDelay: 500 * time.Millisecond}
	s := newTestWorkspaceService(store, domain.WorkspaceSettings{QueryTimeout: 20 * time.Millisecond})

	start := time.Now()
	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 400*time.Millisecond)
	assert.Nil(t, snap.Specs)
	assert.Contains(t, snap.Unavailable, domain.DomainSpecs)
	assert.NotNil(t, snap.Tasks)
	assert.NotNil(t, snap.Team)
}

func TestWorkspaceContextService_Build_PanickingDomainDegrades(t *testing.T) {
	captureLog(t)
	store := &mockWorkspaceStore{WorkspaceStore: seedWorkspace(), decisionsPanics: true}
	s := newTestWorkspaceService(store, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)

	assert.Nil(t, snap.Decisions)
	assert.Equal(t, []string{domain.DomainDecisions}, snap.Unavailable)
	assert.NotNil(t, snap.Tasks)
	assert.NotNil(t, snap.Specs)
}

func TestWorkspaceContextService_Build_LogsUnavailableDomainsWithoutVerbose(t *testing.T) {
	buf := captureLog(t)
	store := &mockWorkspaceStore{
		WorkspaceStore: seedWorkspace(),
		tasksErr:       errors.New("connection reset"),
		specsDelay:     200 * time.Millisecond,
	}
	s := newTestWorkspaceService(store, domain.WorkspaceSettings{QueryTimeout: 20 * time.Millisecond})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.DomainTasks, domain.DomainSpecs}, snap.Unavailable)

	out := buf.String()
	assert.Contains(t, out, "[ERROR] Workspace domain tasks unavailable: connection reset")
	assert.Contains(t, out, "[ERROR] Workspace domain specs unavailable: "+domain.ErrTimeout.Error())
}

func TestWorkspaceContextService_Build_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestWorkspaceService(&mockWorkspaceStore{WorkspaceStore: seedWorkspace()}, domain.WorkspaceSettings{})

	_, err := s.Build(ctx, "proj-1", "ws-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkspaceContextService_Build_RequiresProject(t *testing.T) {
	s := newTestWorkspaceService(&mockWorkspaceStore{WorkspaceStore: seedWorkspace()}, domain.WorkspaceSettings{})

	_, err := s.Build(context.Background(), "", "ws-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWorkspaceContextService_Build_UnknownProjectIsEmpty(t *testing.T) {
	s := newTestWorkspaceService(&mockWorkspaceStore{WorkspaceStore: seedWorkspace()}, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "nope", "")
	require.NoError(t, err)
	assert.Nil(t, snap.Project)
	assert.Nil(t, snap.Workspace)
	assert.Nil(t, snap.Tasks)
	assert.Empty(t, snap.Unavailable)
}

func TestWorkspaceContextService_Format(t *testing.T) {
	store := &mockWorkspaceStore{WorkspaceStore: seedWorkspace(), tasksErr: errors.New("boom")}
	s := newTestWorkspaceService(store, domain.WorkspaceSettings{})

	snap, err := s.Build(context.Background(), "proj-1", "ws-1")
	require.NoError(t, err)

	text := s.Format(snap)
	assert.Equal(t, text, s.Format(snap))

	order := []string{
		"## Workspace", "## Project", "## Team (3)", "## Scope of Work", "## Phases (4 total, 3 active)",
		"## Specs (1)", "## Technical Debt (3 total, 2 open)", "## Metrics (2, 1 on target)",
		"## Discovery", "## Roadmap (1)", "## Uploads (2 files, 150 bytes)", "## Dashboards (1)",
		"## Unavailable Data",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(text, heading)
		require.GreaterOrEqual(t, idx, 0, "missing %q", heading)
		assert.Greater(t, idx, last, "%q out of order", heading)
		last = idx
	}

	assert.NotContains(t, text, "## Tasks")
	assert.NotContains(t, text, "## Decisions")
	assert.NotContains(t, text, "## Strategy")
	assert.Contains(t, text, "could not be loaded: tasks")
	assert.Contains(t, text, "- Discovery: 2024-01-01 to 2024-01-11")
	assert.Contains(t, text, "By role: engineer 2, pm 1")
	assert.Contains(t, text, "- Uptime: 99.95 / 99.9 %")
}

func TestFormatWorkspace_Nil(t *testing.T) {
	assert.Empty(t, FormatWorkspace(nil))
}

func TestFormatWorkspace_Minimal(t *testing.T) {
	text := FormatWorkspace(&domain.WorkspaceSnapshot{ProjectID: "proj-1"})

	assert.Equal(t, "# Project Context\nProject ID: proj-1\n", text)
}

func TestCountBy(t *testing.T) {
	counts := countBy([]string{"b", "a", "", "b", "a", "c"}, func(s string) string { return s })

	assert.Equal(t, []domain.CountEntry{
		{Key: "a", Count: 2},
		{Key: "b", Count: 2},
		{Key: "c", Count: 1},
		{Key: unspecifiedKey, Count: 1},
	}, counts)
}
