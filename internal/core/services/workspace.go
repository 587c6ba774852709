package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure WorkspaceContextService implements the interface.
var _ driving.WorkspaceContextService = (*WorkspaceContextService)(nil)

// unspecifiedKey buckets rows with an empty category.
const unspecifiedKey = "unspecified"

// closedStatuses mark tasks, debt and roadmap items that need no attention.
var closedStatuses = map[string]bool{
	"done":      true,
	"completed": true,
	"closed":    true,
	"resolved":  true,
	"cancelled": true,
}

// severityRank orders tech debt, most severe first.
var severityRank = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
}

// WorkspaceContextService aggregates project data domains into a snapshot.
type WorkspaceContextService struct {
	store    driven.WorkspaceStore
	settings domain.WorkspaceSettings
	now      func() time.Time
}

// NewWorkspaceContextService creates a new workspace context service.
func NewWorkspaceContextService(
	store driven.WorkspaceStore,
	settings domain.WorkspaceSettings,
) *WorkspaceContextService {
	defaults := domain.DefaultSettings().Workspace
	if settings.QueryTimeout <= 0 {
		settings.QueryTimeout = defaults.QueryTimeout
	}
	if settings.PreviewChars <= 0 {
		settings.PreviewChars = defaults.PreviewChars
	}
	if settings.RecentItems <= 0 {
		settings.RecentItems = defaults.RecentItems
	}

	return &WorkspaceContextService{
		store:    store,
		settings: settings,
		now:      time.Now,
	}
}

// domainQuery loads one data domain into its own destination.
type domainQuery struct {
	name string
	run  func(ctx context.Context) error
}

// newDomainQuery wraps fetch so that it gives up when ctx is done even if
// the store ignores cancellation. dst is written only on success, from the
// calling goroutine.
func newDomainQuery[T any](name string, fetch func(context.Context) (T, error), dst *T) domainQuery {
	return domainQuery{
		name: name,
		run: func(ctx context.Context) error {
			type result struct {
				val T
				err error
			}
			ch := make(chan result, 1)
			go func() {
				// A panicking store degrades this domain only.
				defer func() {
					if p := recover(); p != nil {
						ch <- result{err: fmt.Errorf("%w: domain %s panicked: %v", domain.ErrStoreFailure, name, p)}
					}
				}()
				val, err := fetch(ctx)
				ch <- result{val: val, err: err}
			}()

			select {
			case r := <-ch:
				if r.err != nil {
					return r.err
				}
				*dst = r.val
				return nil
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return domain.ErrTimeout
				}
				return ctx.Err()
			}
		},
	}
}

// byID binds a store method to an entity ID.
func byID[T any](fn func(context.Context, string) (T, error), id string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return fn(ctx, id)
	}
}

// workspaceRows holds the raw result of each domain query.
type workspaceRows struct {
	workspace    *domain.WorkspaceInfo
	project      *domain.Project
	team         []domain.TeamMember
	scope        *domain.ScopeOfWork
	phases       []domain.Phase
	tasks        []domain.Task
	specs        []domain.Spec
	decisions    []domain.Decision
	techDebt     []domain.TechDebtItem
	metrics      []domain.Metric
	discovery    []domain.FieldEntry
	strategy     []domain.FieldEntry
	roadmap      []domain.RoadmapItem
	stakeholders []domain.Stakeholder
	uploads      []domain.Upload
	dashboards   []domain.Dashboard
}

// Build queries every domain concurrently, each under its own timeout, and
// reduces the rows into a snapshot. A failed or slow domain is left empty
// and listed in Unavailable. Only cancellation of ctx fails the build.
func (s *WorkspaceContextService) Build(
	ctx context.Context, projectID, workspaceID string,
) (*domain.WorkspaceSnapshot, error) {
	logger.Section("Workspace Context")
	logger.Debug("Project: %s, workspace: %s", projectID, workspaceID)

	if projectID == "" {
		return nil, fmt.Errorf("%w: project id required", domain.ErrInvalidInput)
	}

	var rows workspaceRows
	queries := []domainQuery{
		newDomainQuery(domain.DomainWorkspace, byID(s.store.GetWorkspace, workspaceID), &rows.workspace),
		newDomainQuery(domain.DomainProject, byID(s.store.GetProject, projectID), &rows.project),
		newDomainQuery(domain.DomainTeam, byID(s.store.ListTeamMembers, projectID), &rows.team),
		newDomainQuery(domain.DomainScopeOfWork, byID(s.store.GetScopeOfWork, projectID), &rows.scope),
		newDomainQuery(domain.DomainPhases, byID(s.store.ListPhases, projectID), &rows.phases),
		newDomainQuery(domain.DomainTasks, byID(s.store.ListTasks, projectID), &rows.tasks),
		newDomainQuery(domain.DomainSpecs, byID(s.store.ListSpecs, projectID), &rows.specs),
		newDomainQuery(domain.DomainDecisions, byID(s.store.ListDecisions, projectID), &rows.decisions),
		newDomainQuery(domain.DomainTechDebt, byID(s.store.ListTechDebt, projectID), &rows.techDebt),
		newDomainQuery(domain.DomainMetrics, byID(s.store.ListMetrics, projectID), &rows.metrics),
		newDomainQuery(domain.DomainDiscovery, byID(s.store.ListDiscovery, projectID), &rows.discovery),
		newDomainQuery(domain.DomainStrategy, byID(s.store.ListStrategy, projectID), &rows.strategy),
		newDomainQuery(domain.DomainRoadmap, byID(s.store.ListRoadmap, projectID), &rows.roadmap),
		newDomainQuery(domain.DomainStakeholders, byID(s.store.ListStakeholders, projectID), &rows.stakeholders),
		newDomainQuery(domain.DomainUploads, byID(s.store.ListUploads, projectID), &rows.uploads),
		newDomainQuery(domain.DomainDashboards, byID(s.store.ListDashboards, projectID), &rows.dashboards),
	}
	if workspaceID == "" {
		// No organisation to look up; the domain is simply empty.
		queries = queries[1:]
	}

	failed := make([]bool, len(queries))
	var g errgroup.Group
	if s.settings.MaxConcurrency > 0 {
		g.SetLimit(s.settings.MaxConcurrency)
	}
	for i, q := range queries {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, s.settings.QueryTimeout)
			defer cancel()

			start := time.Now()
			if err := q.run(qctx); err != nil {
				failed[i] = true
				logger.Error("Workspace domain %s unavailable: %v", q.name, err)
				return nil
			}
			logger.Debug("Workspace domain %s loaded in %s", q.name, time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := s.reduce(projectID, workspaceID, &rows)
	for i, q := range queries {
		if failed[i] {
			snapshot.Unavailable = append(snapshot.Unavailable, q.name)
		}
	}
	logger.Info("Workspace snapshot built, %d of %d domains unavailable", len(snapshot.Unavailable), len(queries))

	return snapshot, nil
}

// reduce turns raw rows into compact summaries. Empty domains stay nil.
func (s *WorkspaceContextService) reduce(projectID, workspaceID string, rows *workspaceRows) *domain.WorkspaceSnapshot {
	now := s.now()
	snapshot := &domain.WorkspaceSnapshot{
		ProjectID:   projectID,
		WorkspaceID: workspaceID,
		GeneratedAt: now,
		Workspace:   rows.workspace,
	}

	if p := rows.project; p != nil {
		snapshot.Project = &domain.ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: s.preview(p.Description),
			Status:      p.Status,
			StartDate:   p.StartDate,
			TargetDate:  p.TargetDate,
		}
	}

	phases := slices.Clone(rows.phases)
	sort.SliceStable(phases, func(i, j int) bool {
		if phases[i].Position != phases[j].Position {
			return phases[i].Position < phases[j].Position
		}
		return phases[i].Name < phases[j].Name
	})

	snapshot.Team = s.summarizeTeam(rows.team)
	snapshot.ScopeOfWork = s.summarizeScope(rows.scope, phases)
	snapshot.Phases = summarizePhases(phases)
	snapshot.Tasks = s.summarizeTasks(rows.tasks, now)
	snapshot.Specs = s.summarizeSpecs(rows.specs)
	snapshot.Decisions = s.summarizeDecisions(rows.decisions)
	snapshot.TechDebt = s.summarizeTechDebt(rows.techDebt)
	snapshot.Metrics = summarizeMetrics(rows.metrics)
	snapshot.Discovery = s.summarizeFields(rows.discovery)
	snapshot.Strategy = s.summarizeFields(rows.strategy)
	snapshot.Roadmap = s.summarizeRoadmap(rows.roadmap)
	snapshot.Stakeholders = summarizeStakeholders(rows.stakeholders)
	snapshot.Uploads = s.summarizeUploads(rows.uploads)
	snapshot.Dashboards = s.summarizeDashboards(rows.dashboards)

	return snapshot
}

func (s *WorkspaceContextService) summarizeTeam(members []domain.TeamMember) *domain.TeamSummary {
	if len(members) == 0 {
		return nil
	}
	sorted := slices.Clone(members)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &domain.TeamSummary{
		Total:   len(members),
		ByRole:  countBy(members, func(m domain.TeamMember) string { return m.Role }),
		Members: sorted,
	}
}

// summarizeScope also suggests dates for the active phases when the scope
// has a complete timeline.
func (s *WorkspaceContextService) summarizeScope(scope *domain.ScopeOfWork, phases []domain.Phase) *domain.ScopeSummary {
	if scope == nil {
		return nil
	}
	summary := &domain.ScopeSummary{
		Title:        scope.Title,
		Summary:      s.preview(scope.Summary),
		Deliverables: scope.Deliverables,
		StartDate:    scope.StartDate,
		EndDate:      scope.EndDate,
	}
	if scope.StartDate != nil && scope.EndDate != nil {
		var active []domain.Phase
		for i := range phases {
			if phases[i].IsActive() {
				active = append(active, phases[i])
			}
		}
		summary.SuggestedDates = domain.SuggestPhaseDates(*scope.StartDate, *scope.EndDate, active)
	}
	return summary
}

func summarizePhases(phases []domain.Phase) *domain.PhaseSummary {
	if len(phases) == 0 {
		return nil
	}
	active := 0
	for i := range phases {
		if phases[i].IsActive() {
			active++
		}
	}
	return &domain.PhaseSummary{
		Total:    len(phases),
		Active:   active,
		ByStatus: countBy(phases, func(p domain.Phase) string { return p.Status }),
		Phases:   phases,
	}
}

func (s *WorkspaceContextService) summarizeTasks(tasks []domain.Task, now time.Time) *domain.TaskSummary {
	if len(tasks) == 0 {
		return nil
	}
	overdue := 0
	for i := range tasks {
		if tasks[i].DueDate != nil && tasks[i].DueDate.Before(now) && !closedStatuses[tasks[i].Status] {
			overdue++
		}
	}

	recent := mostRecent(tasks, s.settings.RecentItems, func(t domain.Task) time.Time { return t.UpdatedAt })
	for i := range recent {
		recent[i].Description = s.preview(recent[i].Description)
	}

	return &domain.TaskSummary{
		Total:      len(tasks),
		Overdue:    overdue,
		ByStatus:   countBy(tasks, func(t domain.Task) string { return t.Status }),
		ByPriority: countBy(tasks, func(t domain.Task) string { return t.Priority }),
		Recent:     recent,
	}
}

func (s *WorkspaceContextService) summarizeSpecs(specs []domain.Spec) *domain.SpecSummary {
	if len(specs) == 0 {
		return nil
	}
	recent := mostRecent(specs, s.settings.RecentItems, func(sp domain.Spec) time.Time { return sp.UpdatedAt })
	for i := range recent {
		recent[i].Content = s.preview(recent[i].Content)
	}
	return &domain.SpecSummary{
		Total:  len(specs),
		ByKind: countBy(specs, func(sp domain.Spec) string { return sp.Kind }),
		Recent: recent,
	}
}

func (s *WorkspaceContextService) summarizeDecisions(decisions []domain.Decision) *domain.DecisionSummary {
	if len(decisions) == 0 {
		return nil
	}
	recent := mostRecent(decisions, s.settings.RecentItems, func(d domain.Decision) time.Time { return d.UpdatedAt })
	for i := range recent {
		recent[i].Context = s.preview(recent[i].Context)
		recent[i].Outcome = s.preview(recent[i].Outcome)
	}
	return &domain.DecisionSummary{
		Total:    len(decisions),
		ByStatus: countBy(decisions, func(d domain.Decision) string { return d.Status }),
		Recent:   recent,
	}
}

func (s *WorkspaceContextService) summarizeTechDebt(items []domain.TechDebtItem) *domain.TechDebtSummary {
	if len(items) == 0 {
		return nil
	}
	var open []domain.TechDebtItem
	for i := range items {
		if !closedStatuses[items[i].Status] {
			open = append(open, items[i])
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		ri, rj := rankSeverity(open[i].Severity), rankSeverity(open[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return open[i].UpdatedAt.After(open[j].UpdatedAt)
	})
	if len(open) > s.settings.RecentItems {
		open = open[:s.settings.RecentItems]
	}
	for i := range open {
		open[i].Description = s.preview(open[i].Description)
	}

	openCount := 0
	for i := range items {
		if !closedStatuses[items[i].Status] {
			openCount++
		}
	}
	return &domain.TechDebtSummary{
		Total:      len(items),
		Open:       openCount,
		BySeverity: countBy(items, func(d domain.TechDebtItem) string { return d.Severity }),
		Top:        open,
	}
}

func summarizeMetrics(metrics []domain.Metric) *domain.MetricSummary {
	if len(metrics) == 0 {
		return nil
	}
	sorted := slices.Clone(metrics)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	onTarget := 0
	for i := range metrics {
		if metrics[i].Target > 0 && metrics[i].Current >= metrics[i].Target {
			onTarget++
		}
	}
	return &domain.MetricSummary{
		Total:    len(metrics),
		OnTarget: onTarget,
		Metrics:  sorted,
	}
}

func (s *WorkspaceContextService) summarizeFields(fields []domain.FieldEntry) *domain.FieldSummary {
	if len(fields) == 0 {
		return nil
	}
	sorted := slices.Clone(fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for i := range sorted {
		sorted[i].Value = s.preview(sorted[i].Value)
	}
	return &domain.FieldSummary{Fields: sorted}
}

func (s *WorkspaceContextService) summarizeRoadmap(items []domain.RoadmapItem) *domain.RoadmapSummary {
	if len(items) == 0 {
		return nil
	}
	var upcoming []domain.RoadmapItem
	for i := range items {
		if !closedStatuses[items[i].Status] {
			upcoming = append(upcoming, items[i])
		}
	}
	// Dated items first, soonest first.
	sort.SliceStable(upcoming, func(i, j int) bool {
		a, b := upcoming[i].TargetDate, upcoming[j].TargetDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	if len(upcoming) > s.settings.RecentItems {
		upcoming = upcoming[:s.settings.RecentItems]
	}
	return &domain.RoadmapSummary{
		Total:    len(items),
		ByStatus: countBy(items, func(r domain.RoadmapItem) string { return r.Status }),
		Upcoming: upcoming,
	}
}

func summarizeStakeholders(stakeholders []domain.Stakeholder) *domain.StakeholderSummary {
	if len(stakeholders) == 0 {
		return nil
	}
	sorted := slices.Clone(stakeholders)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &domain.StakeholderSummary{
		Total:        len(stakeholders),
		ByInfluence:  countBy(stakeholders, func(sh domain.Stakeholder) string { return sh.Influence }),
		Stakeholders: sorted,
	}
}

func (s *WorkspaceContextService) summarizeUploads(uploads []domain.Upload) *domain.UploadSummary {
	if len(uploads) == 0 {
		return nil
	}
	var total int64
	for i := range uploads {
		total += uploads[i].SizeBytes
	}
	return &domain.UploadSummary{
		Total:      len(uploads),
		TotalBytes: total,
		Recent:     mostRecent(uploads, s.settings.RecentItems, func(u domain.Upload) time.Time { return u.UploadedAt }),
	}
}

func (s *WorkspaceContextService) summarizeDashboards(dashboards []domain.Dashboard) *domain.DashboardSummary {
	if len(dashboards) == 0 {
		return nil
	}
	sorted := slices.Clone(dashboards)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for i := range sorted {
		sorted[i].Description = s.preview(sorted[i].Description)
	}
	return &domain.DashboardSummary{
		Total:      len(dashboards),
		Dashboards: sorted,
	}
}

// preview caps text at PreviewChars characters, marking the cut with an
// ellipsis.
func (s *WorkspaceContextService) preview(text string) string {
	cut := truncateRunes(text, s.settings.PreviewChars)
	if cut == text {
		return text
	}
	return cut + ellipsis
}

// countBy buckets items by key, largest bucket first, then by key.
func countBy[T any](items []T, key func(T) string) []domain.CountEntry {
	counts := make(map[string]int)
	for _, item := range items {
		k := key(item)
		if k == "" {
			k = unspecifiedKey
		}
		counts[k]++
	}

	entries := make([]domain.CountEntry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, domain.CountEntry{Key: k, Count: c})
	}
	slices.SortFunc(entries, func(a, b domain.CountEntry) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries
}

// mostRecent returns a copy of the n items with the latest timestamps.
func mostRecent[T any](items []T, n int, at func(T) time.Time) []T {
	sorted := slices.Clone(items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return at(sorted[i]).After(at(sorted[j]))
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func rankSeverity(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return len(severityRank)
}
