package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

// workspaceStore implements driven.WorkspaceStore, driven.RelationStore and
// driven.WorkspaceWriter.
type workspaceStore struct {
	store *Store
}

var (
	_ driven.WorkspaceStore  = (*workspaceStore)(nil)
	_ driven.RelationStore   = (*workspaceStore)(nil)
	_ driven.WorkspaceWriter = (*workspaceStore)(nil)
)

// Field domains stored in project_fields.
const (
	fieldDomainDiscovery = "discovery"
	fieldDomainStrategy  = "strategy"
)

// projectTables lists every per-project child table, cleared on SaveProject.
var projectTables = []string{
	"team_members", "scopes_of_work", "phases", "tasks", "specs", "decisions",
	"tech_debt", "metrics", "project_fields", "roadmap_items", "stakeholders",
	"uploads", "dashboards",
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](
	ctx context.Context, db *sql.DB, scan func(rowScanner) (T, error), query string, args ...any,
) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ==================== Reads ====================

// GetWorkspace returns the organisation, or nil if unknown.
func (s *workspaceStore) GetWorkspace(ctx context.Context, workspaceID string) (*domain.WorkspaceInfo, error) {
	var w domain.WorkspaceInfo
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM workspaces WHERE id = ?", workspaceID,
	).Scan(&w.ID, &w.Name, &w.Description)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting workspace: %w", err)
	}
	return &w, nil
}

// GetProject returns the project, or nil if unknown.
func (s *workspaceStore) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	var p domain.Project
	var start, target sql.NullTime
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, name, description, status, start_date, target_date
		FROM projects WHERE id = ?
	`, projectID).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.Status, &start, &target)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	p.StartDate = timePtr(start)
	p.TargetDate = timePtr(target)
	return &p, nil
}

// ListTeamMembers returns the project's team.
func (s *workspaceStore) ListTeamMembers(ctx context.Context, projectID string) ([]domain.TeamMember, error) {
	members, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.TeamMember, error) {
		var m domain.TeamMember
		err := r.Scan(&m.ID, &m.Name, &m.Email, &m.Role)
		return m, err
	}, "SELECT id, name, email, role FROM team_members WHERE project_id = ? ORDER BY rowid", projectID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	return members, nil
}

// GetScopeOfWork returns the project's scope, or nil if none is recorded.
func (s *workspaceStore) GetScopeOfWork(ctx context.Context, projectID string) (*domain.ScopeOfWork, error) {
	var sow domain.ScopeOfWork
	var deliverables string
	var start, end sql.NullTime
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, summary, deliverables, start_date, end_date
		FROM scopes_of_work WHERE project_id = ?
	`, projectID).Scan(&sow.ID, &sow.Title, &sow.Summary, &deliverables, &start, &end)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting scope of work: %w", err)
	}
	if sow.Deliverables, err = unmarshalStrings(deliverables); err != nil {
		return nil, fmt.Errorf("unmarshalling deliverables: %w", err)
	}
	sow.StartDate = timePtr(start)
	sow.EndDate = timePtr(end)
	return &sow, nil
}

// ListPhases returns the project's phases in stored order.
func (s *workspaceStore) ListPhases(ctx context.Context, projectID string) ([]domain.Phase, error) {
	phases, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Phase, error) {
		var p domain.Phase
		var start, end sql.NullTime
		err := r.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Description, &p.Status, &p.Position, &start, &end)
		p.StartDate = timePtr(start)
		p.EndDate = timePtr(end)
		return p, err
	}, `
		SELECT id, project_id, name, description, status, position, start_date, end_date
		FROM phases WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing phases: %w", err)
	}
	return phases, nil
}

// ListTasks returns the project's tasks.
func (s *workspaceStore) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	tasks, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Task, error) {
		var t domain.Task
		var due, updated sql.NullTime
		err := r.Scan(&t.ID, &t.ProjectID, &t.PhaseID, &t.Title, &t.Description, &t.Status,
			&t.Priority, &t.Assignee, &due, &updated)
		t.DueDate = timePtr(due)
		t.UpdatedAt = timeValue(updated)
		return t, err
	}, `
		SELECT id, project_id, phase_id, title, description, status, priority, assignee, due_date, updated_at
		FROM tasks WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// ListSpecs returns the project's specifications.
func (s *workspaceStore) ListSpecs(ctx context.Context, projectID string) ([]domain.Spec, error) {
	specs, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Spec, error) {
		var sp domain.Spec
		var updated sql.NullTime
		err := r.Scan(&sp.ID, &sp.Title, &sp.Kind, &sp.Status, &sp.Content, &updated)
		sp.UpdatedAt = timeValue(updated)
		return sp, err
	}, `
		SELECT id, title, kind, status, content, updated_at
		FROM specs WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing specs: %w", err)
	}
	return specs, nil
}

// ListDecisions returns the project's decisions.
func (s *workspaceStore) ListDecisions(ctx context.Context, projectID string) ([]domain.Decision, error) {
	decisions, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Decision, error) {
		var d domain.Decision
		var updated sql.NullTime
		err := r.Scan(&d.ID, &d.Title, &d.Context, &d.Outcome, &d.Status, &updated)
		d.UpdatedAt = timeValue(updated)
		return d, err
	}, `
		SELECT id, title, context, outcome, status, updated_at
		FROM decisions WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	return decisions, nil
}

// ListTechDebt returns the project's technical debt items.
func (s *workspaceStore) ListTechDebt(ctx context.Context, projectID string) ([]domain.TechDebtItem, error) {
	items, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.TechDebtItem, error) {
		var item domain.TechDebtItem
		var updated sql.NullTime
		err := r.Scan(&item.ID, &item.Title, &item.Description, &item.Severity, &item.Status, &updated)
		item.UpdatedAt = timeValue(updated)
		return item, err
	}, `
		SELECT id, title, description, severity, status, updated_at
		FROM tech_debt WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tech debt: %w", err)
	}
	return items, nil
}

// ListMetrics returns the project's metrics.
func (s *workspaceStore) ListMetrics(ctx context.Context, projectID string) ([]domain.Metric, error) {
	metrics, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Metric, error) {
		var m domain.Metric
		var updated sql.NullTime
		err := r.Scan(&m.ID, &m.Name, &m.Unit, &m.Current, &m.Target, &updated)
		m.UpdatedAt = timeValue(updated)
		return m, err
	}, `
		SELECT id, name, unit, current_value, target_value, updated_at
		FROM metrics WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing metrics: %w", err)
	}
	return metrics, nil
}

// ListDiscovery returns the project's discovery fields.
func (s *workspaceStore) ListDiscovery(ctx context.Context, projectID string) ([]domain.FieldEntry, error) {
	return s.listFields(ctx, projectID, fieldDomainDiscovery)
}

// ListStrategy returns the project's strategy fields.
func (s *workspaceStore) ListStrategy(ctx context.Context, projectID string) ([]domain.FieldEntry, error) {
	return s.listFields(ctx, projectID, fieldDomainStrategy)
}

func (s *workspaceStore) listFields(ctx context.Context, projectID, fieldDomain string) ([]domain.FieldEntry, error) {
	fields, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.FieldEntry, error) {
		var f domain.FieldEntry
		var updated sql.NullTime
		err := r.Scan(&f.Key, &f.Value, &updated)
		f.UpdatedAt = timeValue(updated)
		return f, err
	}, `
		SELECT key, value, updated_at
		FROM project_fields WHERE project_id = ? AND domain = ? ORDER BY rowid
	`, projectID, fieldDomain)
	if err != nil {
		return nil, fmt.Errorf("listing %s fields: %w", fieldDomain, err)
	}
	return fields, nil
}

// ListRoadmap returns the project's roadmap items.
func (s *workspaceStore) ListRoadmap(ctx context.Context, projectID string) ([]domain.RoadmapItem, error) {
	items, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.RoadmapItem, error) {
		var item domain.RoadmapItem
		var target sql.NullTime
		err := r.Scan(&item.ID, &item.Title, &item.Status, &item.Quarter, &target)
		item.TargetDate = timePtr(target)
		return item, err
	}, `
		SELECT id, title, status, quarter, target_date
		FROM roadmap_items WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing roadmap: %w", err)
	}
	return items, nil
}

// ListStakeholders returns the project's stakeholders.
func (s *workspaceStore) ListStakeholders(ctx context.Context, projectID string) ([]domain.Stakeholder, error) {
	stakeholders, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Stakeholder, error) {
		var sh domain.Stakeholder
		err := r.Scan(&sh.ID, &sh.Name, &sh.Role, &sh.Influence, &sh.Interest)
		return sh, err
	}, `
		SELECT id, name, role, influence, interest
		FROM stakeholders WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing stakeholders: %w", err)
	}
	return stakeholders, nil
}

// ListUploads returns the project's uploaded files.
func (s *workspaceStore) ListUploads(ctx context.Context, projectID string) ([]domain.Upload, error) {
	uploads, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Upload, error) {
		var u domain.Upload
		var uploaded sql.NullTime
		err := r.Scan(&u.ID, &u.FileName, &u.ContentType, &u.SizeBytes, &uploaded)
		u.UploadedAt = timeValue(uploaded)
		return u, err
	}, `
		SELECT id, file_name, content_type, size_bytes, uploaded_at
		FROM uploads WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	return uploads, nil
}

// ListDashboards returns the project's dashboards.
func (s *workspaceStore) ListDashboards(ctx context.Context, projectID string) ([]domain.Dashboard, error) {
	dashboards, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.Dashboard, error) {
		var d domain.Dashboard
		err := r.Scan(&d.ID, &d.ProjectID, &d.Name, &d.Description, &d.WidgetCount)
		return d, err
	}, `
		SELECT id, project_id, name, description, widget_count
		FROM dashboards WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing dashboards: %w", err)
	}
	return dashboards, nil
}

// ListRelationTargets returns tasks, phases or dashboards from every project
// of the tenant, ordered by project ID.
func (s *workspaceStore) ListRelationTargets(
	ctx context.Context, kind domain.RelationKind, tenantID string, limit int,
) ([]domain.RelationTarget, error) {
	var query string
	switch kind {
	case domain.RelationTask:
		query = `SELECT t.id, t.title, t.description FROM tasks t`
	case domain.RelationPhase:
		query = `SELECT t.id, t.name, t.description FROM phases t`
	case domain.RelationDashboard:
		query = `SELECT t.id, t.name, t.description FROM dashboards t`
	default:
		return nil, fmt.Errorf("%w: relation kind %s", domain.ErrUnsupportedType, kind)
	}
	query += `
		JOIN projects p ON p.id = t.project_id
		WHERE p.workspace_id = ?
		ORDER BY p.id, t.rowid
		LIMIT ?`

	if limit <= 0 {
		limit = -1 // no limit
	}
	targets, err := queryAll(ctx, s.store.db, func(r rowScanner) (domain.RelationTarget, error) {
		target := domain.RelationTarget{Kind: kind}
		err := r.Scan(&target.ID, &target.Title, &target.Text)
		return target, err
	}, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing %s relation targets: %w", kind, err)
	}
	return targets, nil
}

// ==================== Writes ====================

// SaveWorkspace stores or updates an organisation.
func (s *workspaceStore) SaveWorkspace(ctx context.Context, w domain.WorkspaceInfo) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`, w.ID, w.Name, w.Description)
	if err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	return nil
}

// SaveProject stores a project and replaces all of its domain rows in one
// transaction.
func (s *workspaceStore) SaveProject(ctx context.Context, p domain.Project, data domain.ProjectData) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, workspace_id, name, description, status, start_date, target_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			start_date = excluded.start_date,
			target_date = excluded.target_date
	`, p.ID, p.WorkspaceID, p.Name, p.Description, p.Status,
		nullTime(p.StartDate), nullTime(p.TargetDate)); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}

	for _, table := range projectTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", p.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	w := &txWriter{ctx: ctx, tx: tx, projectID: p.ID}
	for _, m := range data.Team {
		w.exec("team_members", `INSERT INTO team_members (project_id, id, name, email, role) VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Email, m.Role)
	}
	if sow := data.ScopeOfWork; sow != nil {
		deliverables, err := marshalStrings(sow.Deliverables)
		if err != nil {
			return fmt.Errorf("marshalling deliverables: %w", err)
		}
		w.exec("scopes_of_work", `INSERT INTO scopes_of_work
			(project_id, id, title, summary, deliverables, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sow.ID, sow.Title, sow.Summary, deliverables, nullTime(sow.StartDate), nullTime(sow.EndDate))
	}
	for _, ph := range data.Phases {
		w.exec("phases", `INSERT INTO phases
			(project_id, id, name, description, status, position, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ph.ID, ph.Name, ph.Description, ph.Status, ph.Position, nullTime(ph.StartDate), nullTime(ph.EndDate))
	}
	for _, t := range data.Tasks {
		w.exec("tasks", `INSERT INTO tasks
			(project_id, id, phase_id, title, description, status, priority, assignee, due_date, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.PhaseID, t.Title, t.Description, t.Status, t.Priority, t.Assignee,
			nullTime(t.DueDate), zeroNullTime(t.UpdatedAt))
	}
	for _, sp := range data.Specs {
		w.exec("specs", `INSERT INTO specs (project_id, id, title, kind, status, content, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sp.ID, sp.Title, sp.Kind, sp.Status, sp.Content, zeroNullTime(sp.UpdatedAt))
	}
	for _, d := range data.Decisions {
		w.exec("decisions", `INSERT INTO decisions (project_id, id, title, context, outcome, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Title, d.Context, d.Outcome, d.Status, zeroNullTime(d.UpdatedAt))
	}
	for _, td := range data.TechDebt {
		w.exec("tech_debt", `INSERT INTO tech_debt (project_id, id, title, description, severity, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			td.ID, td.Title, td.Description, td.Severity, td.Status, zeroNullTime(td.UpdatedAt))
	}
	for _, m := range data.Metrics {
		w.exec("metrics", `INSERT INTO metrics
			(project_id, id, name, unit, current_value, target_value, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Unit, m.Current, m.Target, zeroNullTime(m.UpdatedAt))
	}
	for _, f := range data.Discovery {
		w.exec("discovery", `INSERT INTO project_fields (project_id, domain, key, value, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			fieldDomainDiscovery, f.Key, f.Value, zeroNullTime(f.UpdatedAt))
	}
	for _, f := range data.Strategy {
		w.exec("strategy", `INSERT INTO project_fields (project_id, domain, key, value, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			fieldDomainStrategy, f.Key, f.Value, zeroNullTime(f.UpdatedAt))
	}
	for _, r := range data.Roadmap {
		w.exec("roadmap_items", `INSERT INTO roadmap_items (project_id, id, title, status, quarter, target_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.Title, r.Status, r.Quarter, nullTime(r.TargetDate))
	}
	for _, sh := range data.Stakeholders {
		w.exec("stakeholders", `INSERT INTO stakeholders (project_id, id, name, role, influence, interest)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sh.ID, sh.Name, sh.Role, sh.Influence, sh.Interest)
	}
	for _, u := range data.Uploads {
		w.exec("uploads", `INSERT INTO uploads (project_id, id, file_name, content_type, size_bytes, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.FileName, u.ContentType, u.SizeBytes, zeroNullTime(u.UploadedAt))
	}
	for _, d := range data.Dashboards {
		w.exec("dashboards", `INSERT INTO dashboards (project_id, id, name, description, widget_count)
			VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.Description, d.WidgetCount)
	}
	if w.err != nil {
		return w.err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// txWriter inserts project rows and keeps the first error.
type txWriter struct {
	ctx       context.Context
	tx        *sql.Tx
	projectID string
	err       error
}

// exec runs an insert whose first parameter is the project ID.
func (w *txWriter) exec(what, query string, args ...any) {
	if w.err != nil {
		return
	}
	args = append([]any{w.projectID}, args...)
	if _, err := w.tx.ExecContext(w.ctx, query, args...); err != nil {
		w.err = fmt.Errorf("saving %s: %w", what, err)
	}
}
