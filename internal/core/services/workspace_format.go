package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

const dateLayout = "2006-01-02"

// Format serializes a snapshot into prompt text. Sections appear in a fixed
// order and empty sections are omitted, so equal snapshots always produce
// equal text.
func (s *WorkspaceContextService) Format(snapshot *domain.WorkspaceSnapshot) string {
	return FormatWorkspace(snapshot)
}

// FormatWorkspace renders a snapshot without needing a service.
func FormatWorkspace(snap *domain.WorkspaceSnapshot) string {
	if snap == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Project Context\n")
	fmt.Fprintf(&b, "Project ID: %s\n", snap.ProjectID)
	if snap.WorkspaceID != "" {
		fmt.Fprintf(&b, "Workspace ID: %s\n", snap.WorkspaceID)
	}
	if !snap.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", snap.GeneratedAt.UTC().Format(time.RFC3339))
	}

	writeWorkspaceInfo(&b, snap.Workspace)
	writeProject(&b, snap.Project)
	writeTeam(&b, snap.Team)
	writeScope(&b, snap.ScopeOfWork)
	writePhases(&b, snap.Phases)
	writeTasks(&b, snap.Tasks)
	writeSpecs(&b, snap.Specs)
	writeDecisions(&b, snap.Decisions)
	writeTechDebt(&b, snap.TechDebt)
	writeMetrics(&b, snap.Metrics)
	writeFields(&b, "Discovery", snap.Discovery)
	writeFields(&b, "Strategy", snap.Strategy)
	writeRoadmap(&b, snap.Roadmap)
	writeStakeholders(&b, snap.Stakeholders)
	writeUploads(&b, snap.Uploads)
	writeDashboards(&b, snap.Dashboards)

	if len(snap.Unavailable) > 0 {
		b.WriteString("\n## Unavailable Data\n")
		fmt.Fprintf(&b, "The following sections could not be loaded: %s\n", strings.Join(snap.Unavailable, ", "))
	}

	return b.String()
}

func writeWorkspaceInfo(b *strings.Builder, w *domain.WorkspaceInfo) {
	if w == nil {
		return
	}
	b.WriteString("\n## Workspace\n")
	fmt.Fprintf(b, "Name: %s\n", w.Name)
	writeOptional(b, "Description", w.Description)
}

func writeProject(b *strings.Builder, p *domain.ProjectSummary) {
	if p == nil {
		return
	}
	b.WriteString("\n## Project\n")
	fmt.Fprintf(b, "Name: %s\n", p.Name)
	writeOptional(b, "Status", p.Status)
	writeOptional(b, "Start date", formatDate(p.StartDate))
	writeOptional(b, "Target date", formatDate(p.TargetDate))
	writeOptional(b, "Description", p.Description)
}

func writeTeam(b *strings.Builder, t *domain.TeamSummary) {
	if t == nil {
		return
	}
	fmt.Fprintf(b, "\n## Team (%d)\n", t.Total)
	writeCounts(b, "By role", t.ByRole)
	for _, m := range t.Members {
		if m.Role != "" {
			fmt.Fprintf(b, "- %s (%s)\n", m.Name, m.Role)
		} else {
			fmt.Fprintf(b, "- %s\n", m.Name)
		}
	}
}

func writeScope(b *strings.Builder, s *domain.ScopeSummary) {
	if s == nil {
		return
	}
	b.WriteString("\n## Scope of Work\n")
	fmt.Fprintf(b, "Title: %s\n", s.Title)
	writeOptional(b, "Summary", s.Summary)
	if s.StartDate != nil || s.EndDate != nil {
		fmt.Fprintf(b, "Timeline: %s to %s\n", formatDateOr(s.StartDate, "?"), formatDateOr(s.EndDate, "?"))
	}
	if len(s.Deliverables) > 0 {
		b.WriteString("Deliverables:\n")
		for _, d := range s.Deliverables {
			fmt.Fprintf(b, "- %s\n", d)
		}
	}
	if len(s.SuggestedDates) > 0 {
		b.WriteString("Suggested phase dates:\n")
		for _, sd := range s.SuggestedDates {
			fmt.Fprintf(b, "- %s: %s to %s\n", sd.PhaseName, sd.StartDate.Format(dateLayout), sd.EndDate.Format(dateLayout))
		}
	}
}

func writePhases(b *strings.Builder, p *domain.PhaseSummary) {
	if p == nil {
		return
	}
	fmt.Fprintf(b, "\n## Phases (%d total, %d active)\n", p.Total, p.Active)
	writeCounts(b, "By status", p.ByStatus)
	for i, ph := range p.Phases {
		fmt.Fprintf(b, "%d. %s", i+1, ph.Name)
		if ph.Status != "" {
			fmt.Fprintf(b, " [%s]", ph.Status)
		}
		if ph.StartDate != nil || ph.EndDate != nil {
			fmt.Fprintf(b, " (%s to %s)", formatDateOr(ph.StartDate, "?"), formatDateOr(ph.EndDate, "?"))
		}
		b.WriteString("\n")
	}
}

func writeTasks(b *strings.Builder, t *domain.TaskSummary) {
	if t == nil {
		return
	}
	fmt.Fprintf(b, "\n## Tasks (%d total, %d overdue)\n", t.Total, t.Overdue)
	writeCounts(b, "By status", t.ByStatus)
	writeCounts(b, "By priority", t.ByPriority)
	if len(t.Recent) > 0 {
		b.WriteString("Recently updated:\n")
		for _, task := range t.Recent {
			fmt.Fprintf(b, "- [%s] %s", orUnspecified(task.Status), task.Title)
			var details []string
			if task.Priority != "" {
				details = append(details, "priority "+task.Priority)
			}
			if task.Assignee != "" {
				details = append(details, "assigned to "+task.Assignee)
			}
			if task.DueDate != nil {
				details = append(details, "due "+task.DueDate.Format(dateLayout))
			}
			if len(details) > 0 {
				fmt.Fprintf(b, " (%s)", strings.Join(details, ", "))
			}
			b.WriteString("\n")
			if task.Description != "" {
				fmt.Fprintf(b, "  %s\n", task.Description)
			}
		}
	}
}

func writeSpecs(b *strings.Builder, s *domain.SpecSummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(b, "\n## Specs (%d)\n", s.Total)
	writeCounts(b, "By kind", s.ByKind)
	for _, sp := range s.Recent {
		fmt.Fprintf(b, "### %s", sp.Title)
		if sp.Status != "" {
			fmt.Fprintf(b, " [%s]", sp.Status)
		}
		b.WriteString("\n")
		if sp.Content != "" {
			fmt.Fprintf(b, "%s\n", sp.Content)
		}
	}
}

func writeDecisions(b *strings.Builder, d *domain.DecisionSummary) {
	if d == nil {
		return
	}
	fmt.Fprintf(b, "\n## Decisions (%d)\n", d.Total)
	writeCounts(b, "By status", d.ByStatus)
	for _, dec := range d.Recent {
		fmt.Fprintf(b, "- [%s] %s\n", orUnspecified(dec.Status), dec.Title)
		if dec.Context != "" {
			fmt.Fprintf(b, "  Context: %s\n", dec.Context)
		}
		if dec.Outcome != "" {
			fmt.Fprintf(b, "  Outcome: %s\n", dec.Outcome)
		}
	}
}

func writeTechDebt(b *strings.Builder, t *domain.TechDebtSummary) {
	if t == nil {
		return
	}
	fmt.Fprintf(b, "\n## Technical Debt (%d total, %d open)\n", t.Total, t.Open)
	writeCounts(b, "By severity", t.BySeverity)
	for _, item := range t.Top {
		fmt.Fprintf(b, "- [%s] %s\n", orUnspecified(item.Severity), item.Title)
		if item.Description != "" {
			fmt.Fprintf(b, "  %s\n", item.Description)
		}
	}
}

func writeMetrics(b *strings.Builder, m *domain.MetricSummary) {
	if m == nil {
		return
	}
	fmt.Fprintf(b, "\n## Metrics (%d, %d on target)\n", m.Total, m.OnTarget)
	for _, metric := range m.Metrics {
		fmt.Fprintf(b, "- %s: %s", metric.Name, formatNumber(metric.Current))
		if metric.Target != 0 {
			fmt.Fprintf(b, " / %s", formatNumber(metric.Target))
		}
		if metric.Unit != "" {
			fmt.Fprintf(b, " %s", metric.Unit)
		}
		b.WriteString("\n")
	}
}

func writeFields(b *strings.Builder, title string, f *domain.FieldSummary) {
	if f == nil {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", title)
	for _, field := range f.Fields {
		fmt.Fprintf(b, "- %s: %s\n", field.Key, field.Value)
	}
}

func writeRoadmap(b *strings.Builder, r *domain.RoadmapSummary) {
	if r == nil {
		return
	}
	fmt.Fprintf(b, "\n## Roadmap (%d)\n", r.Total)
	writeCounts(b, "By status", r.ByStatus)
	if len(r.Upcoming) > 0 {
		b.WriteString("Upcoming:\n")
		for _, item := range r.Upcoming {
			fmt.Fprintf(b, "- %s", item.Title)
			switch {
			case item.TargetDate != nil:
				fmt.Fprintf(b, " (target %s)", item.TargetDate.Format(dateLayout))
			case item.Quarter != "":
				fmt.Fprintf(b, " (%s)", item.Quarter)
			}
			b.WriteString("\n")
		}
	}
}

func writeStakeholders(b *strings.Builder, s *domain.StakeholderSummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(b, "\n## Stakeholders (%d)\n", s.Total)
	writeCounts(b, "By influence", s.ByInfluence)
	for _, sh := range s.Stakeholders {
		fmt.Fprintf(b, "- %s", sh.Name)
		if sh.Role != "" {
			fmt.Fprintf(b, ", %s", sh.Role)
		}
		if sh.Influence != "" || sh.Interest != "" {
			fmt.Fprintf(b, " (influence %s, interest %s)", orUnspecified(sh.Influence), orUnspecified(sh.Interest))
		}
		b.WriteString("\n")
	}
}

func writeUploads(b *strings.Builder, u *domain.UploadSummary) {
	if u == nil {
		return
	}
	fmt.Fprintf(b, "\n## Uploads (%d files, %d bytes)\n", u.Total, u.TotalBytes)
	for _, up := range u.Recent {
		fmt.Fprintf(b, "- %s", up.FileName)
		if up.ContentType != "" {
			fmt.Fprintf(b, " (%s)", up.ContentType)
		}
		b.WriteString("\n")
	}
}

func writeDashboards(b *strings.Builder, d *domain.DashboardSummary) {
	if d == nil {
		return
	}
	fmt.Fprintf(b, "\n## Dashboards (%d)\n", d.Total)
	for _, dash := range d.Dashboards {
		fmt.Fprintf(b, "- %s (%d widgets)\n", dash.Name, dash.WidgetCount)
		if dash.Description != "" {
			fmt.Fprintf(b, "  %s\n", dash.Description)
		}
	}
}

func writeCounts(b *strings.Builder, label string, counts []domain.CountEntry) {
	if len(counts) == 0 {
		return
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %d", c.Key, c.Count)
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(parts, ", "))
}

func writeOptional(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDateOr(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format(dateLayout)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orUnspecified(s string) string {
	if s == "" {
		return unspecifiedKey
	}
	return s
}
