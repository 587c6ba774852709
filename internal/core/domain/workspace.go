package domain

import "time"

// Workspace domain names, in serialization order.
const (
	DomainWorkspace    = "workspace"
	DomainProject      = "project"
	DomainTeam         = "team"
	DomainScopeOfWork  = "scope_of_work"
	DomainPhases       = "phases"
	DomainTasks        = "tasks"
	DomainSpecs        = "specs"
	DomainDecisions    = "decisions"
	DomainTechDebt     = "tech_debt"
	DomainMetrics      = "metrics"
	DomainDiscovery    = "discovery"
	DomainStrategy     = "strategy"
	DomainRoadmap      = "roadmap"
	DomainStakeholders = "stakeholders"
	DomainUploads      = "uploads"
	DomainDashboards   = "dashboards"
)

// ==================== Store rows ====================

// WorkspaceInfo is the organisation a project belongs to.
type WorkspaceInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Project is the root entity of a snapshot.
type Project struct {
	ID          string     `json:"id" yaml:"id"`
	WorkspaceID string     `json:"workspace_id" yaml:"workspace_id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Status      string     `json:"status" yaml:"status"`
	StartDate   *time.Time `json:"start_date" yaml:"start_date"`
	TargetDate  *time.Time `json:"target_date" yaml:"target_date"`
}

// TeamMember is a person assigned to the project.
type TeamMember struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role" yaml:"role"`
}

// ScopeOfWork is the agreed project scope and timeline.
type ScopeOfWork struct {
	ID           string     `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Summary      string     `json:"summary" yaml:"summary"`
	Deliverables []string   `json:"deliverables" yaml:"deliverables"`
	StartDate    *time.Time `json:"start_date" yaml:"start_date"`
	EndDate      *time.Time `json:"end_date" yaml:"end_date"`
}

// Phase status values that take a phase out of scheduling.
const (
	PhaseStatusCompleted = "completed"
	PhaseStatusCancelled = "cancelled"
)

// Phase is an ordered stage of the project.
type Phase struct {
	ID          string     `json:"id" yaml:"id"`
	ProjectID   string     `json:"project_id" yaml:"project_id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Status      string     `json:"status" yaml:"status"`
	Position    int        `json:"position" yaml:"position"`
	StartDate   *time.Time `json:"start_date" yaml:"start_date"`
	EndDate     *time.Time `json:"end_date" yaml:"end_date"`
}

// IsActive reports whether the phase still takes part in scheduling.
func (p *Phase) IsActive() bool {
	return p.Status != PhaseStatusCompleted && p.Status != PhaseStatusCancelled
}

// Task is a unit of work, optionally inside a phase.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	ProjectID   string     `json:"project_id" yaml:"project_id"`
	PhaseID     string     `json:"phase_id" yaml:"phase_id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      string     `json:"status" yaml:"status"`
	Priority    string     `json:"priority" yaml:"priority"`
	Assignee    string     `json:"assignee" yaml:"assignee"`
	DueDate     *time.Time `json:"due_date" yaml:"due_date"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// Spec is a specification document attached to the project.
type Spec struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Kind      string    `json:"kind" yaml:"kind"`
	Status    string    `json:"status" yaml:"status"`
	Content   string    `json:"content" yaml:"content"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Decision is a recorded project decision.
type Decision struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Context   string    `json:"context" yaml:"context"`
	Outcome   string    `json:"outcome" yaml:"outcome"`
	Status    string    `json:"status" yaml:"status"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// TechDebtItem is a tracked piece of technical debt.
type TechDebtItem struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Severity    string    `json:"severity" yaml:"severity"`
	Status      string    `json:"status" yaml:"status"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Metric is a tracked project measure.
type Metric struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Unit      string    `json:"unit" yaml:"unit"`
	Current   float64   `json:"current" yaml:"current"`
	Target    float64   `json:"target" yaml:"target"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ProjectData is every domain row of one project, as stored or imported
// alongside the project itself.
type ProjectData struct {
	Team         []TeamMember   `json:"team" yaml:"team"`
	ScopeOfWork  *ScopeOfWork   `json:"scope_of_work" yaml:"scope_of_work"`
	Phases       []Phase        `json:"phases" yaml:"phases"`
	Tasks        []Task         `json:"tasks" yaml:"tasks"`
	Specs        []Spec         `json:"specs" yaml:"specs"`
	Decisions    []Decision     `json:"decisions" yaml:"decisions"`
	TechDebt     []TechDebtItem `json:"tech_debt" yaml:"tech_debt"`
	Metrics      []Metric       `json:"metrics" yaml:"metrics"`
	Discovery    []FieldEntry   `json:"discovery" yaml:"discovery"`
	Strategy     []FieldEntry   `json:"strategy" yaml:"strategy"`
	Roadmap      []RoadmapItem  `json:"roadmap" yaml:"roadmap"`
	Stakeholders []Stakeholder  `json:"stakeholders" yaml:"stakeholders"`
	Uploads      []Upload       `json:"uploads" yaml:"uploads"`
	Dashboards   []Dashboard    `json:"dashboards" yaml:"dashboards"`
}

// FieldEntry is a keyed free-text field, as used by discovery and strategy.
type FieldEntry struct {
	Key       string    `json:"key" yaml:"key"`
	Value     string    `json:"value" yaml:"value"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// RoadmapItem is a planned milestone.
type RoadmapItem struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Status     string     `json:"status" yaml:"status"`
	Quarter    string     `json:"quarter" yaml:"quarter"`
	TargetDate *time.Time `json:"target_date" yaml:"target_date"`
}

// Stakeholder is a person with an interest in the project.
type Stakeholder struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Role      string `json:"role" yaml:"role"`
	Influence string `json:"influence" yaml:"influence"`
	Interest  string `json:"interest" yaml:"interest"`
}

// Upload is a file attached to the project.
type Upload struct {
	ID          string    `json:"id" yaml:"id"`
	FileName    string    `json:"file_name" yaml:"file_name"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	SizeBytes   int64     `json:"size_bytes" yaml:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at" yaml:"uploaded_at"`
}

// Dashboard is a saved project dashboard.
type Dashboard struct {
	ID          string `json:"id" yaml:"id"`
	ProjectID   string `json:"project_id" yaml:"project_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	WidgetCount int    `json:"widget_count" yaml:"widget_count"`
}

// ==================== Snapshot ====================

// CountEntry is one bucket of a categorical count.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ProjectSummary reduces the project row.
type ProjectSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

// TeamSummary reduces team members.
type TeamSummary struct {
	Total   int          `json:"total"`
	ByRole  []CountEntry `json:"by_role"`
	Members []TeamMember `json:"members"`
}

// PhaseDateSuggestion is a proposed date range for one phase.
type PhaseDateSuggestion struct {
	PhaseID   string    `json:"phase_id"`
	PhaseName string    `json:"phase_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ScopeSummary reduces the scope of work.
type ScopeSummary struct {
	Title          string                `json:"title"`
	Summary        string                `json:"summary,omitempty"`
	Deliverables   []string              `json:"deliverables,omitempty"`
	StartDate      *time.Time            `json:"start_date,omitempty"`
	EndDate        *time.Time            `json:"end_date,omitempty"`
	SuggestedDates []PhaseDateSuggestion `json:"suggested_phase_dates,omitempty"`
}

// PhaseSummary reduces phases.
type PhaseSummary struct {
	Total    int          `json:"total"`
	Active   int          `json:"active"`
	ByStatus []CountEntry `json:"by_status"`
	Phases   []Phase      `json:"phases"`
}

// TaskSummary reduces tasks.
type TaskSummary struct {
	Total      int          `json:"total"`
	Overdue    int          `json:"overdue"`
	ByStatus   []CountEntry `json:"by_status"`
	ByPriority []CountEntry `json:"by_priority"`
	Recent     []Task       `json:"recent"`
}

// SpecSummary reduces specs.
type SpecSummary struct {
	Total  int          `json:"total"`
	ByKind []CountEntry `json:"by_kind"`
	Recent []Spec       `json:"recent"`
}

// DecisionSummary reduces decisions.
type DecisionSummary struct {
	Total    int          `json:"total"`
	ByStatus []CountEntry `json:"by_status"`
	Recent   []Decision   `json:"recent"`
}

// TechDebtSummary reduces tech debt.
type TechDebtSummary struct {
	Total      int            `json:"total"`
	Open       int            `json:"open"`
	BySeverity []CountEntry   `json:"by_severity"`
	Top        []TechDebtItem `json:"top"`
}

// MetricSummary reduces metrics.
type MetricSummary struct {
	Total    int      `json:"total"`
	OnTarget int      `json:"on_target"`
	Metrics  []Metric `json:"metrics"`
}

// FieldSummary reduces keyed field entries.
type FieldSummary struct {
	Fields []FieldEntry `json:"fields"`
}

// RoadmapSummary reduces roadmap items.
type RoadmapSummary struct {
	Total    int           `json:"total"`
	ByStatus []CountEntry  `json:"by_status"`
	Upcoming []RoadmapItem `json:"upcoming"`
}

// StakeholderSummary reduces stakeholders.
type StakeholderSummary struct {
	Total        int           `json:"total"`
	ByInfluence  []CountEntry  `json:"by_influence"`
	Stakeholders []Stakeholder `json:"stakeholders"`
}

// UploadSummary reduces uploads.
type UploadSummary struct {
	Total      int      `json:"total"`
	TotalBytes int64    `json:"total_bytes"`
	Recent     []Upload `json:"recent"`
}

// DashboardSummary reduces dashboards.
type DashboardSummary struct {
	Total      int         `json:"total"`
	Dashboards []Dashboard `json:"dashboards"`
}

// WorkspaceSnapshot is the aggregate of every project data domain. Each
// section is nil when its domain is empty or failed to load; the absence of
// one section never affects the others. It is built fresh per request.
type WorkspaceSnapshot struct {
	ProjectID   string    `json:"project_id"`
	WorkspaceID string    `json:"workspace_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Workspace    *WorkspaceInfo      `json:"workspace,omitempty"`
	Project      *ProjectSummary     `json:"project,omitempty"`
	Team         *TeamSummary        `json:"team,omitempty"`
	ScopeOfWork  *ScopeSummary       `json:"scope_of_work,omitempty"`
	Phases       *PhaseSummary       `json:"phases,omitempty"`
	Tasks        *TaskSummary        `json:"tasks,omitempty"`
	Specs        *SpecSummary        `json:"specs,omitempty"`
	Decisions    *DecisionSummary    `json:"decisions,omitempty"`
	TechDebt     *TechDebtSummary    `json:"tech_debt,omitempty"`
	Metrics      *MetricSummary      `json:"metrics,omitempty"`
	Discovery    *FieldSummary       `json:"discovery,omitempty"`
	Strategy     *FieldSummary       `json:"strategy,omitempty"`
	Roadmap      *RoadmapSummary     `json:"roadmap,omitempty"`
	Stakeholders *StakeholderSummary `json:"stakeholders,omitempty"`
	Uploads      *UploadSummary      `json:"uploads,omitempty"`
	Dashboards   *DashboardSummary   `json:"dashboards,omitempty"`

	// Unavailable names the domains whose query failed or timed out.
	Unavailable []string `json:"unavailable,omitempty"`
}
