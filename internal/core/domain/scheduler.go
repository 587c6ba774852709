package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// IsDue reports whether the task should run at now.
func (t *ScheduledTask) IsDue(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed counts documents handled, e.g. vectors backfilled.
	ItemsProcessed int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration

	// BatchSize caps the items handled per run. Zero means the task default.
	BatchSize int
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// Task IDs for built-in tasks.
const (
	// TaskIDReembed backfills vectors for documents saved while no embedding
	// provider was reachable.
	TaskIDReembed = "reembed-missing"
)

// Scheduler defaults.
const (
	DefaultReembedInterval  = 15 * time.Minute
	DefaultReembedBatchSize = 100
)

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDReembed: {
				Enabled:   true,
				Interval:  DefaultReembedInterval,
				BatchSize: DefaultReembedBatchSize,
			},
		},
	}
}
