package driving

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// Scheduler runs background maintenance while a long-lived command is up.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Tasks returns the current state of every registered task.
	Tasks() []domain.ScheduledTask

	// History returns recent results for a task, most recent first.
	History(taskID string, limit int) []domain.TaskResult
}
