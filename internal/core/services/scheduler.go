package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

const (
	schedulerTick = time.Minute

	// historyLimit is the number of results kept per task.
	historyLimit = 100
)

// Reembedder backfills vectors for documents that have none.
type Reembedder interface {
	ReembedMissing(ctx context.Context, limit int) (int, error)
}

// Scheduler manages background task execution. Task state lives for the
// lifetime of the process; every task is safe to rerun from scratch.
type Scheduler struct {
	config domain.SchedulerConfig
	tick   time.Duration
	now    func() time.Time

	mu         sync.Mutex
	reembedder Reembedder
	tasks      map[string]*domain.ScheduledTask
	history    map[string][]domain.TaskResult
	inFlight   map[string]bool
	running    bool
	stopCh     chan struct{}
	loopDone   chan struct{}
	wg         sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config domain.SchedulerConfig, reembedder Reembedder) *Scheduler {
	s := &Scheduler{
		config:     config,
		tick:       schedulerTick,
		now:        time.Now,
		reembedder: reembedder,
		tasks:      make(map[string]*domain.ScheduledTask),
		history:    make(map[string][]domain.TaskResult),
		inFlight:   make(map[string]bool),
	}
	s.initialiseTasks()
	return s
}

// SetReembedder swaps the service used by later runs, for example after
// the embedding configuration changed.
func (s *Scheduler) SetReembedder(r Reembedder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reembedder = r
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		logger.Debug("Scheduler disabled")
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})
	stopCh, loopDone := s.stopCh, s.loopDone
	s.mu.Unlock()

	defer close(loopDone)
	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	loopDone := s.loopDone
	s.mu.Unlock()

	// No task starts once the loop has exited.
	<-loopDone
	s.wg.Wait()

	return nil
}

// Tasks returns the current task states ordered by ID.
func (s *Scheduler) Tasks() []domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// History returns recent results for a task, most recent first.
func (s *Scheduler) History(taskID string, limit int) []domain.TaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.history[taskID]
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	out := make([]domain.TaskResult, limit)
	for i := range out {
		out[i] = results[len(results)-1-i]
	}
	return out
}

// initialiseTasks registers every enabled task. The first run happens one
// interval after start.
func (s *Scheduler) initialiseTasks() {
	if cfg := s.config.GetTaskConfig(domain.TaskIDReembed); cfg.Enabled && cfg.Interval > 0 {
		s.tasks[domain.TaskIDReembed] = &domain.ScheduledTask{
			ID:       domain.TaskIDReembed,
			Name:     "Re-embed missing vectors",
			Interval: cfg.Interval,
			Enabled:  true,
			NextRun:  s.now().Add(cfg.Interval),
		}
	}
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks starts every due task that is not already running.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []string
	for id, task := range s.tasks {
		if task.IsDue(now) && !s.inFlight[id] {
			s.inFlight[id] = true
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		s.runTask(ctx, id)
	}
}

// runTask executes a single task in the background.
func (s *Scheduler) runTask(ctx context.Context, taskID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := domain.TaskResult{
			TaskID:    taskID,
			StartedAt: s.now(),
		}

		var err error
		switch taskID {
		case domain.TaskIDReembed:
			result.ItemsProcessed, err = s.runReembed(ctx)
		default:
			err = errors.New("unknown task")
		}
		result.EndedAt = s.now()
		result.Success = err == nil
		if err != nil {
			result.Error = err.Error()
			logger.Error("Task %s failed: %v", taskID, err)
		} else {
			logger.Debug("Task %s processed %d items", taskID, result.ItemsProcessed)
		}

		s.record(taskID, result)
	}()
}

// record updates the task state and appends to its history.
func (s *Scheduler) record(taskID string, result domain.TaskResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, taskID)
	if task, ok := s.tasks[taskID]; ok {
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)
		if result.Success {
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		} else {
			task.LastError = result.Error
		}
	}

	// Prune old history
	h := append(s.history[taskID], result)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	s.history[taskID] = h
}

// runReembed backfills one batch. Having no provider configured is not a
// failure; there is simply nothing to do until one is.
func (s *Scheduler) runReembed(ctx context.Context) (int, error) {
	s.mu.Lock()
	r := s.reembedder
	s.mu.Unlock()
	if r == nil {
		return 0, nil
	}

	batch := s.config.GetTaskConfig(domain.TaskIDReembed).BatchSize
	if batch <= 0 {
		batch = domain.DefaultReembedBatchSize
	}

	n, err := r.ReembedMissing(ctx, batch)
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return 0, nil
	}
	return n, err
}
