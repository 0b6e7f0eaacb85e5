package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/taskkit/internal/metrics"
	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/tracker"
)

// ErrCancelled is returned by executors that stopped because their
// cancellation token fired.
var ErrCancelled = errors.New("operation cancelled")

// Executor performs the work for one task type. It reports progress via
// report, polls token at loop boundaries, and returns the task result on
// success. Returning ErrCancelled marks the task cancelled rather than
// failed.
type Executor func(ctx context.Context, task *models.Task, report Reporter, token *Token) (map[string]any, error)

// Runner dispatches tasks to registered executors on background
// goroutines and drives their records to a terminal state. The runner
// catches executor errors and panics; the tracker itself never does.
type Runner struct {
	tracker   *tracker.Tracker
	source    *Source
	collector *metrics.Collector // nil disables stats

	mu        sync.RWMutex
	executors map[string]Executor

	wg sync.WaitGroup
}

// NewRunner creates a runner. The collector may be nil.
func NewRunner(tr *tracker.Tracker, src *Source, collector *metrics.Collector) *Runner {
	return &Runner{
		tracker:   tr,
		source:    src,
		collector: collector,
		executors: make(map[string]Executor),
	}
}

// Register binds an executor to a task type, replacing any previous one.
func (r *Runner) Register(taskType string, exec Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[taskType] = exec
}

// Source returns the token source shared with cancellation callers.
func (r *Runner) Source() *Source {
	return r.source
}

// Start dispatches the task onto a background goroutine. It re-validates
// that the task is not already terminal, so "resuming" a finished task
// is an error rather than a silent restart.
func (r *Runner) Start(ctx context.Context, taskID string) error {
	task := r.tracker.Get(taskID)
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}
	if task.Status.Terminal() {
		return fmt.Errorf("task %s already %s", taskID, task.Status)
	}

	r.mu.RLock()
	exec, ok := r.executors[task.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no executor registered for task type %q", task.Type)
	}

	r.tracker.SetRunning(taskID)
	token := r.source.Token(taskID)
	if r.collector != nil {
		r.collector.TaskStarted(task.Type)
	}

	r.wg.Add(1)
	go r.execute(ctx, task, exec, token)
	return nil
}

func (r *Runner) execute(ctx context.Context, task *models.Task, exec Executor, token *Token) {
	defer r.wg.Done()
	defer r.source.Release(task.ID)

	started := time.Now()
	finish := func(status models.TaskStatus) {
		if r.collector != nil {
			r.collector.TaskFinished(task.Type, status, time.Since(started))
		}
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("task goroutine panicked", "task_id", task.ID, "panic", p)
			r.tracker.Complete(task.ID, false, map[string]any{
				"error": fmt.Sprintf("internal panic: %v", p),
			})
			finish(models.StatusFailed)
		}
	}()

	result, err := exec(ctx, task, TrackerReporter(r.tracker, task.ID), token)

	switch {
	case errors.Is(err, ErrCancelled) || token.Cancelled():
		// The record may already be cancelled by the cancel API call that
		// set the token; Cancel then returns false, which is fine.
		r.tracker.Cancel(task.ID)
		finish(models.StatusCancelled)
	case err != nil:
		r.tracker.Complete(task.ID, false, map[string]any{"error": err.Error()})
		finish(models.StatusFailed)
	default:
		r.tracker.Complete(task.ID, true, result)
		finish(models.StatusCompleted)
	}
}

// ResumeAll dispatches every resumable task that has a registered
// executor. Tasks of unknown types are skipped with a warning so a
// single stale record can't block the rest. Returns the number of tasks
// dispatched.
func (r *Runner) ResumeAll(ctx context.Context) int {
	resumed := 0
	for _, task := range r.tracker.ListResumable() {
		r.mu.RLock()
		_, ok := r.executors[task.Type]
		r.mu.RUnlock()
		if !ok {
			slog.Warn("skipping resumable task with no executor", "task_id", task.ID, "type", task.Type)
			continue
		}
		if err := r.Start(ctx, task.ID); err != nil {
			slog.Warn("failed to resume task", "task_id", task.ID, "error", err)
			continue
		}
		slog.Info("resumed task", "task_id", task.ID, "type", task.Type, "progress", task.Progress)
		resumed++
	}
	return resumed
}

// Wait blocks until all dispatched tasks have reached a terminal state.
func (r *Runner) Wait() {
	r.wg.Wait()
}
