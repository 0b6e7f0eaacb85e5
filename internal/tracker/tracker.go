// Package tracker implements the resumable task lifecycle state machine
// over the JSON-backed store. It is the only component other subsystems
// interact with for task state.
package tracker

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/store"
)

// DefaultListLimit bounds list results when the caller passes no limit.
const DefaultListLimit = 10

// Tracker manages task records. All store mutations are serialized
// through a single load-mutate-save cycle per call. This is last-writer-
// wins on the whole table, which is acceptable at this scale; it is not
// a linearizability guarantee across processes.
type Tracker struct {
	mu    sync.Mutex
	store *store.Store
}

// New creates a tracker over the given store.
func New(st *store.Store) *Tracker {
	return &Tracker{store: st}
}

// Create allocates a fresh id and inserts a queued record.
// Safe to call from multiple logical callers.
func (t *Tracker) Create(taskType, description string, params map[string]any) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := t.store.Load()
	id := newID(table)

	now := time.Now().UTC()
	task := &models.Task{
		ID:          id,
		Type:        taskType,
		Status:      models.StatusQueued,
		Progress:    0,
		Description: description,
		Params:      params,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	table[id] = task

	if err := t.store.Save(table); err != nil {
		return "", fmt.Errorf("persist task: %w", err)
	}

	slog.Info("task created", "task_id", id, "type", taskType)
	return id, nil
}

// newID returns a short id not present in the table. Short ids are a
// display convenience; collisions against live records are retried.
func newID(table map[string]*models.Task) string {
	for {
		id := uuid.New().String()[:8]
		if _, exists := table[id]; !exists {
			return id
		}
	}
}

// Update applies a partial update and bumps updated_at. Returns false
// for unknown ids and on persistence failure; background operations
// must not crash merely because tracking failed.
//
// A status write that would move a terminal task back into the state
// machine is dropped and logged; message and result updates on terminal
// tasks remain allowed for audit purposes.
func (t *Tracker) Update(id string, upd models.TaskUpdate) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := t.store.Load()
	task, ok := table[id]
	if !ok {
		slog.Warn("update for unknown task", "task_id", id)
		return false
	}

	if upd.Status != nil && *upd.Status != task.Status {
		if task.Status.Terminal() {
			slog.Warn("ignoring status change on terminal task",
				"task_id", id, "status", task.Status, "requested", *upd.Status)
		} else {
			task.Status = *upd.Status
		}
	}
	if upd.Progress != nil {
		// No clamping and no monotonicity enforcement: robustness over
		// strictness, the latest reported value wins.
		task.Progress = *upd.Progress
	}
	if upd.Message != nil {
		task.Message = *upd.Message
	}
	if upd.Result != nil {
		task.Result = upd.Result
	}
	if upd.Checkpoint != nil {
		if task.Params == nil {
			task.Params = map[string]any{}
		}
		task.Params[models.CheckpointParam] = *upd.Checkpoint
	}
	task.UpdatedAt = time.Now().UTC()

	if err := t.store.Save(table); err != nil {
		slog.Warn("failed to persist task update", "task_id", id, "error", err)
		return false
	}
	return true
}

// UpdateProgress sets progress and message without touching status; it
// is the direct target of a progress callback.
func (t *Tracker) UpdateProgress(id string, percent float64, message string) bool {
	upd := models.TaskUpdate{Progress: &percent}
	if message != "" {
		upd.Message = &message
	}
	return t.Update(id, upd)
}

// SetRunning moves a queued task to running.
func (t *Tracker) SetRunning(id string) bool {
	running := models.StatusRunning
	return t.Update(id, models.TaskUpdate{Status: &running})
}

// Complete performs the terminal transition to completed (success) or
// failed, storing the result. Completing an already-terminal task is
// rejected.
func (t *Tracker) Complete(id string, success bool, result map[string]any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := t.store.Load()
	task, ok := table[id]
	if !ok {
		slog.Warn("completion for unknown task", "task_id", id)
		return false
	}
	if task.Status.Terminal() {
		slog.Warn("task already terminal", "task_id", id, "status", task.Status)
		return false
	}

	if success {
		task.Status = models.StatusCompleted
		task.Progress = 100
	} else {
		task.Status = models.StatusFailed
	}
	if result != nil {
		task.Result = result
	}
	task.UpdatedAt = time.Now().UTC()

	if err := t.store.Save(table); err != nil {
		slog.Warn("failed to persist task completion", "task_id", id, "error", err)
		return false
	}

	slog.Info("task finished", "task_id", id, "status", task.Status)
	return true
}

// Cancel marks a queued or running task cancelled. Returns false for
// unknown ids and already-terminal tasks. Cancelling only records
// intent; the operation must observe its cancellation token to halt.
func (t *Tracker) Cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := t.store.Load()
	task, ok := table[id]
	if !ok {
		slog.Warn("cancel for unknown task", "task_id", id)
		return false
	}
	if !task.Status.Resumable() {
		return false
	}

	task.Status = models.StatusCancelled
	task.UpdatedAt = time.Now().UTC()

	if err := t.store.Save(table); err != nil {
		slog.Warn("failed to persist task cancellation", "task_id", id, "error", err)
		return false
	}

	slog.Info("task cancelled", "task_id", id)
	return true
}

// Get returns a copy of the task, or nil if unknown.
func (t *Tracker) Get(id string) *models.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.store.Load()[id]
	if !ok {
		return nil
	}
	return task.Clone()
}

// ListFilter narrows List results. Zero values mean "no filter";
// Limit 0 means DefaultListLimit.
type ListFilter struct {
	Status models.TaskStatus
	Type   string
	Limit  int
}

// List returns tasks newest-first by updated_at, bounded by the limit.
func (t *Tracker) List(f ListFilter) []*models.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	tasks := t.collect(func(task *models.Task) bool {
		if f.Status != "" && task.Status != f.Status {
			return false
		}
		if f.Type != "" && task.Type != f.Type {
			return false
		}
		return true
	})
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks
}

// ListResumable returns exactly the tasks with status queued or running,
// newest-first: work that was in flight when the process last stopped.
func (t *Tracker) ListResumable() []*models.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.collect(func(task *models.Task) bool {
		return task.Status.Resumable()
	})
}

// collect filters and sorts under the caller's lock.
func (t *Tracker) collect(keep func(*models.Task) bool) []*models.Task {
	table := t.store.Load()
	tasks := make([]*models.Task, 0, len(table))
	for _, task := range table {
		if keep(task) {
			tasks = append(tasks, task.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].UpdatedAt.Equal(tasks[j].UpdatedAt) {
			return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}

// CacheSizeMB reports the on-disk footprint of the store in megabytes.
func (t *Tracker) CacheSizeMB() float64 {
	return float64(t.store.SizeBytes()) / (1024 * 1024)
}

// ClearCache removes all task records and temp artifacts.
func (t *Tracker) ClearCache() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Clear(); err != nil {
		slog.Warn("failed to clear task store", "error", err)
		return false
	}
	slog.Info("task store cleared")
	return true
}
