// Package models defines data structures for taskkit's task tracking.
package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	StatusQueued    TaskStatus = "queued"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal tasks never
// re-enter queued or running.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Resumable reports whether a task in this status is a candidate for
// resumption (work that was in flight when the process last stopped).
func (s TaskStatus) Resumable() bool {
	return s == StatusQueued || s == StatusRunning
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CheckpointParam is the one params key that may be rewritten after
// creation, to support resuming interrupted work.
const CheckpointParam = "resume_from"

// Task is a unit of trackable, potentially long-running, potentially
// resumable work.
type Task struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      TaskStatus     `json:"status"`
	Progress    float64        `json:"progress"` // 0-100
	Message     string         `json:"message,omitempty"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a copy of the task with its own params and result maps,
// so callers can't mutate stored state behind the tracker's back.
func (t *Task) Clone() *Task {
	c := *t
	if t.Params != nil {
		c.Params = make(map[string]any, len(t.Params))
		for k, v := range t.Params {
			c.Params[k] = v
		}
	}
	if t.Result != nil {
		c.Result = make(map[string]any, len(t.Result))
		for k, v := range t.Result {
			c.Result[k] = v
		}
	}
	return &c
}

// Checkpoint returns the resume checkpoint stored in params, if any.
func (t *Task) Checkpoint() string {
	s, _ := t.StringParam(CheckpointParam)
	return s
}

// StringParam looks up a string-valued param.
func (t *Task) StringParam(key string) (string, bool) {
	v, ok := t.Params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolParam looks up a bool-valued param.
func (t *Task) BoolParam(key string) bool {
	v, ok := t.Params[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// UpdatedAgo renders the time since the last update for display,
// e.g. "5 minutes ago".
func (t *Task) UpdatedAgo(now time.Time) string {
	return humanize.RelTime(t.UpdatedAt, now, "ago", "from now")
}

// TaskUpdate describes a partial update. Only non-nil fields are applied.
type TaskUpdate struct {
	Status     *TaskStatus
	Progress   *float64
	Message    *string
	Result     map[string]any
	Checkpoint *string // rewrites params[CheckpointParam]
}
