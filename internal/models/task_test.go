package models

import (
	"testing"
	"time"
)

func TestTaskStatus(t *testing.T) {
	tests := []struct {
		status    TaskStatus
		terminal  bool
		resumable bool
		valid     bool
	}{
		{StatusQueued, false, true, true},
		{StatusRunning, false, true, true},
		{StatusCompleted, true, false, true},
		{StatusFailed, true, false, true},
		{StatusCancelled, true, false, true},
		{TaskStatus("bogus"), false, false, false},
		{TaskStatus(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.Resumable(); got != tt.resumable {
				t.Errorf("Resumable() = %v, want %v", got, tt.resumable)
			}
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestTaskClone_Independence(t *testing.T) {
	task := &Task{
		ID:     "abc",
		Type:   "scrape",
		Status: StatusRunning,
		Params: map[string]any{"url": "https://example.com"},
		Result: map[string]any{"pages": 12},
	}

	c := task.Clone()
	c.Params["url"] = "https://other.example.com"
	c.Result["pages"] = 99
	c.Status = StatusCompleted

	if task.Params["url"] != "https://example.com" {
		t.Errorf("clone mutated original params: %v", task.Params)
	}
	if task.Result["pages"] != 12 {
		t.Errorf("clone mutated original result: %v", task.Result)
	}
	if task.Status != StatusRunning {
		t.Errorf("clone mutated original status: %v", task.Status)
	}
}

func TestTaskClone_NilMaps(t *testing.T) {
	task := &Task{ID: "abc"}
	c := task.Clone()
	if c.Params != nil || c.Result != nil {
		t.Errorf("clone invented maps: params=%v result=%v", c.Params, c.Result)
	}
}

func TestParamHelpers(t *testing.T) {
	task := &Task{Params: map[string]any{
		"url":        "https://example.com",
		"recursive":  true,
		"count":      3,
		"resume_from": "stage-2",
	}}

	if s, ok := task.StringParam("url"); !ok || s != "https://example.com" {
		t.Errorf("StringParam(url) = %q, %v", s, ok)
	}
	if _, ok := task.StringParam("missing"); ok {
		t.Error("StringParam(missing) reported ok")
	}
	if _, ok := task.StringParam("count"); ok {
		t.Error("StringParam on non-string reported ok")
	}
	if !task.BoolParam("recursive") {
		t.Error("BoolParam(recursive) = false")
	}
	if task.BoolParam("url") {
		t.Error("BoolParam on non-bool = true")
	}
	if task.Checkpoint() != "stage-2" {
		t.Errorf("Checkpoint() = %q", task.Checkpoint())
	}
}

func TestUpdatedAgo(t *testing.T) {
	now := time.Now()
	task := &Task{UpdatedAt: now.Add(-5 * time.Minute)}
	got := task.UpdatedAgo(now)
	if got != "5 minutes ago" {
		t.Errorf("UpdatedAgo() = %q, want %q", got, "5 minutes ago")
	}
}
