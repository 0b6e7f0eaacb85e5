package run

import "testing"

func TestToken(t *testing.T) {
	tok := NewToken()
	if tok.Cancelled() {
		t.Error("fresh token reports cancelled")
	}

	select {
	case <-tok.Done():
		t.Error("fresh token Done() channel closed")
	default:
	}

	tok.Cancel()
	if !tok.Cancelled() {
		t.Error("cancelled token reports not cancelled")
	}

	// Cancel is idempotent.
	tok.Cancel()
	tok.Cancel()

	select {
	case <-tok.Done():
	default:
		t.Error("Done() channel not closed after cancel")
	}
}

func TestSource_PerTaskTokens(t *testing.T) {
	src := NewSource()

	a := src.Token("task-a")
	b := src.Token("task-b")
	if a == b {
		t.Fatal("distinct tasks share a token")
	}
	if src.Token("task-a") != a {
		t.Error("repeated Token() call returned a different token")
	}

	if !src.Cancel("task-a") {
		t.Error("Cancel for known task returned false")
	}
	if !a.Cancelled() {
		t.Error("task-a token not cancelled")
	}
	if b.Cancelled() {
		t.Error("task-b token cancelled by task-a cancel")
	}

	if src.Cancel("never-seen") {
		t.Error("Cancel for unknown task returned true")
	}
}

func TestSource_CancelAll(t *testing.T) {
	src := NewSource()
	a := src.Token("task-a")
	b := src.Token("task-b")

	src.CancelAll()
	if !a.Cancelled() || !b.Cancelled() {
		t.Error("CancelAll left a token unset")
	}
}

func TestSource_Release(t *testing.T) {
	src := NewSource()
	a := src.Token("task-a")
	src.Release("task-a")

	if src.Cancel("task-a") {
		t.Error("Cancel after Release returned true")
	}
	// A fresh token is handed out after release.
	if src.Token("task-a") == a {
		t.Error("Token after Release returned the released token")
	}
}
