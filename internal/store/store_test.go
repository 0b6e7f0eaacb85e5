package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/taskkit/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "tasks.json"))
}

func sampleTable() map[string]*models.Task {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return map[string]*models.Task{
		"aaaa1111": {
			ID:          "aaaa1111",
			Type:        "scrape",
			Status:      models.StatusRunning,
			Progress:    40,
			Message:     "fetching",
			Description: "Scrape of /tmp/docs",
			Params:      map[string]any{"url": "https://example.com", "recursive": true},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		"bbbb2222": {
			ID:        "bbbb2222",
			Type:      "url_update",
			Status:    models.StatusCompleted,
			Progress:  100,
			Result:    map[string]any{"pages": float64(12)},
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := testStore(t)
	table := s.Load()
	if len(table) != 0 {
		t.Errorf("Load() on missing file = %d tasks, want 0", len(table))
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	table := s.Load()
	if len(table) != 0 {
		t.Errorf("Load() on corrupt file = %d tasks, want 0", len(table))
	}

	// A corrupt store must never block new writes.
	if err := s.Save(sampleTable()); err != nil {
		t.Fatalf("Save() after corrupt load: %v", err)
	}
	if got := s.Load(); len(got) != 2 {
		t.Errorf("Load() after recovery = %d tasks, want 2", len(got))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := testStore(t)
	if err := s.Save(sampleTable()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded := s.Load()
	if len(loaded) != 2 {
		t.Fatalf("Load() = %d tasks, want 2", len(loaded))
	}

	task := loaded["aaaa1111"]
	if task == nil {
		t.Fatal("task aaaa1111 missing after reload")
	}
	if task.Status != models.StatusRunning || task.Progress != 40 || task.Message != "fetching" {
		t.Errorf("task fields lost in round-trip: %+v", task)
	}
	if task.Params["url"] != "https://example.com" {
		t.Errorf("params lost in round-trip: %v", task.Params)
	}
}

func TestSaveLoad_Idempotent(t *testing.T) {
	s := testStore(t)
	if err := s.Save(sampleTable()); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	// Writing back an unmodified loaded table reproduces the file.
	if err := s.Save(s.Load()); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Errorf("save(load()) not idempotent:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestSave_ReplacesNotTruncates(t *testing.T) {
	s := testStore(t)
	if err := s.Save(sampleTable()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(map[string]*models.Task{}); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load() after empty save = %d tasks, want 0", len(got))
	}

	// No temp artifacts left behind by successful saves.
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), tempPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestSizeBytesAndClear(t *testing.T) {
	s := testStore(t)
	if got := s.SizeBytes(); got != 0 {
		t.Errorf("SizeBytes() on empty store = %d, want 0", got)
	}

	if err := s.Save(sampleTable()); err != nil {
		t.Fatal(err)
	}
	if got := s.SizeBytes(); got <= 0 {
		t.Errorf("SizeBytes() after save = %d, want > 0", got)
	}

	// Leftover temp artifacts count toward the footprint and get cleared.
	stale := filepath.Join(filepath.Dir(s.Path()), ".tasks-stale.tmp")
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	withTemp := s.SizeBytes()
	if withTemp <= 0 {
		t.Fatalf("SizeBytes() with temp artifact = %d", withTemp)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if got := s.SizeBytes(); got != 0 {
		t.Errorf("SizeBytes() after clear = %d, want 0", got)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Clear() left temp artifact behind")
	}
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load() after clear = %d tasks, want 0", len(got))
	}
}
