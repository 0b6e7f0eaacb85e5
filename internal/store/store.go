// Package store persists the task table as a single JSON document on
// local disk. The table is loaded into memory and rewritten wholesale on
// each mutation; expected task counts are small (tens to low hundreds).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/taskkit/internal/models"
)

// SchemaVersion is written into the store file to allow future format
// evolution.
const SchemaVersion = 1

const tempPattern = ".tasks-*.tmp"

// Store reads and writes the task table at a fixed path.
type Store struct {
	path string
}

// New creates a store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// document is the on-disk envelope.
type document struct {
	SchemaVersion int                     `json:"schema_version"`
	Tasks         map[string]*models.Task `json:"tasks"`
}

// Load reads the task table. A missing or corrupt file is treated as an
// empty table and logged, never raised: a bad state file must not block
// new task creation.
func (s *Store) Load() map[string]*models.Task {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("task store unreadable, starting empty", "path", s.path, "error", err)
		}
		return map[string]*models.Task{}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("task store corrupt, starting empty", "path", s.path, "error", err)
		return map[string]*models.Task{}
	}
	if doc.Tasks == nil {
		return map[string]*models.Task{}
	}
	return doc.Tasks
}

// Save writes the full table atomically (write-temp-then-rename) so a
// crash mid-write leaves either the old file or the new complete file,
// never a truncated one.
func (s *Store) Save(table map[string]*models.Task) error {
	doc := document{SchemaVersion: SchemaVersion, Tasks: table}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task table: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := f.Name()
	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write task table: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync task table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("replace task store: %w", err)
	}
	ok = true
	return nil
}

// SizeBytes reports the on-disk footprint of the store file plus any
// leftover temp artifacts in the same directory.
func (s *Store) SizeBytes() int64 {
	var total int64
	if info, err := os.Stat(s.path); err == nil {
		total += info.Size()
	}
	for _, p := range s.tempFiles() {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}

// Clear removes the store file and any leftover temp artifacts.
func (s *Store) Clear() error {
	var errs []error
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	for _, p := range s.tempFiles() {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) tempFiles() []string {
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(s.path), tempPattern))
	if err != nil {
		return nil
	}
	return matches
}
