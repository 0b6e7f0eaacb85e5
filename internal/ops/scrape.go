// Package ops provides the built-in task executors. Both operate on the
// local filesystem, report progress on the 0-100 scale, poll their
// cancellation token per file, and record resume checkpoints through the
// tracker.
package ops

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/run"
	"github.com/raphaelgruber/taskkit/internal/tracker"
)

// Param keys shared by the built-in executors.
const (
	ParamDirPath     = "dir_path"
	ParamRecursive   = "recursive"
	ParamDatasetName = "dataset_name"
	ParamDatasetPath = "dataset_path"
)

// TaskTypeScrape is the task type handled by the Scrape executor.
const TaskTypeScrape = "scrape"

// Scrape returns an executor that walks a source directory and processes
// each file. Discovery maps to 0-10% and processing to 10-100%. A
// resume checkpoint naming the last processed file is written after
// every file, so an interrupted task picks up where it left off.
func Scrape(tr *tracker.Tracker) run.Executor {
	return func(ctx context.Context, task *models.Task, report run.Reporter, token *run.Token) (map[string]any, error) {
		dir, ok := task.StringParam(ParamDirPath)
		if !ok || dir == "" {
			return nil, fmt.Errorf("missing %q param", ParamDirPath)
		}

		report(0, "discovering files")
		files, err := collectFiles(dir, task.BoolParam(ParamRecursive))
		if err != nil {
			return nil, fmt.Errorf("discover files: %w", err)
		}
		report(10, fmt.Sprintf("discovered %d files", len(files)))

		// Skip everything up to and including the checkpoint. Files are
		// sorted, so the checkpoint fully determines the remaining work.
		skipped := 0
		if cp := task.Checkpoint(); cp != "" {
			for skipped < len(files) && files[skipped] <= cp {
				skipped++
			}
			slog.Info("resuming from checkpoint", "task_id", task.ID, "checkpoint", cp, "skipped", skipped)
		}

		var bytesRead int64
		total := len(files)
		for i, path := range files[skipped:] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if token.Cancelled() {
				return nil, run.ErrCancelled
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			bytesRead += int64(len(data))

			done := skipped + i + 1
			percent := 10 + 90*float64(done)/float64(total)
			report(percent, fmt.Sprintf("processed %s", filepath.Base(path)))

			cp := path
			tr.Update(task.ID, models.TaskUpdate{Checkpoint: &cp})
		}

		return map[string]any{
			"files_processed": total - skipped,
			"files_skipped":   skipped,
			"bytes_read":      bytesRead,
		}, nil
	}
}

// collectFiles lists regular files under dir in sorted order, skipping
// dotfiles and, unless recursive, subdirectories.
func collectFiles(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != dir && (!recursive || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
