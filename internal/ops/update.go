package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/run"
	"github.com/raphaelgruber/taskkit/internal/tracker"
)

// TaskTypeURLUpdate is the task type handled by the DatasetUpdate
// executor. The name is kept for compatibility with records created by
// scheduler re-entry.
const TaskTypeURLUpdate = "url_update"

// Stage checkpoints recorded by DatasetUpdate.
const (
	StageFetch  = "fetch"
	StageUpload = "upload"
)

// datasetRecord is one line in the JSON-lines snapshot.
type datasetRecord struct {
	Source string `json:"source"`
	Bytes  int    `json:"bytes"`
	Lines  int    `json:"lines"`
	Text   string `json:"text"`
}

// DatasetUpdate returns an executor that refreshes a dataset snapshot
// from a source directory: the read stage maps to 0-50% and the write
// stage to 50-100%. The stage name is recorded as the checkpoint; both
// stages are idempotent, so a resumed task simply redoes the recorded
// stage.
func DatasetUpdate(tr *tracker.Tracker) run.Executor {
	return func(ctx context.Context, task *models.Task, report run.Reporter, token *run.Token) (map[string]any, error) {
		dir, ok := task.StringParam(ParamDirPath)
		if !ok || dir == "" {
			return nil, fmt.Errorf("missing %q param", ParamDirPath)
		}
		outPath, ok := task.StringParam(ParamDatasetPath)
		if !ok || outPath == "" {
			return nil, fmt.Errorf("missing %q param", ParamDatasetPath)
		}
		datasetName, _ := task.StringParam(ParamDatasetName)

		setStage := func(stage string) {
			tr.Update(task.ID, models.TaskUpdate{Checkpoint: &stage})
		}

		// Read stage: 0-50%.
		setStage(StageFetch)
		report(0, "reading source files")
		files, err := collectFiles(dir, task.BoolParam(ParamRecursive))
		if err != nil {
			return nil, fmt.Errorf("discover files: %w", err)
		}

		records := make([]datasetRecord, 0, len(files))
		var totalBytes int64
		for i, path := range files {
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
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				rel = path
			}
			records = append(records, datasetRecord{
				Source: rel,
				Bytes:  len(data),
				Lines:  countLines(data),
				Text:   string(data),
			})
			totalBytes += int64(len(data))
			report(50*float64(i+1)/float64(len(files)), fmt.Sprintf("read %s", rel))
		}

		// Write stage: 50-100%. The snapshot is rewritten from scratch,
		// so a retry after interruption never duplicates records.
		setStage(StageUpload)
		report(50, "writing dataset snapshot")
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return nil, fmt.Errorf("create dataset directory: %w", err)
		}
		out, err := os.Create(outPath)
		if err != nil {
			return nil, fmt.Errorf("create dataset snapshot: %w", err)
		}
		defer out.Close()

		enc := json.NewEncoder(out)
		for i, rec := range records {
			if token.Cancelled() {
				return nil, run.ErrCancelled
			}
			if err := enc.Encode(rec); err != nil {
				return nil, fmt.Errorf("write record %d: %w", i, err)
			}
			report(50+50*float64(i+1)/float64(len(records)), fmt.Sprintf("wrote %s", rec.Source))
		}
		if err := out.Sync(); err != nil {
			return nil, fmt.Errorf("sync dataset snapshot: %w", err)
		}

		return map[string]any{
			"dataset_name": datasetName,
			"dataset_path": outPath,
			"records":      len(records),
			"bytes":        totalBytes,
		}, nil
	}
}
