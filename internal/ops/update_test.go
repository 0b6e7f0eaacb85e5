package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/taskkit/internal/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetUpdate_WritesSnapshot(t *testing.T) {
	tr := newTestTracker(t)
	dir := writeSourceDir(t)
	outPath := filepath.Join(t.TempDir(), "datasets", "docs.jsonl")

	id, err := tr.Create(TaskTypeURLUpdate, "dataset refresh", map[string]any{
		ParamDirPath:     dir,
		ParamRecursive:   true,
		ParamDatasetName: "docs",
		ParamDatasetPath: outPath,
	})
	require.NoError(t, err)

	exec := DatasetUpdate(tr)
	result, err := exec(context.Background(), tr.Get(id), run.TrackerReporter(tr, id), run.NewToken())
	require.NoError(t, err)

	assert.Equal(t, "docs", result["dataset_name"])
	assert.Equal(t, outPath, result["dataset_path"])
	assert.Equal(t, 4, result["records"])

	task := tr.Get(id)
	assert.Equal(t, float64(100), task.Progress)
	// The stage checkpoint records where an interrupted task restarts.
	assert.Equal(t, StageUpload, task.Checkpoint())

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	var records []datasetRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec datasetRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 4)
	assert.Equal(t, "a.txt", records[0].Source)
	assert.Equal(t, "alpha\n", records[0].Text)
	assert.Equal(t, 1, records[0].Lines)
	assert.Equal(t, filepath.Join("sub", "d.txt"), records[3].Source)
}

func TestDatasetUpdate_RewriteIsIdempotent(t *testing.T) {
	tr := newTestTracker(t)
	dir := writeSourceDir(t)
	outPath := filepath.Join(t.TempDir(), "docs.jsonl")

	params := map[string]any{
		ParamDirPath:     dir,
		ParamRecursive:   true,
		ParamDatasetName: "docs",
		ParamDatasetPath: outPath,
	}

	exec := DatasetUpdate(tr)
	for i := 0; i < 2; i++ {
		id, err := tr.Create(TaskTypeURLUpdate, "refresh", params)
		require.NoError(t, err)
		result, err := exec(context.Background(), tr.Get(id), run.TrackerReporter(tr, id), run.NewToken())
		require.NoError(t, err)
		// A re-run never duplicates records.
		assert.Equal(t, 4, result["records"])
	}

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 4, lines)
}

func TestDatasetUpdate_Cancellation(t *testing.T) {
	tr := newTestTracker(t)
	dir := writeSourceDir(t)
	outPath := filepath.Join(t.TempDir(), "docs.jsonl")

	id, err := tr.Create(TaskTypeURLUpdate, "cancelled refresh", map[string]any{
		ParamDirPath:     dir,
		ParamDatasetName: "docs",
		ParamDatasetPath: outPath,
	})
	require.NoError(t, err)

	token := run.NewToken()
	token.Cancel()

	exec := DatasetUpdate(tr)
	_, err = exec(context.Background(), tr.Get(id), run.TrackerReporter(tr, id), token)
	assert.ErrorIs(t, err, run.ErrCancelled)
}

func TestDatasetUpdate_MissingParams(t *testing.T) {
	tr := newTestTracker(t)
	dir := writeSourceDir(t)

	tests := []struct {
		name   string
		params map[string]any
	}{
		{"no params", nil},
		{"missing dataset path", map[string]any{ParamDirPath: dir}},
		{"missing dir path", map[string]any{ParamDatasetPath: "/tmp/out.jsonl"}},
	}

	exec := DatasetUpdate(tr)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tr.Create(TaskTypeURLUpdate, "bad params", tt.params)
			require.NoError(t, err)
			_, err = exec(context.Background(), tr.Get(id), run.TrackerReporter(tr, id), run.NewToken())
			assert.Error(t, err)
		})
	}
}
