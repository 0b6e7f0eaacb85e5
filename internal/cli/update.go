package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/taskkit/internal/ops"
	"github.com/spf13/cobra"
)

var (
	updateSource      string
	updateDatasetName string
	updateDatasetPath string
	updateRecursive   bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh a dataset snapshot as a tracked task",
	Long: `Refresh a dataset snapshot from a source directory, non-interactively.

This is the entry point scheduled jobs invoke: it creates an url_update
task, runs it to completion printing coarse progress, and exits non-zero
if the task does not complete.

Examples:
  taskkit update --source ./docs --dataset-name docs
  taskkit update --source ./wiki --dataset-name wiki --dataset-path /data/wiki.jsonl`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateSource, "source", "s", "", "source directory (required)")
	updateCmd.Flags().StringVarP(&updateDatasetName, "dataset-name", "n", "", "dataset name (required)")
	updateCmd.Flags().StringVar(&updateDatasetPath, "dataset-path", "", "output snapshot path (default under TASKKIT_HOME/datasets)")
	updateCmd.Flags().BoolVarP(&updateRecursive, "recursive", "r", true, "recursively process subdirectories")
	updateCmd.MarkFlagRequired("source")
	updateCmd.MarkFlagRequired("dataset-name")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return datasetUpdateEntry(context.Background(), updateSource, updateDatasetName, updateDatasetPath, updateRecursive)
}

// datasetUpdateEntry is the shared re-entry path: the update command and
// the schedule daemon both create and run an url_update task through it.
func datasetUpdateEntry(ctx context.Context, source, datasetName, datasetPath string, recursive bool) error {
	src, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source must be a directory: %s", src)
	}
	if datasetName == "" {
		return fmt.Errorf("dataset name is required")
	}
	if datasetPath == "" {
		datasetPath = filepath.Join(cfg.HomeDir, "datasets", datasetName+".jsonl")
	}

	id, err := trk.Create(ops.TaskTypeURLUpdate,
		fmt.Sprintf("Update dataset %q from %s", datasetName, src),
		map[string]any{
			ops.ParamDirPath:     src,
			ops.ParamRecursive:   recursive,
			ops.ParamDatasetName: datasetName,
			ops.ParamDatasetPath: datasetPath,
		})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	fmt.Printf("Created task %s\n", id)

	runner, _, sigCtx, stop := newRunner(ctx)
	defer stop()

	if err := runForeground(sigCtx, runner, id, false); err != nil {
		return err
	}
	fmt.Printf("Dataset %q updated: %s\n", datasetName, datasetPath)
	return nil
}
