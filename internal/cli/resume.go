package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	resumeAll   bool
	resumePlain bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume [task-id]",
	Short: "Resume interrupted tasks",
	Long: `Resume tasks left queued or running by an interrupted process.

Without arguments, lists resumable tasks. With a task id, continues that
task under the same id from its recorded checkpoint. --all resumes every
resumable task.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().BoolVar(&resumeAll, "all", false, "resume every resumable task")
	resumeCmd.Flags().BoolVar(&resumePlain, "plain", false, "plain-text progress instead of the progress UI")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return resumeOne(args[0])
	}
	if resumeAll {
		return resumeEverything()
	}
	return listResumable()
}

func listResumable() error {
	tasks := trk.ListResumable()
	if len(tasks) == 0 {
		fmt.Println("No resumable tasks found.")
		return nil
	}

	now := time.Now()
	fmt.Println("Resumable tasks:")
	for i, task := range tasks {
		desc := task.Description
		if desc == "" {
			desc = task.Type
		}
		fmt.Printf("%d. %s  %s (%.0f%% complete, updated %s)\n",
			i+1, task.ID, desc, task.Progress, task.UpdatedAgo(now))
	}
	fmt.Println("\nUse 'taskkit resume <task-id>' to continue one, or 'taskkit resume --all'.")
	return nil
}

func resumeOne(id string) error {
	task := trk.Get(id)
	if task == nil {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status.Terminal() {
		return fmt.Errorf("task %s already %s, nothing to resume", id, task.Status)
	}

	if cp := task.Checkpoint(); cp != "" {
		fmt.Printf("Resuming task %s from checkpoint %q...\n", id, cp)
	} else {
		fmt.Printf("Resuming task %s...\n", id)
	}

	runner, _, sigCtx, stop := newRunner(context.Background())
	defer stop()

	return runForeground(sigCtx, runner, id, !resumePlain)
}

func resumeEverything() error {
	runner, collector, sigCtx, stop := newRunner(context.Background())
	defer stop()

	n := runner.ResumeAll(sigCtx)
	if n == 0 {
		fmt.Println("No resumable tasks found.")
		return nil
	}

	fmt.Printf("Resumed %d tasks, waiting for completion...\n", n)
	runner.Wait()

	snap := collector.Snapshot()
	failed := int64(0)
	for taskType, s := range snap.PerType {
		fmt.Printf("%s: %d completed, %d failed, %d cancelled\n",
			taskType, s.Completed, s.Failed, s.Cancelled)
		failed += s.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d tasks failed", failed)
	}
	return nil
}
