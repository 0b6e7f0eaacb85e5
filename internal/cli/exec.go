package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/run"
)

// runForeground dispatches a task and blocks until it reaches a terminal
// state. Interactive mode shows the progress UI with Ctrl+C wired to
// cooperative cancellation; plain mode prints a coarse progress line at
// every 10% for cron and log contexts.
func runForeground(ctx context.Context, runner *run.Runner, taskID string, interactive bool) error {
	if err := runner.Start(ctx, taskID); err != nil {
		return err
	}

	if interactive {
		uiErr := runWatchUI(taskID, func() bool {
			// Mark intent on the record, then fire the token so the
			// operation stops at its next check.
			cancelled := trk.Cancel(taskID)
			runner.Source().Cancel(taskID)
			return cancelled
		})
		runner.Wait()
		if uiErr != nil {
			return uiErr
		}
	} else {
		pollPlain(taskID)
		runner.Wait()
	}

	task := trk.Get(taskID)
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}
	switch task.Status {
	case models.StatusCompleted:
		return nil
	case models.StatusCancelled:
		return fmt.Errorf("task %s cancelled", taskID)
	default:
		return fmt.Errorf("task %s failed: %s", taskID, failureMessage(task))
	}
}

// pollPlain prints progress at 10% steps until the task is terminal.
func pollPlain(taskID string) {
	lastStep := -1
	for {
		task := trk.Get(taskID)
		if task == nil {
			return
		}

		step := int(task.Progress) / 10
		if step > lastStep {
			status := fmt.Sprintf("Progress: %.0f%%", task.Progress)
			if task.Message != "" {
				status += " - " + task.Message
			}
			fmt.Println(status)
			lastStep = step
		}

		if task.Status.Terminal() {
			return
		}
		time.Sleep(pollInterval)
	}
}
