package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a queued or running task",
	Long: `Mark a queued or running task as cancelled.

Cancellation is cooperative: the record is marked immediately, and the
operation driving the task stops at its next cancellation check.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !trk.Cancel(id) {
		return fmt.Errorf("task %s not found or already finished", id)
	}
	fmt.Printf("Task %s cancelled\n", id)
	return nil
}
