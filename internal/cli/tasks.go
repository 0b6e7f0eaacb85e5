package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	tasksStatus    string
	tasksType      string
	tasksLimit     int
	tasksResumable bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [task-id]",
	Short: "List or inspect tracked tasks",
	Long: `List tracked tasks or inspect a specific task by ID.

Examples:
  taskkit tasks                     # List recent tasks
  taskkit tasks --status running    # Only running tasks
  taskkit tasks --resumable         # Tasks interrupted mid-flight
  taskkit tasks abc123de           # Show details for one task`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status (queued|running|completed|failed|cancelled)")
	tasksCmd.Flags().StringVar(&tasksType, "type", "", "filter by task type")
	tasksCmd.Flags().IntVar(&tasksLimit, "limit", tracker.DefaultListLimit, "maximum number of tasks to list")
	tasksCmd.Flags().BoolVar(&tasksResumable, "resumable", false, "list only resumable tasks")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return showTask(args[0])
	}
	return listTasks()
}

func listTasks() error {
	var tasks []*models.Task
	if tasksResumable {
		tasks = trk.ListResumable()
	} else {
		filter := tracker.ListFilter{Type: tasksType, Limit: tasksLimit}
		if tasksStatus != "" {
			status := models.TaskStatus(tasksStatus)
			if !status.Valid() {
				return fmt.Errorf("unknown status: %s", tasksStatus)
			}
			filter.Status = status
		}
		tasks = trk.List(filter)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-10s %-12s %-10s %-9s %-20s %s\n", "ID", "TYPE", "STATUS", "PROGRESS", "UPDATED", "DESCRIPTION")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, task := range tasks {
		fmt.Printf("%-10s %-12s %-10s %-9s %-20s %s\n",
			task.ID, task.Type, task.Status,
			fmt.Sprintf("%.0f%%", task.Progress),
			task.UpdatedAgo(now), task.Description)
		if verbose {
			if task.Message != "" {
				fmt.Printf("           %s\n", task.Message)
			}
			if cp := task.Checkpoint(); cp != "" {
				fmt.Printf("           checkpoint: %s\n", cp)
			}
		}
	}
	return nil
}

func showTask(id string) error {
	task := trk.Get(id)
	if task == nil {
		return fmt.Errorf("task not found: %s", id)
	}

	fmt.Printf("Task: %s\n", task.ID)
	fmt.Printf("  Type: %s\n", task.Type)
	fmt.Printf("  Status: %s\n", task.Status)
	fmt.Printf("  Progress: %.0f%%\n", task.Progress)
	if task.Description != "" {
		fmt.Printf("  Description: %s\n", task.Description)
	}
	if task.Message != "" {
		fmt.Printf("  Message: %s\n", task.Message)
	}
	fmt.Printf("  Created: %s\n", task.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Updated: %s (%s)\n", task.UpdatedAt.Format(time.RFC3339), task.UpdatedAgo(time.Now()))

	if len(task.Params) > 0 {
		fmt.Println("\nParams:")
		printMap(task.Params)
	}
	if len(task.Result) > 0 {
		fmt.Println("\nResult:")
		printMap(task.Result)
	}
	return nil
}

func printMap(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, m[k])
	}
}
