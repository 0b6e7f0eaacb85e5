package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/raphaelgruber/taskkit/internal/tracker"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	Long:  `Show task counts by type and status, plus run times derived from the task history.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// listAllFilter returns a filter large enough to cover the whole store.
func listAllFilter() tracker.ListFilter {
	return tracker.ListFilter{Limit: 1 << 20}
}

type typeStats struct {
	byStatus  map[models.TaskStatus]int
	total     int
	completed int
	totalTime time.Duration
}

func runStats(cmd *cobra.Command, args []string) error {
	tasks := trk.List(listAllFilter())
	if len(tasks) == 0 {
		fmt.Println("No tasks recorded")
		return nil
	}

	perType := map[string]*typeStats{}
	active := 0
	for _, task := range tasks {
		s, ok := perType[task.Type]
		if !ok {
			s = &typeStats{byStatus: map[models.TaskStatus]int{}}
			perType[task.Type] = s
		}
		s.byStatus[task.Status]++
		s.total++
		if task.Status == models.StatusCompleted {
			s.completed++
			s.totalTime += task.UpdatedAt.Sub(task.CreatedAt)
		}
		if task.Status.Resumable() {
			active++
		}
	}

	fmt.Printf("Tasks: %d total, %d active\n\n", len(tasks), active)

	types := make([]string, 0, len(perType))
	for t := range perType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("%-14s %-7s %-10s %-8s %-10s %s\n", "TYPE", "TOTAL", "COMPLETED", "FAILED", "CANCELLED", "AVG TIME")
	fmt.Println("-----------------------------------------------------------------")
	for _, t := range types {
		s := perType[t]
		avg := "-"
		if s.completed > 0 {
			avg = (s.totalTime / time.Duration(s.completed)).Round(time.Second).String()
		}
		fmt.Printf("%-14s %-7d %-10d %-8d %-10d %s\n",
			t, s.total,
			s.byStatus[models.StatusCompleted],
			s.byStatus[models.StatusFailed],
			s.byStatus[models.StatusCancelled],
			avg)
	}

	fmt.Printf("\nCache size: %.2f MB\n", trk.CacheSizeMB())
	return nil
}
