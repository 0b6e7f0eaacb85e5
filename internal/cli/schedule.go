package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/taskkit/internal/sched"
	"github.com/spf13/cobra"
)

var (
	schedTaskType     string
	schedSourceType   string
	schedSource       string
	schedDatasetName  string
	schedDatasetPath  string
	schedScheduleType string
	schedCronExpr     string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled dataset-update tasks",
	Long: `Manage recurring dataset-update tasks.

Schedules are stored in a YAML file. 'taskkit schedule run' hosts them
in an in-process cron runner; alternatively, point an external cron job
at 'taskkit update' directly.`,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		schedules, err := scheduleManager().List()
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			fmt.Println("No scheduled tasks found.")
			return nil
		}
		fmt.Printf("Found %d scheduled tasks:\n", len(schedules))
		for i, s := range schedules {
			fmt.Printf("%d. %s - %s\n", i+1, s.ID, s.Description())
		}
		return nil
	},
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a schedule",
	Long: `Create a scheduled dataset-update task.

Schedule types: daily, weekly, biweekly, monthly, or custom with an
explicit five-field cron expression.

Examples:
  taskkit schedule add --source ./docs --dataset-name docs --schedule-type daily
  taskkit schedule add --source ./wiki --dataset-name wiki --schedule-type custom --cron "30 6 * * 1-5"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := scheduleManager().Create(sched.Schedule{
			TaskType:     schedTaskType,
			SourceType:   schedSourceType,
			SourceName:   schedSource,
			DatasetName:  schedDatasetName,
			DatasetPath:  schedDatasetPath,
			ScheduleType: schedScheduleType,
			CronExpr:     schedCronExpr,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Scheduled task created with ID: %s\n", id)
		return nil
	},
}

var scheduleUpdateCmd = &cobra.Command{
	Use:   "update <schedule-id>",
	Short: "Change a schedule's cadence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := scheduleManager().UpdateSchedule(args[0], schedScheduleType, schedCronExpr)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("schedule not found: %s", args[0])
		}
		fmt.Printf("Scheduled task %s updated\n", args[0])
		return nil
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete <schedule-id>",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := scheduleManager().Delete(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("schedule not found: %s", args[0])
		}
		fmt.Printf("Scheduled task %s deleted\n", args[0])
		return nil
	},
}

var scheduleRunNowCmd = &cobra.Command{
	Use:   "run-now <schedule-id>",
	Short: "Run a schedule immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scheduleManager().Get(args[0])
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("schedule not found: %s", args[0])
		}
		return scheduleEntry(context.Background(), *s)
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the schedule daemon",
	Long:  `Host all schedules in an in-process cron runner until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptContext()
		defer stop()

		started := time.Now()
		daemon := sched.NewDaemon(scheduleManager(), scheduleEntry)
		if err := daemon.Run(ctx); err != nil {
			return err
		}
		slog.Info("schedule daemon stopped", "uptime", time.Since(started).Round(time.Second))
		return nil
	},
}

func init() {
	scheduleAddCmd.Flags().StringVar(&schedTaskType, "task-type", "url_update", "task type to run")
	scheduleAddCmd.Flags().StringVar(&schedSourceType, "source-type", "directory", "source type")
	scheduleAddCmd.Flags().StringVarP(&schedSource, "source", "s", "", "source directory (required)")
	scheduleAddCmd.Flags().StringVarP(&schedDatasetName, "dataset-name", "n", "", "dataset name (required)")
	scheduleAddCmd.Flags().StringVar(&schedDatasetPath, "dataset-path", "", "output snapshot path")
	scheduleAddCmd.Flags().StringVar(&schedScheduleType, "schedule-type", sched.ScheduleDaily, "daily|weekly|biweekly|monthly|custom")
	scheduleAddCmd.Flags().StringVar(&schedCronExpr, "cron", "", "cron expression for custom schedules")
	scheduleAddCmd.MarkFlagRequired("source")
	scheduleAddCmd.MarkFlagRequired("dataset-name")

	scheduleUpdateCmd.Flags().StringVar(&schedScheduleType, "schedule-type", "", "daily|weekly|biweekly|monthly|custom")
	scheduleUpdateCmd.Flags().StringVar(&schedCronExpr, "cron", "", "cron expression for custom schedules")
	scheduleUpdateCmd.MarkFlagRequired("schedule-type")

	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleUpdateCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)
	scheduleCmd.AddCommand(scheduleRunNowCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func scheduleManager() *sched.Manager {
	return sched.NewManager(cfg.SchedulesPath)
}

// scheduleEntry re-enters the tracker for one schedule firing.
func scheduleEntry(ctx context.Context, s sched.Schedule) error {
	switch s.TaskType {
	case "url_update", "update":
		return datasetUpdateEntry(ctx, s.SourceName, s.DatasetName, s.DatasetPath, true)
	default:
		return fmt.Errorf("unsupported task type: %s", s.TaskType)
	}
}
