// Package cli provides the command-line interface for taskkit.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/taskkit/internal/config"
	"github.com/raphaelgruber/taskkit/internal/metrics"
	"github.com/raphaelgruber/taskkit/internal/ops"
	"github.com/raphaelgruber/taskkit/internal/run"
	"github.com/raphaelgruber/taskkit/internal/store"
	"github.com/raphaelgruber/taskkit/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and tracker
	cfg config.Config
	trk *tracker.Tracker

	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "taskkit",
	Short: "Resumable task tracking for scrape and dataset pipelines",
	Long: `Taskkit tracks long-running, multi-stage, cancellable operations -
scrapes, dataset refreshes - so they survive interruption and can be
resumed, watched, and scheduled.

Task state lives in a local JSON store. Operations report progress
through a callback and stop cooperatively when cancelled.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logCleanup = cleanup

		trk = tracker.New(store.New(cfg.StorePath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newRunner builds a runner with the built-in executors registered and a
// signal-driven cancel-all: a process interrupt cancels every in-flight
// task so records reach a terminal state instead of dangling as running.
func newRunner(ctx context.Context) (*run.Runner, *metrics.Collector, context.Context, context.CancelFunc) {
	source := run.NewSource()
	collector := metrics.NewCollector()

	runner := run.NewRunner(trk, source, collector)
	runner.Register(ops.TaskTypeScrape, ops.Scrape(trk))
	runner.Register(ops.TaskTypeURLUpdate, ops.DatasetUpdate(trk))

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCtx.Done()
		source.CancelAll()
	}()

	return runner, collector, sigCtx, stop
}

// interruptContext returns a context cancelled by SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
