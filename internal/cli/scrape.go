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
	scrapeRecursive   bool
	scrapeDescription string
	scrapePlain       bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <path>",
	Short: "Scrape a source directory as a tracked task",
	Long: `Process every file under a directory as a tracked, resumable task.

Progress is checkpointed per file: if the run is interrupted, resuming
the task continues after the last processed file.

Examples:
  taskkit scrape ./docs
  taskkit scrape ./wiki --recursive=false
  taskkit scrape ./notes --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVarP(&scrapeRecursive, "recursive", "r", true, "recursively process subdirectories")
	scrapeCmd.Flags().StringVarP(&scrapeDescription, "description", "d", "", "task description for display")
	scrapeCmd.Flags().BoolVar(&scrapePlain, "plain", false, "plain-text progress instead of the progress UI")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path must be a directory: %s", path)
	}

	description := scrapeDescription
	if description == "" {
		description = fmt.Sprintf("Scrape of %s", path)
	}

	id, err := trk.Create(ops.TaskTypeScrape, description, map[string]any{
		ops.ParamDirPath:   path,
		ops.ParamRecursive: scrapeRecursive,
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	fmt.Printf("Created task %s\n", id)

	runner, _, sigCtx, stop := newRunner(context.Background())
	defer stop()

	return runForeground(sigCtx, runner, id, !scrapePlain)
}
