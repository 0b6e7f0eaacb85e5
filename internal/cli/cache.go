package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show task cache size",
	Long: `Show the on-disk footprint of the task store.

Task history accumulates until cleared; there is no automatic expiry.`,
	RunE: runCache,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all task records",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	tasks := trk.List(listAllFilter())
	fmt.Printf("Task cache: %.2f MB (%s), %d tasks\n",
		trk.CacheSizeMB(),
		humanize.Bytes(uint64(trk.CacheSizeMB()*1024*1024)),
		len(tasks))
	fmt.Printf("Store path: %s\n", cfg.StorePath)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if !trk.ClearCache() {
		return fmt.Errorf("failed to clear task cache")
	}
	fmt.Println("Task cache cleared")
	return nil
}
