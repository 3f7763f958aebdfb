package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/nodeflow/nodeflow/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cleanupDir    string
	keepLatest    int
	olderThanDays int
	cleanupDryRun bool
)

// run and eval directories are named <name>-YYYYMMDD-HHMMSS
const runDirTimeLayout = "20060102-150405"

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up old run and eval output directories",
	Long:  `Remove old run and eval report folders based on age or count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cleanupDir); os.IsNotExist(err) {
			return fmt.Errorf("output directory %s does not exist", cleanupDir)
		}

		entries, err := os.ReadDir(cleanupDir)
		if err != nil {
			return fmt.Errorf("failed to read output directory: %w", err)
		}

		type runDir struct {
			name string
			at   time.Time
		}
		var runDirs []runDir
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			at, ok := parseRunDirTime(entry.Name())
			if !ok {
				continue
			}
			runDirs = append(runDirs, runDir{name: entry.Name(), at: at})
		}

		if len(runDirs) == 0 {
			utils.LogInfo("No run directories found in %s", cleanupDir)
			return nil
		}

		// Oldest first
		sort.Slice(runDirs, func(i, j int) bool { return runDirs[i].at.Before(runDirs[j].at) })

		var toDelete []string
		if keepLatest > 0 && len(runDirs) > keepLatest {
			for _, d := range runDirs[:len(runDirs)-keepLatest] {
				toDelete = append(toDelete, d.name)
			}
		}
		if olderThanDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -olderThanDays)
			for _, d := range runDirs {
				if d.at.Before(cutoff) && !slices.Contains(toDelete, d.name) {
					toDelete = append(toDelete, d.name)
				}
			}
		}

		if len(toDelete) == 0 {
			utils.LogInfo("No directories to delete")
			return nil
		}

		utils.LogInfo("Found %d directories to delete:", len(toDelete))
		for _, dir := range toDelete {
			utils.LogInfo("- %s", dir)
		}

		if cleanupDryRun {
			utils.LogInfo("Dry run - no directories were deleted")
			return nil
		}

		for _, dir := range toDelete {
			fullPath := filepath.Join(cleanupDir, dir)
			utils.LogVerbose("Deleting %s", fullPath)
			if err := os.RemoveAll(fullPath); err != nil {
				utils.LogError("Error deleting %s: %v", fullPath, err)
			}
		}

		utils.LogSuccess("Cleanup completed")
		return nil
	},
}

// parseRunDirTime extracts the trailing timestamp from a run directory name.
func parseRunDirTime(name string) (time.Time, bool) {
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	stamp := parts[len(parts)-2] + "-" + parts[len(parts)-1]
	at, err := time.ParseInLocation(runDirTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

func init() {
	cleanupCmd.Flags().StringVarP(&cleanupDir, "dir", "d", "", "Output directory to clean up (required)")
	cleanupCmd.Flags().IntVarP(&keepLatest, "keep-latest", "k", 0, "Keep this many latest directories")
	cleanupCmd.Flags().IntVarP(&olderThanDays, "older-than", "o", 0, "Delete directories older than this many days")
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "Show what would be deleted without actually deleting")

	_ = cleanupCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(cleanupCmd)
}
