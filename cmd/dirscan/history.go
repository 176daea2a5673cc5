package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/manifest"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of scan, save and load operations.

Each entry records the root, the counters and the largest top-level
directories at the time of the operation.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific operation",
	Long:  `Display detailed information about an operation. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest returns a manifest instance with the configured directory.
func getManifest() (*manifest.Manifest, error) {
	if cfg == nil || cfg.Manifest.Path == "" {
		manifestDir, err := config.ManifestDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get manifest directory: %w", err)
		}
		return manifest.New(manifestDir)
	}

	return manifest.New(cfg.Manifest.Path)
}

// runHistory lists recent operations.
func runHistory(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'dirscan [path]' to scan a directory.")
		return nil
	}

	fmt.Printf("\n%-34s  %-5s  %-14s  %-10s  %s\n", "ID", "TYPE", "WHEN", "SIZE", "ROOT")
	fmt.Println(strings.Repeat("-", 96))

	for _, entry := range entries {
		fmt.Printf("%-34s  %-5s  %-14s  %-10s  %s\n",
			truncateString(entry.ID, 34),
			entry.Operation,
			humanize.Time(entry.Timestamp),
			types.FormatSize(entry.Stats.BytesScanned),
			entry.Root,
		)
	}

	fmt.Println(strings.Repeat("-", 96))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'dirscan history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(_ *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	printEntry(entry)
	return nil
}

// printEntry prints every field of a history entry.
func printEntry(entry *manifest.Entry) {
	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:          %s\n", entry.ID)
	fmt.Printf("Timestamp:   %s (%s)\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"), humanize.Time(entry.Timestamp))
	fmt.Printf("Operation:   %s\n", entry.Operation)
	fmt.Printf("Root:        %s\n", entry.Root)
	if entry.File != "" {
		fmt.Printf("File:        %s\n", entry.File)
	}
	fmt.Printf("Total Size:  %s\n", types.FormatSize(entry.Stats.BytesScanned))
	fmt.Printf("Files:       %s\n", entry.Stats.FilesString())
	fmt.Printf("Directories: %s\n", humanize.Comma(entry.Stats.DirsScanned))
	if entry.Duration > 0 {
		fmt.Printf("Duration:    %s\n", entry.Duration.Round(time.Millisecond))
	}
	if entry.Skipped > 0 {
		fmt.Printf("Skipped:     %d directories\n", entry.Skipped)
	}
	if entry.Truncated {
		fmt.Println("Cancelled:   sizes are partial")
	}

	if len(entry.TopDirs) > 0 {
		fmt.Println("\nLargest directories:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("%-12s  %s\n", "SIZE", "PATH")
		fmt.Println(strings.Repeat("-", 60))

		for _, dir := range entry.TopDirs {
			fmt.Printf("%-12s  %s\n", types.FormatSize(dir.Size), dir.Path)
		}
	}
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	retentionDays := config.DefaultRetentionDays
	if cfg != nil && cfg.Manifest.RetentionDays > 0 {
		retentionDays = cfg.Manifest.RetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
