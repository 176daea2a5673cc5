package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/output"
	"github.com/jamesainslie/dirscan/pkg/dirscan/store"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snap"},
	Short:   "Manage stored snapshots",
	Long: `List, print and remove snapshots kept by the snapshot store.

Every completed scan replaces the snapshot of its root. Snapshots expire
after store.ttl (default 30 days).`,
	RunE: runSnapshotsList,
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE:  runSnapshotsList,
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the stored tree of a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshotsShow,
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete [path]",
	Short: "Remove the snapshot of a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsDelete,
}

var snapshotsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all snapshots",
	RunE:  runSnapshotsClear,
}

func init() {
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsDeleteCmd)
	snapshotsCmd.AddCommand(snapshotsClearCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

// runSnapshotsList prints one line per stored snapshot.
func runSnapshotsList(_ *cobra.Command, _ []string) error {
	var infos []store.Info
	if err := withStore(func(s *store.Store) error {
		var err error
		infos, err = s.List()
		return err
	}); err != nil {
		return err
	}

	if len(infos) == 0 {
		printInfo("No snapshots stored.")
		printInfo("Run 'dirscan [path]' to scan a directory.")
		return nil
	}

	fmt.Printf("\n%-10s  %-8s  %-14s  %s\n", "SIZE", "DIRS", "SAVED", "ROOT")
	fmt.Println(strings.Repeat("-", 80))

	for _, info := range infos {
		root := info.Root
		if info.Truncated {
			root += " (partial)"
		}
		fmt.Printf("%-10s  %-8s  %-14s  %s\n",
			types.FormatSize(info.Stats.BytesScanned),
			humanize.Comma(info.Nodes),
			humanize.Time(info.SavedAt),
			root,
		)
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("\n%d snapshots. Use 'dirscan snapshots show <path>' to print one.\n", len(infos))

	return nil
}

// runSnapshotsShow renders a stored tree like a fresh scan.
func runSnapshotsShow(_ *cobra.Command, args []string) error {
	root, err := snapshotRoot(args)
	if err != nil {
		return err
	}

	var snap *store.Snapshot
	err = withStore(func(s *store.Store) error {
		var getErr error
		snap, getErr = s.Get(root)
		return getErr
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no snapshot of %s, run 'dirscan %s' first", root, root)
	}
	if err != nil {
		return err
	}

	printStatus("Snapshot taken %s", humanize.Time(snap.SavedAt))

	return render(os.Stdout, &output.Result{
		Tree:      snap.Tree,
		Stats:     snap.Stats,
		Source:    snap.Root,
		Truncated: snap.Truncated,
	})
}

// runSnapshotsDelete removes one snapshot.
func runSnapshotsDelete(_ *cobra.Command, args []string) error {
	root, err := snapshotRoot(args)
	if err != nil {
		return err
	}

	if err := withStore(func(s *store.Store) error { return s.Delete(root) }); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	printInfo("Deleted snapshot of %s", root)
	return nil
}

// runSnapshotsClear removes every snapshot.
func runSnapshotsClear(_ *cobra.Command, _ []string) error {
	var removed int
	if err := withStore(func(s *store.Store) error {
		var err error
		removed, err = s.Clear()
		return err
	}); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	printInfo("Removed %d snapshots.", removed)
	return nil
}

// snapshotRoot resolves a snapshot key without requiring the directory to
// still exist.
func snapshotRoot(args []string) (string, error) {
	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	} else if cfg != nil && cfg.DefaultPath != "" {
		path = cfg.DefaultPath
	}

	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}
