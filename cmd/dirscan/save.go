package main

import (
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/dirscan/pkg/dirscan/manifest"
	"github.com/jamesainslie/dirscan/pkg/dirscan/output"
	"github.com/jamesainslie/dirscan/pkg/dirscan/scanner"
	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save FILE [path]",
	Short: "Scan a directory and save the tree to a file",
	Long: `Scan a directory and write its tree to FILE without printing it.

The file holds a single JSON array of the form [path, size, children] and can
be printed later with 'dirscan load FILE'.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
}

// runSave scans and saves without rendering.
func runSave(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args[1:])
	if err != nil {
		return err
	}

	ctrl := scanner.New(scanner.Options{})
	defer ctrl.Close()

	res, err := scanInteractive(ctrl, root)
	if err != nil {
		return err
	}

	recordScan(res)

	return saveResult(ctrl, args[0], res)
}

// saveResult writes the controller's tree to file and records the save.
func saveResult(ctrl *scanner.Controller, file string, res *output.Result) error {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := ctrl.Save(absFile); err != nil {
		return err
	}

	logHistory(manifest.OpSave, manifest.Record{
		Root:      res.Tree.Path,
		File:      absFile,
		Tree:      res.Tree,
		Stats:     res.Stats,
		Duration:  res.Duration,
		Truncated: res.Truncated,
		Skipped:   len(res.Errors),
	})

	printStatus("Saved %s to %s", res.Tree.Path, absFile)
	return nil
}
