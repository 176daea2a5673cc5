package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/dirscan/pkg/dirscan/manifest"
	"github.com/jamesainslie/dirscan/pkg/dirscan/progress"
	"github.com/jamesainslie/dirscan/pkg/dirscan/scanner"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Print a tree saved with --save or 'dirscan save'",
	Long: `Load a saved tree and print it without rescanning.

Saved trees do not record how many files were scanned, so the file count is
shown as unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

// runLoad reads a tree file and renders it.
func runLoad(_ *cobra.Command, args []string) error {
	file, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	ctrl := scanner.New(scanner.Options{})
	defer ctrl.Close()

	var finished progress.Event
	unregister := ctrl.Reporter().OnFinished(func(ev progress.Event) { finished = ev })
	defer unregister()

	if err := ctrl.Load(file); err != nil {
		return err
	}

	res := resultFrom(ctrl, finished)
	res.Source = file

	logHistory(manifest.OpLoad, manifest.Record{
		Root:  res.Tree.Path,
		File:  file,
		Tree:  res.Tree,
		Stats: res.Stats,
	})

	return render(os.Stdout, res)
}
