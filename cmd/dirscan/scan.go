package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/jamesainslie/dirscan/pkg/dirscan/manifest"
	"github.com/jamesainslie/dirscan/pkg/dirscan/output"
	"github.com/jamesainslie/dirscan/pkg/dirscan/progress"
	"github.com/jamesainslie/dirscan/pkg/dirscan/scanner"
	"github.com/jamesainslie/dirscan/pkg/dirscan/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errScanRunning is returned when the controller refuses to start.
var errScanRunning = errors.New("a scan is already running")

// runScan is the main scan command handler.
func runScan(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
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

	if file := viper.GetString("save"); file != "" {
		if err := saveResult(ctrl, file, res); err != nil {
			return err
		}
	}

	return render(os.Stdout, res)
}

// resolveRoot returns the absolute directory to scan.
func resolveRoot(args []string) (string, error) {
	scanPath := config.DefaultPath
	if len(args) > 0 {
		scanPath = args[0]
	} else if cfg != nil && cfg.DefaultPath != "" {
		scanPath = cfg.DefaultPath
	}

	// Expand ~ in path
	expandedPath, err := config.ExpandPath(scanPath)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}

	return absPath, nil
}

// scanInteractive scans root with a live progress line on stderr.
// SIGINT and SIGTERM cancel the scan and the partial tree is returned.
func scanInteractive(ctrl *scanner.Controller, root string) (*output.Result, error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var display progressDisplay
	if !getQuiet() {
		display = newProgressDisplay(os.Stderr, root)
		unregisterProgress := ctrl.Reporter().OnProgress(display.Update)
		defer unregisterProgress()
		unregisterFinished := ctrl.Reporter().OnFinished(func(progress.Event) { display.Stop() })
		defer unregisterFinished()
	}

	printVerbose("Scanning %s", root)

	res, err := scanWith(ctrl, root, sigChan)
	if display != nil {
		display.Stop()
	}
	if err != nil {
		return nil, err
	}

	if res.Truncated {
		printStatus("Scan cancelled, showing partial results")
	}
	return res, nil
}

// scanWith runs one scan to completion, cancelling it when interrupt fires.
func scanWith(ctrl *scanner.Controller, root string, interrupt <-chan os.Signal) (*output.Result, error) {
	finished := make(chan progress.Event, 1)
	unregister := ctrl.Reporter().OnFinished(func(ev progress.Event) {
		select {
		case finished <- ev:
		default:
		}
	})
	defer unregister()

	if !ctrl.StartScan(root) {
		return nil, errScanRunning
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupt:
			printStatus("\nInterrupted, stopping scan...")
			ctrl.CancelScan()
		case <-done:
		}
	}()

	ctrl.Wait()

	ev := <-finished
	if ev.Err != nil {
		return nil, fmt.Errorf("scan failed: %w", ev.Err)
	}

	return resultFrom(ctrl, ev), nil
}

// resultFrom builds the printable result of a finished scan or load.
func resultFrom(ctrl *scanner.Controller, ev progress.Event) *output.Result {
	res := &output.Result{
		Tree:      ctrl.Result(),
		Stats:     ev.Stats,
		Source:    ev.Root,
		Loaded:    ev.Source == progress.SourceLoad,
		Duration:  ctrl.Duration(),
		Errors:    ctrl.Errors(),
		Truncated: ev.Truncated,
	}
	return res
}

// render writes res in the selected output format.
func render(w io.Writer, res *output.Result) error {
	format := viper.GetString("output")
	if format == "" {
		format = config.DefaultOutput
	}

	formatter, err := output.Get(format)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", format, output.Available())
	}

	res.Depth = viper.GetInt("depth")

	var buf bytes.Buffer
	if err := formatter.Format(&buf, res); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// recordScan keeps a snapshot of the scan and logs it to the history.
// Failures are logged and never fail the command.
func recordScan(res *output.Result) {
	if res.Tree == nil {
		return
	}
	log := logging.Get("cli")

	if storeEnabled() {
		if err := withStore(func(s *store.Store) error {
			_, err := s.Put(res.Tree, res.Stats)
			return err
		}); err != nil {
			log.Warn("failed to store snapshot", "root", res.Source, "error", err)
			printVerbose("Failed to store snapshot: %v", err)
		}
	}

	logHistory(manifest.OpScan, manifest.Record{
		Root:      res.Tree.Path,
		Tree:      res.Tree,
		Stats:     res.Stats,
		Duration:  res.Duration,
		Truncated: res.Truncated,
		Skipped:   len(res.Errors),
	})
}

// storeEnabled reports whether scans are written to the snapshot store.
func storeEnabled() bool {
	if viper.GetBool("no_store") {
		return false
	}
	return cfg == nil || cfg.Store.Enabled
}

// withStore opens the snapshot store, runs fn and closes the store.
func withStore(fn func(*store.Store) error) error {
	path := config.DefaultStorePath()
	opts := store.Options{TTL: config.DefaultSnapshotTTL}
	if cfg != nil {
		if cfg.Store.Path != "" {
			path = cfg.Store.Path
		}
		opts.TTL = cfg.Store.TTL
	}

	s, err := store.Open(path, opts)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// logHistory writes a manifest entry when history is enabled.
func logHistory(op manifest.OperationType, rec manifest.Record) {
	if cfg != nil && !cfg.Manifest.Enabled {
		return
	}

	m, err := getManifest()
	if err == nil {
		err = m.EnsureDir()
	}
	if err == nil {
		switch op {
		case manifest.OpSave:
			_, err = m.LogSave(rec)
		case manifest.OpLoad:
			_, err = m.LogLoad(rec)
		default:
			_, err = m.LogScan(rec)
		}
	}

	if err != nil {
		logging.Get("cli").Warn("failed to record history", "operation", op, "error", err)
		printVerbose("Failed to record history: %v", err)
	}
}
