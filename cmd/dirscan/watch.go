package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/jamesainslie/dirscan/pkg/dirscan/progress"
	"github.com/jamesainslie/dirscan/pkg/dirscan/scanner"
	"github.com/jamesainslie/dirscan/pkg/dirscan/store"
	"github.com/jamesainslie/dirscan/pkg/dirscan/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescan a directory whenever it changes",
	Long: `Scan a directory, print the tree, then watch it for changes.

Changes are collected until the tree has been quiet for the configured
debounce period (watch.debounce, default 2s). A running scan is cancelled and
restarted when new changes settle. Press Ctrl-C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", 0, "quiet period before rescanning (default from config)")
	rootCmd.AddCommand(watchCmd)
}

// runWatch scans, then rescans on every settled batch of changes.
func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	debounce := config.DefaultDebounce
	if cfg != nil && cfg.Watch.Debounce > 0 {
		debounce = cfg.Watch.Debounce
	}
	if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
		debounce = d
	}

	w, err := watcher.New(debounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	ctrl := scanner.New(scanner.Options{})
	defer ctrl.Close()

	sess := newWatchSession(ctrl, root, os.Stdout)
	unregister := ctrl.Reporter().OnFinished(sess.finished)
	defer unregister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printStatus("Watching %s (%d directories), press Ctrl-C to stop", root, w.WatchCount())
	sess.rescan(nil)

	w.Run(ctx, sess.rescan)
	return nil
}

// watchSession restarts scans on changes and prints each completed tree.
type watchSession struct {
	ctrl *scanner.Controller
	root string
	out  io.Writer
	log  *logging.Logger
}

func newWatchSession(ctrl *scanner.Controller, root string, out io.Writer) *watchSession {
	return &watchSession{
		ctrl: ctrl,
		root: root,
		out:  out,
		log:  logging.Get("cli"),
	}
}

// rescan cancels the running scan, if any, and starts a new one.
func (s *watchSession) rescan(changed []string) {
	if len(changed) > 0 {
		s.log.Debug("rescanning after changes", "root", s.root, "paths", len(changed))
		printVerbose("%d paths changed, rescanning", len(changed))
	}

	s.ctrl.CancelScan()
	if !s.ctrl.StartScan(s.root) {
		s.log.Warn("rescan rejected", "root", s.root)
	}
}

// finished runs on the scan worker. Cancelled scans were superseded by a
// newer one and are not printed.
func (s *watchSession) finished(ev progress.Event) {
	if ev.Err != nil {
		printError("%v", ev.Err)
		return
	}
	if ev.Truncated {
		return
	}

	res := resultFrom(s.ctrl, ev)

	if storeEnabled() {
		if err := withStore(func(st *store.Store) error {
			_, err := st.Put(res.Tree, res.Stats)
			return err
		}); err != nil {
			s.log.Warn("failed to store snapshot", "root", s.root, "error", err)
		}
	}

	fmt.Fprintf(s.out, "\n%s\n", time.Now().Format("15:04:05"))
	if err := render(s.out, res); err != nil {
		printError("%v", err)
	}
}
