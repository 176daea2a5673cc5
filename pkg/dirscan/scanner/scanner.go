// Package scanner runs directory size scans in the background and owns the
// resulting tree.
//
// A Controller runs at most one scan at a time. StartScan returns
// immediately; the walk happens on a worker goroutine that reports progress
// through the controller's progress.Reporter. CancelScan stops the worker
// and waits for it to exit. Trees can also be saved to and loaded from disk.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/jamesainslie/dirscan/pkg/dirscan/persist"
	"github.com/jamesainslie/dirscan/pkg/dirscan/progress"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	"github.com/jamesainslie/dirscan/pkg/dirscan/walker"
)

// ErrNoResult is returned by Save when there is no tree to save.
var ErrNoResult = errors.New("no scan result to save")

// Controller coordinates scans, loads and saves of a single tree.
//
// Finished observers run on the worker before it exits. From inside one,
// IsScanning still reports true, StartScan returns false and CancelScan
// never returns. Start the next scan from another goroutine.
type Controller struct {
	fs       billy.Filesystem
	hostFS   bool
	reporter *progress.Reporter
	counters *walker.Counters

	// mu guards the fields below. It is never held while waiting for the
	// worker, so observers may call back into the controller.
	mu       sync.Mutex
	result   *types.Node
	errors   []types.ScanError
	root     string
	source   progress.Source
	duration time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Controller. Zero-valued options are replaced by defaults.
func New(opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{
		fs:       opts.FS,
		hostFS:   opts.hostFS,
		reporter: opts.Reporter,
		counters: &walker.Counters{},
	}
}

// Reporter returns the reporter events are published on.
func (c *Controller) Reporter() *progress.Reporter {
	return c.reporter
}

// StartScan begins scanning root in the background. It returns false without
// side effects when a scan is already running. On the host filesystem a
// relative root is made absolute against the working directory first.
func (c *Controller) StartScan(root string) bool {
	if c.hostFS && !filepath.IsAbs(root) {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	c.mu.Lock()
	if c.runningLocked() {
		c.mu.Unlock()
		return false
	}

	c.counters.Reset()
	c.result = nil
	c.errors = nil
	c.root = root
	c.source = progress.SourceScan
	c.duration = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.ctx, c.cancel, c.done = ctx, cancel, done
	c.mu.Unlock()

	logging.Get("scanner").Info("scan started", "root", root)
	go c.run(ctx, root, done)

	return true
}

// run is the worker goroutine.
func (c *Controller) run(ctx context.Context, root string, done chan struct{}) {
	defer close(done)

	log := logging.Get("scanner")
	start := time.Now()

	w := walker.New(walker.Options{
		FS:          c.fs,
		Counters:    c.counters,
		OnDirectory: c.reporter.Progress,
	})

	node, err := w.Walk(ctx, root)
	elapsed := time.Since(start)
	stats := c.counters.Snapshot()
	skipped := w.Errors()

	if err != nil {
		log.Error("scan failed", "root", root, "error", err)

		c.mu.Lock()
		c.errors = skipped
		c.duration = elapsed
		c.mu.Unlock()

		c.reporter.Finished(progress.Event{
			Stats:  stats,
			Root:   root,
			Source: progress.SourceScan,
			Err:    fmt.Errorf("scanning %s: %w", root, err),
		})
		return
	}

	c.mu.Lock()
	c.result = node
	c.errors = skipped
	c.duration = elapsed
	c.mu.Unlock()

	log.Info("scan finished",
		"root", root,
		"files", stats.FilesScanned,
		"dirs", stats.DirsScanned,
		"bytes", stats.BytesScanned,
		"skipped", len(skipped),
		"truncated", node.Truncated,
		"duration", elapsed.Round(time.Millisecond),
	)

	c.reporter.Finished(progress.Event{
		Stats:     stats,
		Root:      root,
		Source:    progress.SourceScan,
		Truncated: node.Truncated,
	})
}

// CancelScan stops the running scan and blocks until the worker has exited,
// so it must not be called from a finished observer. Directories not yet
// entered are left empty and the tree is marked truncated. It does nothing
// when no scan is running.
func (c *Controller) CancelScan() {
	c.mu.Lock()
	if !c.runningLocked() {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	logging.Get("scanner").Info("cancelling scan")
	cancel()
	<-done
}

// IsScanning reports whether a worker is running.
func (c *Controller) IsScanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

// Wait blocks until the current scan, if any, has finished.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (c *Controller) runningLocked() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Result returns the current tree, or nil when there is none.
func (c *Controller) Result() *types.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Stats returns the current counters.
func (c *Controller) Stats() types.ScanStats {
	return c.counters.Snapshot()
}

// Errors returns the subtrees skipped by the last scan.
func (c *Controller) Errors() []types.ScanError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ScanError, len(c.errors))
	copy(out, c.errors)
	return out
}

// Root returns the path of the last scan or the root of the loaded tree.
func (c *Controller) Root() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.root
}

// Source reports whether the current tree came from a scan or a load.
func (c *Controller) Source() progress.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Duration returns how long the last scan took.
func (c *Controller) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Save writes the current tree to path.
func (c *Controller) Save(path string) error {
	c.mu.Lock()
	node := c.result
	c.mu.Unlock()

	if node == nil {
		return ErrNoResult
	}

	if err := persist.Save(node, path); err != nil {
		return fmt.Errorf("saving tree: %w", err)
	}

	logging.Get("scanner").Info("tree saved", "path", path, "root", node.Path)
	return nil
}

// Load cancels any running scan and replaces the current tree with the one
// stored at path. The number of files is not stored, so FilesScanned is set
// to types.UnknownFiles. On failure the current tree and counters are kept.
func (c *Controller) Load(path string) error {
	c.CancelScan()

	node, err := persist.Load(path)
	if err != nil {
		logging.Get("scanner").Warn("load failed", "path", path, "error", err)
		return fmt.Errorf("loading tree: %w", err)
	}

	stats := types.ScanStats{
		FilesScanned: types.UnknownFiles,
		DirsScanned:  node.Count(),
		BytesScanned: node.Size,
	}

	c.mu.Lock()
	c.result = node
	c.errors = nil
	c.root = node.Path
	c.source = progress.SourceLoad
	c.duration = 0
	c.counters.Set(stats)
	c.mu.Unlock()

	logging.Get("scanner").Info("tree loaded", "path", path, "root", node.Path, "dirs", stats.DirsScanned)

	c.reporter.Progress(stats)
	c.reporter.Finished(progress.Event{
		Stats:  stats,
		Root:   node.Path,
		Source: progress.SourceLoad,
	})

	return nil
}

// Close cancels any running scan and closes the reporter's subscriptions.
func (c *Controller) Close() {
	c.CancelScan()
	c.reporter.Close()
}
