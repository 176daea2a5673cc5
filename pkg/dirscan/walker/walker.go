// Package walker aggregates directory sizes into a tree.
//
// The walk is a single-threaded recursion over a go-billy filesystem. It
// checks its context once on entry to every directory, so a cancelled walk
// stops after the directory currently being listed.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// Options configures a Walker.
type Options struct {
	// FS is the filesystem to walk. Required.
	FS billy.Filesystem

	// Counters receives the running totals. A private set is used when nil.
	Counters *Counters

	// OnDirectory is called with the current totals after each directory has
	// been fully processed. It is not called once the context is done.
	OnDirectory func(types.ScanStats)
}

// Walker computes disk usage trees.
type Walker struct {
	opts Options

	// errors collects skipped subtrees without stopping the walk.
	errors   []types.ScanError
	errorsMu sync.Mutex
}

// New creates a Walker with the given options.
func New(opts Options) *Walker {
	if opts.Counters == nil {
		opts.Counters = &Counters{}
	}
	return &Walker{
		opts:   opts,
		errors: make([]types.ScanError, 0),
	}
}

// Counters returns the counters the walker writes to.
func (w *Walker) Counters() *Counters {
	return w.opts.Counters
}

// Errors returns a copy of the subtrees skipped so far.
func (w *Walker) Errors() []types.ScanError {
	w.errorsMu.Lock()
	defer w.errorsMu.Unlock()
	out := make([]types.ScanError, len(w.errors))
	copy(out, w.errors)
	return out
}

// Walk builds the tree rooted at path.
//
// Subdirectories that cannot be read because of access denial, or that
// disappeared while the walk was running, are skipped and recorded in
// Errors. Any other failure aborts the walk. A failure to list path itself
// is always returned.
func (w *Walker) Walk(ctx context.Context, path string) (*types.Node, error) {
	return w.walk(ctx, path, 0)
}

func (w *Walker) walk(ctx context.Context, path string, depth int) (*types.Node, error) {
	node := types.NewNode(path)

	if ctx.Err() != nil {
		node.Truncated = true
		return node, nil
	}

	entries, err := w.opts.FS.ReadDir(path)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		childPath := w.opts.FS.Join(path, entry.Name())

		switch {
		case entry.IsDir():
			child, err := w.walk(ctx, childPath, depth+1)
			if err != nil {
				if !skippable(err) {
					return nil, err
				}
				w.addError(childPath, depth+1, err)
				continue
			}
			w.opts.Counters.addDir()
			node.AddChild(child)

		case entry.Mode().IsRegular():
			size := entry.Size()
			w.opts.Counters.addFile(size)
			node.Size += size
		}
		// Symlinks and special files are not followed or counted.
	}

	if w.opts.OnDirectory != nil && ctx.Err() == nil {
		w.opts.OnDirectory(w.opts.Counters.Snapshot())
	}

	return node, nil
}

// skippable reports whether a subdirectory failure leaves the rest of the
// walk valid.
func skippable(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist)
}

// addError records a skipped subtree.
func (w *Walker) addError(path string, depth int, err error) {
	logging.Get("scanner").Debug("skipping directory", "path", path, "depth", depth, "error", err)

	w.errorsMu.Lock()
	w.errors = append(w.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	w.errorsMu.Unlock()
}
