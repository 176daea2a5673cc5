// Package output provides formatters for displaying directory trees in
// various output formats (pretty, plain, json, yaml).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// Result contains the complete output data for formatting.
type Result struct {
	// Tree is the directory tree to render.
	Tree *types.Node

	// Stats contains the scan counters. FilesScanned is types.UnknownFiles
	// for loaded trees.
	Stats types.ScanStats

	// Source is the scanned root or the file a tree was loaded from.
	Source string

	// Loaded is true when the tree was read from a file instead of scanned.
	Loaded bool

	// Duration is the time the scan took.
	Duration time.Duration

	// Depth limits how many levels below the root are rendered.
	// Zero renders the whole tree.
	Depth int

	// Errors lists subtrees skipped during the scan.
	Errors []types.ScanError

	// Truncated is true when the scan was cancelled before completing.
	Truncated bool
}

// Row is one directory in depth-first display order.
type Row struct {
	Path  string
	Size  int64
	Depth int

	// Share is the fraction of the parent's size, 1 for the root.
	Share float64

	// Truncated marks a directory whose size is incomplete.
	Truncated bool
}

// Rows flattens the tree depth-first, largest children first, honoring Depth.
// The tree itself is not modified.
func (r *Result) Rows() []Row {
	if r.Tree == nil {
		return nil
	}

	var rows []Row
	var visit func(n, parent *types.Node, depth int)
	visit = func(n, parent *types.Node, depth int) {
		share := 1.0
		if parent != nil {
			share = n.Share(parent)
		}
		rows = append(rows, Row{
			Path:      n.Path,
			Size:      n.Size,
			Depth:     depth,
			Share:     share,
			Truncated: n.Truncated,
		})
		if r.Depth > 0 && depth >= r.Depth {
			return
		}
		for _, child := range sortedChildren(n) {
			visit(child, n, depth+1)
		}
	}
	visit(r.Tree, nil, 0)

	return rows
}

// sortedChildren returns n's children ordered by size descending, then path.
func sortedChildren(n *types.Node) []*types.Node {
	children := make([]*types.Node, len(n.Children))
	copy(children, n.Children)
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Size != children[j].Size {
			return children[i].Size > children[j].Size
		}
		return children[i].Path < children[j].Path
	})
	return children
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// formatDurationString formats a duration for structured output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
