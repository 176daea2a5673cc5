// Package types provides core data types for the dirscan disk usage analyzer.
// It includes the directory tree node, scan statistics and scan errors,
// along with utility functions for formatting byte counts.
package types

import (
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// UnknownFiles is the FilesScanned value reported after a tree is restored
// from a saved file. Per-file counts are not persisted.
const UnknownFiles int64 = -1

// Node is a directory with its aggregated size and its child directories.
//
// Size is the sum of the sizes of the regular files directly inside the
// directory plus the Size of every child. Subtrees skipped because of access
// denial contribute nothing.
type Node struct {
	// Path is the directory path as it was listed.
	Path string

	// Size is the aggregated size in bytes.
	Size int64

	// Children are the child directories in listing order.
	Children []*Node

	// Truncated is set when cancellation cut this directory, or one of its
	// descendants, short. It is never persisted.
	Truncated bool
}

// NewNode returns an empty node for path.
func NewNode(path string) *Node {
	return &Node{Path: path, Children: []*Node{}}
}

// AddChild appends child and adds its size to n.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
	n.Size += child.Size
	if child.Truncated {
		n.Truncated = true
	}
}

// Count returns the number of nodes in the tree rooted at n, n included.
func (n *Node) Count() int64 {
	if n == nil {
		return 0
	}
	count := int64(1)
	for _, child := range n.Children {
		count += child.Count()
	}
	return count
}

// Equal reports whether both trees have the same paths, sizes and child
// structure. Truncated is ignored since it is not part of the saved form.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Path != other.Path || n.Size != other.Size || len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// SortBySize sorts children recursively by size descending, then by path.
func (n *Node) SortBySize() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Path < b.Path
	})
	for _, child := range n.Children {
		child.SortBySize()
	}
}

// Share returns the fraction of the parent's size taken by n, in [0, 1].
func (n *Node) Share(parent *Node) float64 {
	if parent == nil || parent.Size <= 0 {
		return 0
	}
	return float64(n.Size) / float64(parent.Size)
}

// ScanStats holds the running counters of a scan.
// Readers must tolerate values that are slightly stale relative to each other.
type ScanStats struct {
	// FilesScanned is the number of regular files counted, or UnknownFiles
	// after a load.
	FilesScanned int64 `json:"files_scanned" yaml:"files_scanned"`

	// DirsScanned is the number of directories aggregated. A live scan does
	// not count the root; a load counts every node including the root.
	DirsScanned int64 `json:"dirs_scanned" yaml:"dirs_scanned"`

	// BytesScanned is the total size of the counted files.
	BytesScanned int64 `json:"bytes_scanned" yaml:"bytes_scanned"`
}

// FilesKnown reports whether FilesScanned holds a real count.
func (s ScanStats) FilesKnown() bool {
	return s.FilesScanned >= 0
}

// FilesString renders FilesScanned, using "?" for the unknown sentinel.
func (s ScanStats) FilesString() string {
	if !s.FilesKnown() {
		return "?"
	}
	return fmt.Sprintf("%d", s.FilesScanned)
}

// ScanError represents a subtree that was skipped during a scan.
type ScanError struct {
	// Path is the directory that could not be processed.
	Path string `json:"path" yaml:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error" yaml:"error"`
}

// byteSuffixes are the short binary unit names used by FormatBytes.
var byteSuffixes = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatBytes renders a byte count with short binary units, each step
// scaling by 1024. Counts below 1 KiB are printed as integers, larger ones
// with two decimals.
//
// Examples:
//   - FormatBytes(0) returns "0b"
//   - FormatBytes(1023) returns "1023b"
//   - FormatBytes(1024) returns "1.00kb"
//   - FormatBytes(1048576) returns "1.00mb"
func FormatBytes(bytes int64) string {
	if bytes < KiB {
		return fmt.Sprintf("%db", bytes)
	}

	value := float64(bytes)
	suffix := 0
	for value >= 1024 && suffix < len(byteSuffixes)-1 {
		value /= 1024
		suffix++
	}

	// Avoid "1024.00kb" style output from rounding at the unit boundary.
	if math.Round(value*100)/100 >= 1024 && suffix < len(byteSuffixes)-1 {
		value /= 1024
		suffix++
	}

	return fmt.Sprintf("%.2f%s", value, byteSuffixes[suffix])
}

// FormatSize converts a size in bytes to a human-readable string using IEC
// units (KiB, MiB, GiB, TiB).
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(1024) returns "1.0 KiB"
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(bytes))
}
