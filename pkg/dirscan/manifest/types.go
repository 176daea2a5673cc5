// Package manifest keeps a history of dirscan operations on disk.
package manifest

import (
	"time"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// OperationType represents the type of operation.
type OperationType string

const (
	// OpScan represents a scan of a directory.
	OpScan OperationType = "scan"
	// OpSave represents writing a tree to a file.
	OpSave OperationType = "save"
	// OpLoad represents reading a tree from a file.
	OpLoad OperationType = "load"
)

// Entry represents a single manifest entry.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation OperationType   `json:"operation"`
	Root      string          `json:"root"`
	File      string          `json:"file,omitempty"` // Tree file for save and load
	Stats     types.ScanStats `json:"stats"`
	Duration  time.Duration   `json:"duration,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
	Skipped   int             `json:"skipped,omitempty"`
	TopDirs   []DirRecord     `json:"top_dirs,omitempty"`
}

// DirRecord is a directory and its size at the time of the operation.
type DirRecord struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Record describes an operation to log.
type Record struct {
	Root      string
	File      string
	Tree      *types.Node
	Stats     types.ScanStats
	Duration  time.Duration
	Truncated bool
	Skipped   int
}
