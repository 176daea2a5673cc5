// Package config provides configuration management for dirscan.
package config

import "time"

// Default configuration values for dirscan.
const (
	// DefaultPath is the directory scanned when none is given.
	DefaultPath = "."

	// DefaultDepth is how many directory levels are printed. Zero prints
	// the whole tree.
	DefaultDepth = 2

	// DefaultOutput is the default output format.
	DefaultOutput = "pretty"

	// DefaultRetentionDays is the default number of days to keep history entries.
	DefaultRetentionDays = 30

	// DefaultSnapshotTTL is how long stored snapshots are kept.
	DefaultSnapshotTTL = 30 * 24 * time.Hour

	// DefaultDebounce is how long the watcher waits for changes to settle.
	DefaultDebounce = 2 * time.Second
)
