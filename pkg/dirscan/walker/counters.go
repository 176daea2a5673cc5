package walker

import (
	"sync/atomic"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// Counters holds the running totals of a scan.
// The walker is the only writer during a scan; readers on other goroutines
// see each field atomically but get no cross-field snapshot.
type Counters struct {
	filesScanned atomic.Int64
	dirsScanned  atomic.Int64
	bytesScanned atomic.Int64
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.Set(types.ScanStats{})
}

// Set overwrites all counters.
func (c *Counters) Set(stats types.ScanStats) {
	c.filesScanned.Store(stats.FilesScanned)
	c.dirsScanned.Store(stats.DirsScanned)
	c.bytesScanned.Store(stats.BytesScanned)
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() types.ScanStats {
	return types.ScanStats{
		FilesScanned: c.filesScanned.Load(),
		DirsScanned:  c.dirsScanned.Load(),
		BytesScanned: c.bytesScanned.Load(),
	}
}

func (c *Counters) addFile(size int64) {
	c.filesScanned.Add(1)
	c.bytesScanned.Add(size)
}

func (c *Counters) addDir() {
	c.dirsScanned.Add(1)
}
