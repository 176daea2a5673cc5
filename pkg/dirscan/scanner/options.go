package scanner

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jamesainslie/dirscan/pkg/dirscan/progress"
)

// Options configures a Controller.
type Options struct {
	// FS is the filesystem scans run against. Paths passed to StartScan are
	// resolved inside it. Defaults to the host filesystem rooted at "/", in
	// which case relative roots are resolved against the working directory.
	FS billy.Filesystem

	// Reporter receives progress and finished events. A new reporter is
	// created when nil; use Controller.Reporter to register observers.
	Reporter *progress.Reporter

	hostFS bool
}

// DefaultOptions returns options that scan the host filesystem.
func DefaultOptions() Options {
	var opts Options
	opts.applyDefaults()
	return opts
}

func (o *Options) applyDefaults() {
	if o.FS == nil {
		o.FS = osfs.New("/")
		o.hostFS = true
	}
	if o.Reporter == nil {
		o.Reporter = progress.New()
	}
}
