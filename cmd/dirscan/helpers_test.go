package main

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/scanner"
	"github.com/spf13/viper"
)

// memController returns a controller over an in-memory tree:
// /data/a (10), /data/b (20), /data/sub/c (5).
func memController(t *testing.T) *scanner.Controller {
	t.Helper()

	fs := memfs.New()
	for path, size := range map[string]int{
		"/data/a":     10,
		"/data/b":     20,
		"/data/sub/c": 5,
	} {
		if err := util.WriteFile(fs, path, make([]byte, size), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}

	ctrl := scanner.New(scanner.Options{FS: fs})
	t.Cleanup(ctrl.Close)
	return ctrl
}

// setViper overrides a viper key for the duration of the test.
func setViper(t *testing.T, key string, value interface{}) {
	t.Helper()
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, nil) })
}

// useConfig installs a configuration whose store and history live in
// temporary directories.
func useConfig(t *testing.T) *config.Config {
	t.Helper()

	c := defaultConfig()
	c.Manifest.Path = t.TempDir()
	c.Store.Path = t.TempDir()
	c.Store.TTL = 0

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}
