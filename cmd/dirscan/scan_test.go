package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/dirscan/pkg/dirscan/manifest"
	"github.com/jamesainslie/dirscan/pkg/dirscan/output"
	"github.com/jamesainslie/dirscan/pkg/dirscan/persist"
	"github.com/jamesainslie/dirscan/pkg/dirscan/store"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

func TestScanWith(t *testing.T) {
	ctrl := memController(t)

	res, err := scanWith(ctrl, "/data", nil)
	if err != nil {
		t.Fatalf("scanWith() returned error: %v", err)
	}

	if res.Tree == nil || res.Tree.Size != 35 {
		t.Fatalf("expected tree of 35 bytes, got %+v", res.Tree)
	}
	if res.Source != "/data" {
		t.Errorf("Source = %q, want /data", res.Source)
	}
	if res.Loaded {
		t.Error("scanned result marked as loaded")
	}
	if res.Truncated {
		t.Error("complete scan marked as truncated")
	}
	want := types.ScanStats{FilesScanned: 3, DirsScanned: 1, BytesScanned: 35}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
}

func TestScanWithMissingRoot(t *testing.T) {
	ctrl := memController(t)

	if _, err := scanWith(ctrl, "/missing", nil); err == nil {
		t.Error("expected error for missing root")
	}
	if ctrl.Result() != nil {
		t.Error("failed scan left a tree behind")
	}
}

func TestScanWithInterrupt(t *testing.T) {
	ctrl := memController(t)

	interrupt := make(chan os.Signal, 1)
	interrupt <- os.Interrupt

	// The scan may finish before the interrupt is handled; either way a
	// tree comes back.
	res, err := scanWith(ctrl, "/data", interrupt)
	if err != nil {
		t.Fatalf("scanWith() returned error: %v", err)
	}
	if res.Tree == nil {
		t.Fatal("expected a tree after interrupt")
	}
	if ctrl.IsScanning() {
		t.Error("scan still running")
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "directory", args: []string{dir}},
		{name: "missing", args: []string{filepath.Join(dir, "nope")}, wantErr: "does not exist"},
		{name: "file", args: []string{file}, wantErr: "not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRoot(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("resolveRoot() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveRoot() returned error: %v", err)
			}
			if !filepath.IsAbs(got) {
				t.Errorf("resolveRoot() = %q, want absolute path", got)
			}
		})
	}
}

func TestResolveRootUsesConfiguredDefault(t *testing.T) {
	c := useConfig(t)
	c.DefaultPath = t.TempDir()

	got, err := resolveRoot(nil)
	if err != nil {
		t.Fatalf("resolveRoot() returned error: %v", err)
	}
	if got != c.DefaultPath {
		t.Errorf("resolveRoot() = %q, want %q", got, c.DefaultPath)
	}
}

func TestRender(t *testing.T) {
	ctrl := memController(t)
	res, err := scanWith(ctrl, "/data", nil)
	if err != nil {
		t.Fatal(err)
	}

	setViper(t, "output", "plain")
	setViper(t, "depth", 0)

	var buf bytes.Buffer
	if err := render(&buf, res); err != nil {
		t.Fatalf("render() returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "/data") || !strings.Contains(out, "sub") {
		t.Errorf("plain output missing tree:\n%s", out)
	}
	if !strings.Contains(out, "35b") {
		t.Errorf("plain output missing total size:\n%s", out)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	setViper(t, "output", "xml")

	var buf bytes.Buffer
	err := render(&buf, &output.Result{})
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("render() error = %v, want unknown output format", err)
	}
}

func TestRecordScan(t *testing.T) {
	c := useConfig(t)
	setViper(t, "no_store", false)

	ctrl := memController(t)
	res, err := scanWith(ctrl, "/data", nil)
	if err != nil {
		t.Fatal(err)
	}

	recordScan(res)

	s, err := store.Open(c.Store.Path, store.Options{})
	if err != nil {
		t.Fatalf("store.Open() returned error: %v", err)
	}
	defer s.Close()

	snap, err := s.Get("/data")
	if err != nil {
		t.Fatalf("snapshot not stored: %v", err)
	}
	if !snap.Tree.Equal(res.Tree) {
		t.Error("stored tree differs from scanned tree")
	}

	m, _ := manifest.New(c.Manifest.Path)
	entries, err := m.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Operation != manifest.OpScan || entries[0].Root != "/data" {
		t.Errorf("unexpected history: %+v", entries)
	}
}

func TestRecordScanRespectsNoStore(t *testing.T) {
	c := useConfig(t)
	c.Manifest.Enabled = false
	setViper(t, "no_store", true)

	ctrl := memController(t)
	res, err := scanWith(ctrl, "/data", nil)
	if err != nil {
		t.Fatal(err)
	}

	recordScan(res)

	s, err := store.Open(c.Store.Path, store.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Get("/data"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no snapshot with --no-store, got %v", err)
	}

	entries, _ := os.ReadDir(c.Manifest.Path)
	if len(entries) != 0 {
		t.Errorf("history written while disabled: %d files", len(entries))
	}
}

func TestSaveResult(t *testing.T) {
	c := useConfig(t)

	ctrl := memController(t)
	res, err := scanWith(ctrl, "/data", nil)
	if err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "tree.json")
	if err := saveResult(ctrl, file, res); err != nil {
		t.Fatalf("saveResult() returned error: %v", err)
	}

	loaded, err := persist.Load(file)
	if err != nil {
		t.Fatalf("saved file unreadable: %v", err)
	}
	if !loaded.Equal(res.Tree) {
		t.Error("saved tree differs from scanned tree")
	}

	m, _ := manifest.New(c.Manifest.Path)
	entries, _ := m.List(0)
	if len(entries) != 1 || entries[0].Operation != manifest.OpSave || entries[0].File != file {
		t.Errorf("unexpected history: %+v", entries)
	}
}
