package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultPath != DefaultPath {
		t.Errorf("DefaultPath = %q, want %q", cfg.DefaultPath, DefaultPath)
	}

	if cfg.Depth != DefaultDepth {
		t.Errorf("Depth = %d, want %d", cfg.Depth, DefaultDepth)
	}

	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}

	if !cfg.Manifest.Enabled {
		t.Error("Manifest.Enabled = false, want true")
	}

	wantManifest := filepath.Join(tempDir, ".config", "dirscan", ".manifest")
	if cfg.Manifest.Path != wantManifest {
		t.Errorf("Manifest.Path = %q, want %q", cfg.Manifest.Path, wantManifest)
	}

	if !cfg.Store.Enabled {
		t.Error("Store.Enabled = false, want true")
	}

	if cfg.Store.TTL != DefaultSnapshotTTL {
		t.Errorf("Store.TTL = %v, want %v", cfg.Store.TTL, DefaultSnapshotTTL)
	}

	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, DefaultDebounce)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	if cfg.Logging.Components["watcher"] != "warn" {
		t.Errorf("Logging.Components[watcher] = %q, want %q", cfg.Logging.Components["watcher"], "warn")
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "dirscan")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
default_path: ~/projects
depth: 0
output: json
manifest:
  enabled: false
  path: /custom/manifest
  retention_days: 7
store:
  enabled: false
  ttl: 1h
watch:
  debounce: 500ms
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(tempDir, "projects"); cfg.DefaultPath != want {
		t.Errorf("DefaultPath = %q, want %q", cfg.DefaultPath, want)
	}

	if cfg.Depth != 0 {
		t.Errorf("Depth = %d, want 0", cfg.Depth)
	}

	if cfg.Output != "json" {
		t.Errorf("Output = %q, want %q", cfg.Output, "json")
	}

	if cfg.Manifest.Enabled {
		t.Error("Manifest.Enabled = true, want false")
	}

	if cfg.Manifest.Path != "/custom/manifest" {
		t.Errorf("Manifest.Path = %q, want %q", cfg.Manifest.Path, "/custom/manifest")
	}

	if cfg.Manifest.RetentionDays != 7 {
		t.Errorf("Manifest.RetentionDays = %d, want 7", cfg.Manifest.RetentionDays)
	}

	if cfg.Store.Enabled {
		t.Error("Store.Enabled = true, want false")
	}

	if cfg.Store.TTL != time.Hour {
		t.Errorf("Store.TTL = %v, want 1h", cfg.Store.TTL)
	}

	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 500ms", cfg.Watch.Debounce)
	}
}

func TestLoad_XDGConfigHome(t *testing.T) {
	tempDir := t.TempDir()
	xdgConfigDir := filepath.Join(tempDir, "xdg-config", "dirscan")
	if err := os.MkdirAll(xdgConfigDir, 0o755); err != nil {
		t.Fatalf("failed to create XDG config dir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(xdgConfigDir, "config.yaml"), []byte(`output: yaml`), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg-config"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, want %q", cfg.Output, "yaml")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("DIRSCAN_DEPTH", "5")
	t.Setenv("DIRSCAN_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Depth != 5 {
		t.Errorf("Depth = %d, want 5", cfg.Depth)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "dirscan")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("depth: [1,\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error for malformed YAML")
	}
}

func TestLoggingOptions(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{
		Level:   "warn",
		Console: "error",
		Rotation: RotationConfig{
			MaxSize:    "2MiB",
			MaxAge:     3,
			MaxBackups: 4,
			Daily:      true,
		},
		Components: map[string]string{"scanner": "debug"},
	}}

	opts, err := cfg.LoggingOptions()
	if err != nil {
		t.Fatalf("LoggingOptions() error = %v", err)
	}

	if opts.Rotation.MaxSize != 2*1024*1024 {
		t.Errorf("Rotation.MaxSize = %d, want %d", opts.Rotation.MaxSize, 2*1024*1024)
	}
	if opts.Rotation.MaxAge != 3 || opts.Rotation.MaxBackups != 4 || !opts.Rotation.Daily {
		t.Errorf("Rotation = %+v, want MaxAge=3 MaxBackups=4 Daily=true", opts.Rotation)
	}
	if opts.Level != "warn" || opts.ConsoleLevel != "error" {
		t.Errorf("Level = %q, ConsoleLevel = %q", opts.Level, opts.ConsoleLevel)
	}
	if opts.Components["scanner"] != "debug" {
		t.Errorf("Components[scanner] = %q, want debug", opts.Components["scanner"])
	}

	cfg.Logging.Rotation.MaxSize = "lots"
	if _, err := cfg.LoggingOptions(); err == nil {
		t.Error("LoggingOptions() error = nil, want error for invalid max_size")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}

		if dir != "/custom/config/dirscan" {
			t.Errorf("ConfigDir() = %q, want %q", dir, "/custom/config/dirscan")
		}
	})

	t.Run("uses HOME/.config when XDG_CONFIG_HOME not set", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("HOME", tempDir)
		t.Setenv("XDG_CONFIG_HOME", "")

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}

		expected := filepath.Join(tempDir, ".config", "dirscan")
		if dir != expected {
			t.Errorf("ConfigDir() = %q, want %q", dir, expected)
		}
	})
}

func TestWriteDefault(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.Contains(string(data), "depth: 2") {
		t.Errorf("default config missing depth, got:\n%s", data)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() after WriteDefault error = %v", err)
	}
	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, DefaultDebounce)
	}
	if cfg.Store.TTL != DefaultSnapshotTTL {
		t.Errorf("Store.TTL = %v, want %v", cfg.Store.TTL, DefaultSnapshotTTL)
	}

	// A second call keeps the existing file.
	if err := os.WriteFile(path, []byte("depth: 9\n"), 0o644); err != nil {
		t.Fatalf("failed to overwrite config: %v", err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() second call error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "depth: 9\n" {
		t.Errorf("WriteDefault() overwrote existing config: %q", data)
	}
}

func TestExpandPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	got, err := ExpandPath("~/data")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if want := filepath.Join(tempDir, "data"); got != want {
		t.Errorf("ExpandPath() = %q, want %q", got, want)
	}

	got, _ = ExpandPath("/abs/path")
	if got != "/abs/path" {
		t.Errorf("ExpandPath() = %q, want unchanged", got)
	}
}
