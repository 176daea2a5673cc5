package main

import (
	"testing"

	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
)

func TestLoggingOptions(t *testing.T) {
	defaultSize := logging.DefaultRotationConfig().MaxSize

	tests := []struct {
		name        string
		rotation    config.RotationConfig
		level       string
		verbose     bool
		wantSize    int64
		wantLevel   string
		wantConsole string
	}{
		{
			name:      "configured size",
			rotation:  config.RotationConfig{MaxSize: "1MiB", MaxAge: 7, MaxBackups: 3},
			level:     "warn",
			wantSize:  1024 * 1024,
			wantLevel: "warn",
		},
		{
			name:      "empty max_size uses default",
			rotation:  config.RotationConfig{MaxAge: 14},
			level:     "info",
			wantSize:  defaultSize,
			wantLevel: "info",
		},
		{
			name:      "invalid max_size uses default",
			rotation:  config.RotationConfig{MaxSize: "invalid"},
			level:     "debug",
			wantSize:  defaultSize,
			wantLevel: "debug",
		},
		{
			name:      "empty level becomes info",
			rotation:  config.RotationConfig{MaxSize: "10MB"},
			wantSize:  10 * 1000 * 1000,
			wantLevel: "info",
		},
		{
			name:        "verbose mirrors debug to console",
			rotation:    config.RotationConfig{MaxSize: "10MB"},
			level:       "info",
			verbose:     true,
			wantSize:    10 * 1000 * 1000,
			wantLevel:   "info",
			wantConsole: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setViper(t, "verbose", tt.verbose)

			c := defaultConfig()
			c.Logging.Level = tt.level
			c.Logging.Rotation = tt.rotation

			opts := loggingOptions(c)

			if opts.Rotation.MaxSize != tt.wantSize {
				t.Errorf("MaxSize = %d, want %d", opts.Rotation.MaxSize, tt.wantSize)
			}
			if opts.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", opts.Level, tt.wantLevel)
			}
			if opts.ConsoleLevel != tt.wantConsole {
				t.Errorf("ConsoleLevel = %q, want %q", opts.ConsoleLevel, tt.wantConsole)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()

	if c.Output != config.DefaultOutput {
		t.Errorf("Output = %q, want %q", c.Output, config.DefaultOutput)
	}
	if c.Depth != config.DefaultDepth {
		t.Errorf("Depth = %d, want %d", c.Depth, config.DefaultDepth)
	}
	if !c.Store.Enabled || c.Store.Path == "" {
		t.Errorf("store should be enabled with a path, got %+v", c.Store)
	}
	if c.Watch.Debounce != config.DefaultDebounce {
		t.Errorf("Debounce = %s, want %s", c.Watch.Debounce, config.DefaultDebounce)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"load", "save", "watch", "snapshots", "history", "config", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}
}
