package main

import (
	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfg is the configuration loaded by initializeLogging.
var cfg *config.Config

// defaultConfig is used when the config file cannot be read.
func defaultConfig() *config.Config {
	c := &config.Config{
		DefaultPath: config.DefaultPath,
		Depth:       config.DefaultDepth,
		Output:      config.DefaultOutput,
	}
	c.Manifest.Enabled = true
	c.Manifest.RetentionDays = config.DefaultRetentionDays
	if dir, err := config.ManifestDir(); err == nil {
		c.Manifest.Path = dir
	} else {
		c.Manifest.Enabled = false
	}
	c.Store.Enabled = true
	c.Store.Path = config.DefaultStorePath()
	c.Store.TTL = config.DefaultSnapshotTTL
	c.Watch.Debounce = config.DefaultDebounce
	c.Logging.Level = "info"
	return c
}

// initializeLogging loads the configuration and sets up logging before any
// command runs.
func initializeLogging(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		printError("Failed to load configuration, using defaults: %v", err)
		loaded = defaultConfig()
	}
	cfg = loaded

	// Flags win over the config file.
	viper.SetDefault("output", cfg.Output)
	viper.SetDefault("depth", cfg.Depth)

	return logging.Init(loggingOptions(cfg))
}

// loggingOptions converts the logging section, falling back to the default
// rotation settings when they are invalid.
func loggingOptions(c *config.Config) logging.Config {
	opts, err := c.LoggingOptions()
	if err != nil {
		printError("%v, using default log rotation", err)
		opts = logging.DefaultConfig()
		opts.Path = c.Logging.Path
		opts.Components = c.Logging.Components
		opts.ConsoleLevel = c.Logging.Console
		if c.Logging.Level != "" {
			opts.Level = c.Logging.Level
		}
	}

	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.Rotation.MaxSize <= 0 {
		opts.Rotation.MaxSize = logging.DefaultRotationConfig().MaxSize
	}
	if getVerbose() {
		opts.ConsoleLevel = "debug"
	}

	return opts
}
