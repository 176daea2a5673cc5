package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/jamesainslie/dirscan/pkg/dirscan/config"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage dirscan configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/dirscan/config.yaml (if set)
  2. ~/.config/dirscan/config.yaml

Environment variables can override config file settings using the DIRSCAN_ prefix:
  DIRSCAN_DEPTH=3
  DIRSCAN_OUTPUT=plain
  DIRSCAN_STORE_ENABLED=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configEnvVars lists the environment overrides shown by config show.
var configEnvVars = []string{
	"DIRSCAN_DEFAULT_PATH",
	"DIRSCAN_DEPTH",
	"DIRSCAN_OUTPUT",
	"DIRSCAN_MANIFEST_ENABLED",
	"DIRSCAN_MANIFEST_PATH",
	"DIRSCAN_MANIFEST_RETENTION_DAYS",
	"DIRSCAN_STORE_ENABLED",
	"DIRSCAN_STORE_PATH",
	"DIRSCAN_STORE_TTL",
	"DIRSCAN_WATCH_DEBOUNCE",
	"DIRSCAN_LOGGING_LEVEL",
	"DIRSCAN_LOGGING_PATH",
	"DIRSCAN_LOGGING_CONSOLE",
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	c := cfg
	if c == nil {
		c = defaultConfig()
	}

	configPath, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file: %s\n\n", configPath)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	logPath := c.Logging.Path
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("default_path:         %s\n", c.DefaultPath)
	fmt.Printf("depth:                %d\n", c.Depth)
	fmt.Printf("output:               %s\n", c.Output)
	fmt.Printf("manifest.enabled:     %t\n", c.Manifest.Enabled)
	fmt.Printf("manifest.path:        %s\n", c.Manifest.Path)
	fmt.Printf("manifest.retention:   %d days\n", c.Manifest.RetentionDays)
	fmt.Printf("store.enabled:        %t\n", c.Store.Enabled)
	fmt.Printf("store.path:           %s\n", c.Store.Path)
	fmt.Printf("store.ttl:            %s\n", c.Store.TTL)
	fmt.Printf("watch.debounce:       %s\n", c.Watch.Debounce)
	fmt.Printf("logging.level:        %s\n", c.Logging.Level)
	fmt.Printf("logging.path:         %s\n", logPath)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	anyOverrides := false
	for _, name := range configEnvVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'dirscan config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		printInfo("(file does not exist, run 'dirscan config init' to create it)")
	}

	return nil
}
