package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dirscan [path]",
	Short: "Show which directories use the most disk space",
	Long: `Dirscan walks a directory tree, totals the size of every directory and
prints the tree largest first.

Trees can be saved to a file and loaded later without rescanning. The latest
tree of every scanned directory is also kept in a local snapshot store.

Examples:
  dirscan                        # Scan the default path
  dirscan ~/Downloads            # Scan a specific directory
  dirscan --depth 0 -o plain .   # Print the whole tree without styling
  dirscan --save home.json ~     # Scan and save the tree
  dirscan load home.json         # Print a saved tree
  dirscan watch ~/src            # Rescan whenever something changes
  dirscan history                # View operation history`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: initializeLogging,
	RunE:              runScan,
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: pretty, plain, json, yaml")
	rootCmd.PersistentFlags().Int("depth", 0, "directory levels to print, 0 prints the whole tree")
	rootCmd.PersistentFlags().Bool("no-store", false, "do not keep a snapshot of the scan")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	rootCmd.Flags().String("save", "", "write the scanned tree to `FILE`")

	// Bind flags to viper
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("depth", rootCmd.PersistentFlags().Lookup("depth"))
	_ = viper.BindPFlag("no_store", rootCmd.PersistentFlags().Lookup("no-store"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("save", rootCmd.Flags().Lookup("save"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// printStatus prints a status line to stderr so formatted output on stdout
// stays parseable.
func printStatus(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
