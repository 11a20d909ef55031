// Package cli implements the inkwell command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "0.3.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Credit-metered PDF authoring and transformation service",
	Long: `Inkwell is a self-hosted PDF service. It merges, splits, rotates,
compresses, watermarks, signs, and converts documents over a simple
HTTP API, metering every operation against a per-user credit balance.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default ~/.inkwell/config.toml)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the inkwell version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell %s\n", Version)
	},
}

// resolveConfigPath returns the --config flag value or the default
// location under the user's home directory.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".inkwell", "config.toml")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
