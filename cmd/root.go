// Package cmd provides CLI commands for the codemod application.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "codemod",
	Short: "codemod - queue, resolve and apply source edits",
	Long: `codemod applies batches of byte-range edits to a source tree.
Edits are queued, conflict-resolved and committed from the highest offset down,
so overlapping or unresolvable edits are rejected before any file is touched.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root that plan paths are relative to")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

func Execute() error {
	return rootCmd.Execute()
}
