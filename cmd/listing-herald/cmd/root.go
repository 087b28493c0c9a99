// Package cmd implements the CLI commands for listing-herald.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "listing-herald",
	Short: "Relay garden-market trade listings into Discord",
	Long: "A service that polls the garden-market trading API, detects new " +
		"and status-changed listings, and publishes them in fixed-size " +
		"batches to a Discord channel with purchase buttons.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
