package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgPath string
	debug   bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "registrar",
		Short: "Event registration service",
		Long: `Event registration service for a single organization's events.

Functions:
- Serve the registration, payment and analytics HTTP API
- Approve or reject registrations and issue refunds
- Process registration notifications from the service bus
- Sweep past events to their completed state`,
	}
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// initLogging adjusts the global log level from flags
func initLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
