// Package cmd defines and implements the CLI commands for the leadminer
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayzen-labs/leadminer/internal/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadminer",
		Short: "Dealer lead mining service",
		Long: `leadminer discovers car dealership websites from search keywords,
verifies which of them run on the DealerCenter platform, and extracts
contact details from the matches. Run it as a long-lived HTTP service
(serve) or as a one-shot pipeline from the terminal (run).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and LEADMINER_* env vars apply without one)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
