package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"saaspulse-sim/internal/logging"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "saaspulse-sim",
	Short: "SaaS metrics simulation toolkit",
	Long:  "SaaSPulse-Sim generates live SaaS business and server metrics and replays recorded runs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// the TUI owns stdout, so logs move to stderr
		out := os.Stdout
		if tui, err := cmd.Flags().GetBool("tui"); err == nil && tui {
			out = os.Stderr
		}
		logger, err := logging.New(out, logLevel, logFormat)
		if err != nil {
			return err
		}
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(scenariosCmd)
}
