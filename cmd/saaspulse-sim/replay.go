package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saaspulse-sim/internal/logging"
	"saaspulse-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayConfig    string
	replaySchema    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded snapshot log",
	Long:  "replay feeds snapshots from a --log-file recording back into GreptimeDB, Redis or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig(cmd, replayConfig, replaySchema)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		writer, cleanup, err := newWriters(ctx, cfg, writerOptions{printOnly: replayPrintOnly})
		if err != nil {
			return err
		}
		defer cleanup()
		n, err := sim.ReplayLogFile(replayInput, writer, replaySpeed)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("replay finished", "input", replayInput, "snapshots", n)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to snapshot log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print snapshots to STDOUT instead of writing to GreptimeDB and Redis")
	replayCmd.Flags().StringVar(&replayConfig, "config", "", "Path to simulation configuration YAML for sink settings (empty for defaults)")
	replayCmd.Flags().StringVar(&replaySchema, "schema", "", "Path to CUE schema file (defaults to the embedded schema)")
	replayCmd.MarkFlagRequired("input")
}
