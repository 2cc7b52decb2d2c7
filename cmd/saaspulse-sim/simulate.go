package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"saaspulse-sim/internal/admin"
	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/logging"
	"saaspulse-sim/internal/scenario"
	"saaspulse-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simTUI        bool
	simConfigPath string
	simSchemaPath string
	simLogFile    string
	simAdminAddr  string
	simSeed       int64
	simScenario   string
	simDuration   time.Duration
	simLayout     []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time SaaS metrics simulator",
	Long:  "simulate perturbs revenue, customer, ticket and server metrics on independent cadences and streams every tick to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		sc, err := resolveScenario(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if simDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, simDuration)
			defer cancel()
		}
		log := logging.FromContext(ctx)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		writer, cleanup, err := newWriters(ctx, cfg, writerOptions{
			printOnly: simPrintOnly,
			tui:       simTUI,
			layout:    cfg.TUI.Layout,
			logFile:   simLogFile,
			registry:  reg,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		simulator, err := sim.NewSimulator(cfg, writer, sim.WithScenario(sc))
		if err != nil {
			return err
		}

		if simAdminAddr != "" {
			srv := admin.NewServer(simulator, reg)
			go func() {
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
					setAdminStatus(writer, false)
				}
			}()
			setAdminStatus(writer, true)
		}

		simulator.Run(ctx)
		log.Info("SaaS simulation stopped", "run_id", simulator.RunID())
		return nil
	},
}

func setAdminStatus(w sim.SnapshotWriter, listening bool) {
	if aw, ok := w.(sim.AdminStatusWriter); ok {
		aw.SetAdminStatus(listening)
	}
}

// loadConfig reads the config file at path (defaults when empty), then
// applies environment and flag overrides. Flags cmd does not define are
// ignored.
func loadConfig(cmd *cobra.Command, path, schema string) (*config.SimulationConfig, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path, schema); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = simSeed
	}
	if cmd.Flags().Changed("scenario") {
		cfg.Scenario = simScenario
		cfg.ScenarioFile = ""
	}
	if cmd.Flags().Changed("layout") {
		cfg.TUI.Layout = simLayout
	}
	if err := sim.ValidateLayout(cfg.TUI.Layout); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveScenario loads the scenario file if one is configured, otherwise
// the named built-in.
func resolveScenario(cfg *config.SimulationConfig) (*scenario.Scenario, error) {
	if cfg.ScenarioFile != "" {
		return scenario.Load(cfg.ScenarioFile)
	}
	name := cfg.Scenario
	if name == "" {
		name = scenario.Default
	}
	sc, ok := scenario.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %v)", name, scenario.Names())
	}
	return sc, nil
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print metrics to STDOUT instead of writing to GreptimeDB and Redis")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render the live dashboard in the terminal")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML (empty for defaults)")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "", "Path to CUE schema file (defaults to the embedded schema)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export snapshot, history and activity logs (JSONL)")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin server listen address (empty disables it)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in drift scenario to run")
	simulateCmd.Flags().StringSliceVar(&simLayout, "layout", nil, "Comma-separated TUI slots to render (default all)")
	simulateCmd.Flags().DurationVar(&simDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")
}
