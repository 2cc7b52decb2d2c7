package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulation.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
instance_id: pulse-eu-1
seed: 99
scenario: incident
cadence:
  kpis: 1500ms
initial:
  mrr: 50000
  customers: 2000
history:
  length: 12
activity:
  capacity: 5
  companies: [Acme]
tui:
  layout: [mrr, activity]
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.InstanceID != "pulse-eu-1" || cfg.Seed != 99 || cfg.Scenario != "incident" {
		t.Errorf("unexpected top-level fields: %+v", cfg)
	}
	if cfg.Cadence.KPIs != 1500*time.Millisecond {
		t.Errorf("expected 1.5s KPI cadence, got %v", cfg.Cadence.KPIs)
	}
	if cfg.Cadence.Server != 2*time.Second {
		t.Errorf("server cadence default lost: %v", cfg.Cadence.Server)
	}
	if cfg.Initial.MRR != 50000 || cfg.Initial.Customers != 2000 || cfg.Initial.OpenTickets != 23 {
		t.Errorf("unexpected initial values: %+v", cfg.Initial)
	}
	if cfg.History.Length != 12 || cfg.History.Spacing != 24*time.Hour {
		t.Errorf("unexpected history: %+v", cfg.History)
	}
	if cfg.Activity.Capacity != 5 || len(cfg.Activity.Companies) != 1 || len(cfg.Activity.Issues) != 6 {
		t.Errorf("unexpected activity: %+v", cfg.Activity)
	}
	if len(cfg.TUI.Layout) != 2 || cfg.TUI.Layout[1] != "activity" {
		t.Errorf("unexpected tui layout: %v", cfg.TUI.Layout)
	}
}

func TestLoadConfig_SchemaRejects(t *testing.T) {
	tests := map[string]string{
		"customers below floor": "initial:\n  customers: 10\n",
		"unknown field":         "fleets: []\n",
		"bad duration":          "cadence:\n  kpis: soon\n",
		"zero capacity":         "activity:\n  capacity: 0\n",
		"unknown tui slot":      "tui:\n  layout: [mrr, gauges]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body), ""); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfig_SchemaOverride(t *testing.T) {
	schema := filepath.Join(t.TempDir(), "strict.cue")
	if err := os.WriteFile(schema, []byte("#Simulation: {seed: int & >100}\n"), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if _, err := Load(writeConfig(t, "seed: 5\n"), schema); err == nil {
		t.Fatalf("expected override schema to reject seed")
	}
	if _, err := Load(writeConfig(t, "seed: 500\n"), schema); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Initial.MRR != 42350 || cfg.Initial.Customers != 1247 {
		t.Fatalf("unexpected seed figures: %+v", cfg.Initial)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SIM_INSTANCE", "from-env")
	t.Setenv("KPI_INTERVAL", "250ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.InstanceID != "from-env" || cfg.Cadence.KPIs != 250*time.Millisecond {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("redis env not applied: %+v", cfg.Redis)
	}

	t.Setenv("KPI_INTERVAL", "fast")
	if err := Default().ApplyEnv(); err == nil {
		t.Fatalf("expected error for bad KPI_INTERVAL")
	}
}
