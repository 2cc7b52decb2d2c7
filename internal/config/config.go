// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"saaspulse-sim/internal/metrics"
)

// Cadence holds the tick intervals of every scheduled task.
type Cadence struct {
	KPIs     time.Duration `yaml:"kpis" json:"kpis"`
	Server   time.Duration `yaml:"server" json:"server"`
	History  time.Duration `yaml:"history" json:"history"`
	Activity time.Duration `yaml:"activity" json:"activity"`
	Frame    time.Duration `yaml:"frame" json:"frame"`
}

// History shapes the rolling windows and their startup backfill.
type History struct {
	Length        int           `yaml:"length" json:"length"`
	Spacing       time.Duration `yaml:"spacing" json:"spacing"`
	RevenueBase   float64       `yaml:"revenue_base" json:"revenue_base"`
	RevenueFloor  float64       `yaml:"revenue_floor" json:"revenue_floor"`
	RevenueWave   float64       `yaml:"revenue_wave" json:"revenue_wave"`
	RevenueJitter float64       `yaml:"revenue_jitter" json:"revenue_jitter"`
	GrowthMin     float64       `yaml:"growth_min" json:"growth_min"`
	GrowthMax     float64       `yaml:"growth_max" json:"growth_max"`
}

// Seed converts the history settings for the generator.
func (h History) Seed() metrics.HistorySeed {
	return metrics.HistorySeed{
		Length:        h.Length,
		Spacing:       h.Spacing,
		RevenueBase:   h.RevenueBase,
		RevenueFloor:  h.RevenueFloor,
		RevenueWave:   h.RevenueWave,
		RevenueJitter: h.RevenueJitter,
		GrowthMin:     h.GrowthMin,
		GrowthMax:     h.GrowthMax,
	}
}

// Activity configures the event feed.
type Activity struct {
	Capacity  int      `yaml:"capacity" json:"capacity"`
	Companies []string `yaml:"companies" json:"companies"`
	Issues    []string `yaml:"issues" json:"issues"`
}

// TUI configures the terminal dashboard. An empty Layout renders every slot.
type TUI struct {
	Layout []string `yaml:"layout" json:"layout,omitempty"`
}

// Redis configures the optional Redis sink. An empty Addr disables it.
type Redis struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"-"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	Channel   string `yaml:"channel" json:"channel"`
}

// SimulationConfig is the root configuration of a simulator run.
type SimulationConfig struct {
	InstanceID        string          `yaml:"instance_id" json:"instance_id"`
	Seed              int64           `yaml:"seed" json:"seed"`
	Scenario          string          `yaml:"scenario" json:"scenario"`
	ScenarioFile      string          `yaml:"scenario_file" json:"scenario_file,omitempty"`
	Cadence           Cadence         `yaml:"cadence" json:"cadence"`
	AnimationDuration time.Duration   `yaml:"animation_duration" json:"animation_duration"`
	Initial           metrics.Initial `yaml:"initial" json:"initial"`
	History           History         `yaml:"history" json:"history"`
	Activity          Activity        `yaml:"activity" json:"activity"`
	TUI               TUI             `yaml:"tui" json:"tui"`
	Redis             Redis           `yaml:"redis" json:"redis"`
}

// Default returns the configuration reproducing the original dashboard.
func Default() *SimulationConfig {
	seed := metrics.DefaultHistorySeed()
	return &SimulationConfig{
		InstanceID: "saaspulse-local",
		Scenario:   "steady",
		Cadence: Cadence{
			KPIs:     3 * time.Second,
			Server:   2 * time.Second,
			History:  10 * time.Second,
			Activity: 8 * time.Second,
			Frame:    50 * time.Millisecond,
		},
		AnimationDuration: time.Second,
		Initial:           metrics.DefaultInitial(),
		History: History{
			Length:        seed.Length,
			Spacing:       seed.Spacing,
			RevenueBase:   seed.RevenueBase,
			RevenueFloor:  seed.RevenueFloor,
			RevenueWave:   seed.RevenueWave,
			RevenueJitter: seed.RevenueJitter,
			GrowthMin:     seed.GrowthMin,
			GrowthMax:     seed.GrowthMax,
		},
		Activity: Activity{
			Capacity:  3,
			Companies: append([]string(nil), metrics.DefaultCompanies...),
			Issues:    append([]string(nil), metrics.DefaultIssues...),
		},
		Redis: Redis{KeyPrefix: "saaspulse", Channel: "saaspulse:ticks"},
	}
}

// Load overlays a YAML file on the defaults after validating it against a
// CUE schema. An empty schemaPath selects the embedded schema.
func Load(configPath, schemaPath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	schema := defaultSchema
	if schemaPath != "" {
		if schema, err = os.ReadFile(schemaPath); err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
	}
	if err := ValidateWithCue(configPath, data, schema); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *SimulationConfig) ApplyEnv() error {
	if v := os.Getenv("SIM_INSTANCE"); v != "" {
		c.InstanceID = v
	}
	if v := os.Getenv("KPI_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KPI_INTERVAL: %w", err)
		}
		c.Cadence.KPIs = d
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	return c.Validate()
}

// Validate checks cross-field constraints the schema cannot express.
func (c *SimulationConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"cadence.kpis":     c.Cadence.KPIs,
		"cadence.server":   c.Cadence.Server,
		"cadence.history":  c.Cadence.History,
		"cadence.activity": c.Cadence.Activity,
		"cadence.frame":    c.Cadence.Frame,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.AnimationDuration < 0 {
		return fmt.Errorf("animation_duration must not be negative")
	}
	if c.History.Length < 2 {
		return fmt.Errorf("history.length must be at least 2, got %d", c.History.Length)
	}
	if c.History.GrowthMin < 0 || c.History.GrowthMax < c.History.GrowthMin {
		return fmt.Errorf("history growth range [%v,%v] invalid", c.History.GrowthMin, c.History.GrowthMax)
	}
	if c.Activity.Capacity < 1 {
		return fmt.Errorf("activity.capacity must be at least 1")
	}

	b := metrics.DefaultBounds()
	in := c.Initial
	switch {
	case in.Customers < b.MinCustomers:
		return fmt.Errorf("initial.customers %d below %d", in.Customers, b.MinCustomers)
	case in.OpenTickets < b.MinTickets:
		return fmt.Errorf("initial.open_tickets must not be negative")
	case in.ChurnRate < b.ChurnMin || in.ChurnRate > b.ChurnMax:
		return fmt.Errorf("initial.churn_rate %v outside [%v,%v]", in.ChurnRate, b.ChurnMin, b.ChurnMax)
	case in.CPU < b.CPUMin || in.CPU > b.CPUMax:
		return fmt.Errorf("initial.cpu %v outside [%v,%v]", in.CPU, b.CPUMin, b.CPUMax)
	case in.Memory < b.MemoryMin || in.Memory > b.MemoryMax:
		return fmt.Errorf("initial.memory %v outside [%v,%v]", in.Memory, b.MemoryMin, b.MemoryMax)
	case in.Storage < b.StorageMin || in.Storage > b.StorageMax:
		return fmt.Errorf("initial.storage %v outside [%v,%v]", in.Storage, b.StorageMin, b.StorageMax)
	case in.Uptime < b.UptimeMin || in.Uptime > b.UptimeMax:
		return fmt.Errorf("initial.uptime %v outside [%v,%v]", in.Uptime, b.UptimeMin, b.UptimeMax)
	case in.MRR < b.MRRFloor:
		return fmt.Errorf("initial.mrr must not be below %v", b.MRRFloor)
	}
	return nil
}
