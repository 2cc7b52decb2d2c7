// Metric state and row types shared by the simulator and its writers
package metrics

import (
	"os"
	"time"
)

// ServerMetrics holds infrastructure health percentages.
type ServerMetrics struct {
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Storage float64 `json:"storage"`
	Uptime  float64 `json:"uptime"`
}

// State is the mutable aggregate owned by the simulator.
type State struct {
	MRR             float64
	Customers       int
	ChurnRate       float64
	OpenTickets     int
	Server          ServerMetrics
	Revenue         *Window
	CustomerHistory *Window
}

// CustomerSegments splits the customer base for the breakdown chart.
type CustomerSegments struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	New      int `json:"new"`
}

// Segments derives the customer breakdown from the active count.
func Segments(customers int) CustomerSegments {
	return CustomerSegments{
		Active:   customers,
		Inactive: int(float64(customers) * 0.12),
		New:      int(float64(customers) * 0.07),
	}
}

// Snapshot is a read-only copy of the current state, written once per tick.
type Snapshot struct {
	RunID       string           `json:"run_id"`   // TAG
	Instance    string           `json:"instance"` // TAG
	Op          string           `json:"op"`
	Phase       string           `json:"phase,omitempty"`
	MRR         float64          `json:"mrr"`
	Customers   int              `json:"customers"`
	ChurnRate   float64          `json:"churn_rate"`
	OpenTickets int              `json:"open_tickets"`
	Server      ServerMetrics    `json:"server"`
	Segments    CustomerSegments `json:"segments"`
	Timestamp   time.Time        `json:"ts"` // TIME INDEX
}

// SnapshotTableName holds the table name used when writing snapshots to
// GreptimeDB. It defaults to "saas_metrics" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var SnapshotTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "saas_metrics"
}()

func (Snapshot) TableName() string {
	return SnapshotTableName
}

// History series names.
const (
	SeriesRevenue   = "revenue"
	SeriesCustomers = "customers"
)

// HistoryRow is one point appended to a rolling history window.
type HistoryRow struct {
	RunID     string    `json:"run_id"`
	Series    string    `json:"series"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"ts"`
}

// Tick operation names.
const (
	OpInit     = "init"
	OpKPIs     = "kpis"
	OpServer   = "server"
	OpHistory  = "history"
	OpActivity = "activity"
)

// Initial holds the seed figures a run starts from.
type Initial struct {
	MRR         float64 `yaml:"mrr" json:"mrr"`
	Customers   int     `yaml:"customers" json:"customers"`
	ChurnRate   float64 `yaml:"churn_rate" json:"churn_rate"`
	OpenTickets int     `yaml:"open_tickets" json:"open_tickets"`
	CPU         float64 `yaml:"cpu" json:"cpu"`
	Memory      float64 `yaml:"memory" json:"memory"`
	Storage     float64 `yaml:"storage" json:"storage"`
	Uptime      float64 `yaml:"uptime" json:"uptime"`
}

// DefaultInitial returns the dashboard's seed figures.
func DefaultInitial() Initial {
	return Initial{
		MRR:         42350,
		Customers:   1247,
		ChurnRate:   2.1,
		OpenTickets: 23,
		CPU:         45,
		Memory:      67,
		Storage:     34,
		Uptime:      99.98,
	}
}

// NewState builds a state from seed figures with empty history windows of
// the given length.
func NewState(in Initial, historyLength int) *State {
	return &State{
		MRR:         in.MRR,
		Customers:   in.Customers,
		ChurnRate:   in.ChurnRate,
		OpenTickets: in.OpenTickets,
		Server: ServerMetrics{
			CPU:     in.CPU,
			Memory:  in.Memory,
			Storage: in.Storage,
			Uptime:  in.Uptime,
		},
		Revenue:         NewWindow(historyLength),
		CustomerHistory: NewWindow(historyLength),
	}
}
