package metrics

import (
	"math"
	"time"
)

// HistorySeed shapes the synthetic backfill generated at startup.
type HistorySeed struct {
	Length        int
	Spacing       time.Duration
	RevenueBase   float64
	RevenueFloor  float64
	RevenueWave   float64
	RevenueJitter float64
	GrowthMin     float64
	GrowthMax     float64
}

// DefaultHistorySeed returns thirty daily points around 40k revenue.
func DefaultHistorySeed() HistorySeed {
	return HistorySeed{
		Length:        30,
		Spacing:       24 * time.Hour,
		RevenueBase:   40000,
		RevenueFloor:  35000,
		RevenueWave:   5000,
		RevenueJitter: 3000,
		GrowthMin:     1,
		GrowthMax:     6,
	}
}

// Generator applies random perturbations to a State.
type Generator struct {
	rand   RandSource
	bounds Bounds
	drift  Drift
}

// NewGenerator creates a generator drawing from r.
func NewGenerator(r RandSource, bounds Bounds, drift Drift) *Generator {
	return &Generator{rand: r, bounds: bounds, drift: drift}
}

// SetDrift swaps the perturbation profile.
func (g *Generator) SetDrift(d Drift) { g.drift = d }

// Drift returns the active perturbation profile.
func (g *Generator) Drift() Drift { return g.drift }

// Bounds returns the clamping domains.
func (g *Generator) Bounds() Bounds { return g.bounds }

func (g *Generator) symmetric(spread float64) float64 {
	return (g.rand.Float64() - 0.5) * spread
}

func (g *Generator) biased(bias, spread float64) int {
	return int(math.Floor((g.rand.Float64() - bias) * spread))
}

// TickKPIs perturbs revenue, customers, churn and open tickets.
func (g *Generator) TickKPIs(s *State) {
	s.MRR = math.Max(g.bounds.MRRFloor, s.MRR+g.symmetric(g.drift.MRRSpread))
	s.Customers = AddFloor(s.Customers, g.biased(g.drift.CustomerBias, g.drift.CustomerSpread), g.bounds.MinCustomers)
	s.ChurnRate = Clamp(s.ChurnRate+g.symmetric(g.drift.ChurnSpread), g.bounds.ChurnMin, g.bounds.ChurnMax)
	s.OpenTickets = AddFloor(s.OpenTickets, g.biased(g.drift.TicketBias, g.drift.TicketSpread), g.bounds.MinTickets)
}

// TickServer perturbs CPU and memory, fills storage and drifts uptime.
func (g *Generator) TickServer(s *State) {
	b := g.bounds
	s.Server.CPU = Clamp(s.Server.CPU+g.symmetric(g.drift.CPUSpread), b.CPUMin, b.CPUMax)
	s.Server.Memory = Clamp(s.Server.Memory+g.symmetric(g.drift.MemorySpread), b.MemoryMin, b.MemoryMax)
	s.Server.Storage = Clamp(s.Server.Storage+g.rand.Float64()*g.drift.StorageStep, b.StorageMin, b.StorageMax)
	uptime := (g.rand.Float64() - g.drift.UptimeBias) * g.drift.UptimeSpread
	s.Server.Uptime = Clamp(s.Server.Uptime+uptime, b.UptimeMin, b.UptimeMax)
}

// Roll appends a noisy revenue sample and a customer high-water mark.
// It returns the points as stored.
func (g *Generator) Roll(s *State, now time.Time) (revenue, customers Point) {
	revenue = s.Revenue.Push(Point{Timestamp: now, Value: s.MRR + g.symmetric(g.drift.RevenueNoise)})
	next := float64(s.Customers)
	if last, ok := s.CustomerHistory.Last(); ok && last.Value > next {
		next = last.Value
	}
	customers = s.CustomerHistory.Push(Point{Timestamp: now, Value: next})
	return revenue, customers
}

// SeedHistory fills both windows with backdated points ending at now.
// Customer history grows towards the current customer count.
func (g *Generator) SeedHistory(s *State, now time.Time, seed HistorySeed) {
	n := seed.Length
	s.Revenue = NewWindow(n)
	s.CustomerHistory = NewWindow(n)

	for i := n - 1; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * seed.Spacing)
		v := seed.RevenueBase + math.Sin(float64(i)/5)*seed.RevenueWave + g.rand.Float64()*seed.RevenueJitter
		s.Revenue.Push(Point{Timestamp: ts, Value: math.Max(v, seed.RevenueFloor)})
	}

	growth := make([]float64, n)
	for i := range growth {
		growth[i] = g.rand.Float64()*(seed.GrowthMax-seed.GrowthMin) + seed.GrowthMin
	}
	values := make([]float64, n)
	total := float64(s.Customers)
	for i := n - 1; i >= 0; i-- {
		values[i] = math.Max(0, math.Floor(total))
		total -= growth[i]
	}
	for i, v := range values {
		ts := now.Add(-time.Duration(n-1-i) * seed.Spacing)
		s.CustomerHistory.Push(Point{Timestamp: ts, Value: v})
	}
}
