package metrics

import (
	"errors"
	"fmt"
	"math"
)

// RandSource yields uniformly distributed numbers in [0,1).
// *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Bounds are the domain ranges every mutation is clamped into.
type Bounds struct {
	MRRFloor     float64
	MinCustomers int
	ChurnMin     float64
	ChurnMax     float64
	MinTickets   int
	CPUMin       float64
	CPUMax       float64
	MemoryMin    float64
	MemoryMax    float64
	StorageMin   float64
	StorageMax   float64
	UptimeMin    float64
	UptimeMax    float64
}

// DefaultBounds returns the dashboard's fixed metric domains.
func DefaultBounds() Bounds {
	return Bounds{
		MRRFloor:     0,
		MinCustomers: 1000,
		ChurnMin:     0.5,
		ChurnMax:     5.0,
		MinTickets:   0,
		CPUMin:       20,
		CPUMax:       90,
		MemoryMin:    30,
		MemoryMax:    85,
		StorageMin:   30,
		StorageMax:   95,
		UptimeMin:    99.5,
		UptimeMax:    100,
	}
}

// Drift controls perturbation magnitudes. Symmetric deltas are
// (r-0.5)*Spread; biased deltas are (r-Bias)*Spread, floored for counts.
type Drift struct {
	MRRSpread      float64 `yaml:"mrr_spread,omitempty" json:"mrr_spread"`
	CustomerBias   float64 `yaml:"customer_bias,omitempty" json:"customer_bias"`
	CustomerSpread float64 `yaml:"customer_spread,omitempty" json:"customer_spread"`
	ChurnSpread    float64 `yaml:"churn_spread,omitempty" json:"churn_spread"`
	TicketBias     float64 `yaml:"ticket_bias,omitempty" json:"ticket_bias"`
	TicketSpread   float64 `yaml:"ticket_spread,omitempty" json:"ticket_spread"`
	CPUSpread      float64 `yaml:"cpu_spread,omitempty" json:"cpu_spread"`
	MemorySpread   float64 `yaml:"memory_spread,omitempty" json:"memory_spread"`
	StorageStep    float64 `yaml:"storage_step,omitempty" json:"storage_step"`
	UptimeBias     float64 `yaml:"uptime_bias,omitempty" json:"uptime_bias"`
	UptimeSpread   float64 `yaml:"uptime_spread,omitempty" json:"uptime_spread"`
	RevenueNoise   float64 `yaml:"revenue_noise,omitempty" json:"revenue_noise"`
}

// DefaultDrift reproduces the dashboard's original jitter.
func DefaultDrift() Drift {
	return Drift{
		MRRSpread:      1000,
		CustomerBias:   0.3,
		CustomerSpread: 5,
		ChurnSpread:    0.2,
		TicketBias:     0.6,
		TicketSpread:   3,
		CPUSpread:      10,
		MemorySpread:   8,
		StorageStep:    0.5,
		UptimeBias:     0.99,
		UptimeSpread:   0.01,
		RevenueNoise:   2000,
	}
}

// Merge returns d with every non-zero field of o applied on top.
func (d Drift) Merge(o Drift) Drift {
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	set(&d.MRRSpread, o.MRRSpread)
	set(&d.CustomerBias, o.CustomerBias)
	set(&d.CustomerSpread, o.CustomerSpread)
	set(&d.ChurnSpread, o.ChurnSpread)
	set(&d.TicketBias, o.TicketBias)
	set(&d.TicketSpread, o.TicketSpread)
	set(&d.CPUSpread, o.CPUSpread)
	set(&d.MemorySpread, o.MemorySpread)
	set(&d.StorageStep, o.StorageStep)
	set(&d.UptimeBias, o.UptimeBias)
	set(&d.UptimeSpread, o.UptimeSpread)
	set(&d.RevenueNoise, o.RevenueNoise)
	return d
}

// CustomerMean is the expected customer delta per KPI tick.
func (d Drift) CustomerMean() float64 {
	return flooredMean(d.CustomerBias, d.CustomerSpread)
}

// TicketMean is the expected ticket delta per KPI tick.
func (d Drift) TicketMean() float64 {
	return flooredMean(d.TicketBias, d.TicketSpread)
}

// Validate checks that the drift keeps customers trending up and tickets
// trending down.
func (d Drift) Validate() error {
	for name, v := range map[string]float64{
		"mrr_spread":      d.MRRSpread,
		"customer_spread": d.CustomerSpread,
		"churn_spread":    d.ChurnSpread,
		"ticket_spread":   d.TicketSpread,
		"cpu_spread":      d.CPUSpread,
		"memory_spread":   d.MemorySpread,
		"storage_step":    d.StorageStep,
		"uptime_spread":   d.UptimeSpread,
		"revenue_noise":   d.RevenueNoise,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("drift %s must be a non-negative number, got %v", name, v)
		}
	}
	if d.UptimeBias < 0 || d.UptimeBias > 1 {
		return fmt.Errorf("drift uptime_bias must be within [0,1], got %v", d.UptimeBias)
	}
	if d.CustomerMean() <= 0 {
		return errors.New("drift customer delta must average above zero")
	}
	if d.TicketMean() >= 0 {
		return errors.New("drift ticket delta must average below zero")
	}
	return nil
}

// flooredMean integrates floor((r-bias)*spread) over r in [0,1).
func flooredMean(bias, spread float64) float64 {
	const steps = 10000
	var sum float64
	for i := 0; i < steps; i++ {
		r := (float64(i) + 0.5) / steps
		sum += math.Floor((r - bias) * spread)
	}
	return sum / steps
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AddFloor adds delta to v without going below floor.
func AddFloor(v, delta, floor int) int {
	v += delta
	if v < floor {
		return floor
	}
	return v
}
