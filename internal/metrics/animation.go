package metrics

import (
	"math"
	"time"
)

// EaseOutCubic maps t in [0,1] onto a fast-start, slow-end curve.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// Counter interpolates a displayed number from Start to Target.
type Counter struct {
	Start    float64
	Target   float64
	Duration time.Duration
}

// Value returns the display value at progress t. The endpoints are exact.
func (c Counter) Value(t float64) float64 {
	if t <= 0 || math.IsNaN(t) {
		return c.Start
	}
	if t >= 1 {
		return c.Target
	}
	return c.Start + (c.Target-c.Start)*EaseOutCubic(t)
}

// At returns the display value after elapsed time.
func (c Counter) At(elapsed time.Duration) float64 {
	if c.Duration <= 0 {
		return c.Target
	}
	return c.Value(float64(elapsed) / float64(c.Duration))
}

// Frame carries the animated display values for the KPI cards.
type Frame struct {
	MRR         float64   `json:"mrr"`
	Customers   float64   `json:"customers"`
	ChurnRate   float64   `json:"churn_rate"`
	OpenTickets float64   `json:"open_tickets"`
	Final       bool      `json:"final"`
	Timestamp   time.Time `json:"ts"`
}

// KPI keys used by the animator.
const (
	CounterMRR         = "mrr"
	CounterCustomers   = "customers"
	CounterChurn       = "churn_rate"
	CounterOpenTickets = "open_tickets"
)

type animation struct {
	counter Counter
	started time.Time
}

// Animator tracks one counter per KPI. Retargeting starts from the previous
// target, not from whatever value was on screen.
type Animator struct {
	duration time.Duration
	counters map[string]*animation
}

// NewAnimator returns an animator with every counter resting at the values
// of s.
func NewAnimator(duration time.Duration, s *State, now time.Time) *Animator {
	a := &Animator{duration: duration, counters: make(map[string]*animation)}
	for k, v := range kpiTargets(s) {
		a.counters[k] = &animation{
			counter: Counter{Start: v, Target: v, Duration: duration},
			started: now.Add(-duration),
		}
	}
	return a
}

func kpiTargets(s *State) map[string]float64 {
	return map[string]float64{
		CounterMRR:         s.MRR,
		CounterCustomers:   float64(s.Customers),
		CounterChurn:       s.ChurnRate,
		CounterOpenTickets: float64(s.OpenTickets),
	}
}

// Retarget starts new animations towards the KPI values of s.
func (a *Animator) Retarget(s *State, now time.Time) {
	for k, v := range kpiTargets(s) {
		anim, ok := a.counters[k]
		if !ok {
			anim = &animation{counter: Counter{Start: v, Target: v, Duration: a.duration}}
			a.counters[k] = anim
		}
		anim.counter = Counter{Start: anim.counter.Target, Target: v, Duration: a.duration}
		anim.started = now
	}
}

// Active reports whether any counter is still moving at now.
func (a *Animator) Active(now time.Time) bool {
	for _, anim := range a.counters {
		if anim.counter.Start != anim.counter.Target && now.Sub(anim.started) < a.duration {
			return true
		}
	}
	return false
}

// Counter returns the current animation for key.
func (a *Animator) Counter(key string) (Counter, bool) {
	anim, ok := a.counters[key]
	if !ok {
		return Counter{}, false
	}
	return anim.counter, true
}

// Frame samples every counter at now.
func (a *Animator) Frame(now time.Time) Frame {
	value := func(k string) float64 {
		anim, ok := a.counters[k]
		if !ok {
			return 0
		}
		return anim.counter.At(now.Sub(anim.started))
	}
	return Frame{
		MRR:         value(CounterMRR),
		Customers:   value(CounterCustomers),
		ChurnRate:   value(CounterChurn),
		OpenTickets: value(CounterOpenTickets),
		Final:       !a.Active(now),
		Timestamp:   now,
	}
}
