package scenario

import (
	"sort"

	"saaspulse-sim/internal/metrics"
)

// Default is the scenario used when none is configured.
const Default = "steady"

// BuiltIn returns predefined drift scenarios keyed by name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"steady": {
			Name:        "Steady",
			Description: "Business as usual with the dashboard's default jitter.",
			Phases: []Phase{
				{Name: "baseline", Description: "Gentle growth, tickets trickle down."},
			},
		},
		"launch-week": {
			Name:        "Launch Week",
			Description: "A product launch brings a signup rush followed by a support wave.",
			Phases: []Phase{
				{
					Name:        "teaser",
					Description: "Announcement traffic warms up the funnel.",
					Drift:       metrics.Drift{MRRSpread: 1500},
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 60, Next: "launch"}},
				},
				{
					Name:        "launch",
					Description: "Signups spike and revenue swings widen.",
					Drift: metrics.Drift{
						MRRSpread:      3000,
						CustomerBias:   0.2,
						CustomerSpread: 12,
						CPUSpread:      16,
						StorageStep:    1.2,
					},
					Triggers: []Trigger{{Event: EventCustomers, Value: 1400, Next: "support-wave"}},
				},
				{
					Name:        "support-wave",
					Description: "New customers file questions; the team works the queue down.",
					Drift: metrics.Drift{
						TicketBias:   0.55,
						TicketSpread: 6,
						ChurnSpread:  0.3,
					},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 180, Next: "settled"}},
				},
				{Name: "settled", Description: "Metrics return to their usual rhythm."},
			},
		},
		"incident": {
			Name:        "Incident",
			Description: "A capacity incident strains the servers until the fix rolls out.",
			Phases: []Phase{
				{
					Name:        "healthy",
					Description: "Normal operation.",
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 45, Next: "degraded"}},
				},
				{
					Name:        "degraded",
					Description: "Load climbs and uptime slips.",
					Drift: metrics.Drift{
						CPUSpread:    20,
						MemorySpread: 14,
						UptimeBias:   0.995,
						UptimeSpread: 0.05,
						ChurnSpread:  0.4,
					},
					Triggers: []Trigger{{Event: EventCPU, Value: 85, Next: "recovery"}},
				},
				{
					Name:        "recovery",
					Description: "The fix ships and the backlog is cleared.",
					Drift:       metrics.Drift{TicketBias: 0.7, TicketSpread: 4},
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 120, Next: "healthy"}},
				},
			},
		},
	}
}

// Names lists the built-in scenario keys in sorted order.
func Names() []string {
	arcs := BuiltIn()
	names := make([]string, 0, len(arcs))
	for n := range arcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a built-in scenario by key.
func Lookup(name string) (*Scenario, bool) {
	s, ok := BuiltIn()[name]
	if !ok {
		return nil, false
	}
	return &s, true
}
