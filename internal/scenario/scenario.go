package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"saaspulse-sim/internal/metrics"
)

// Trigger event types.
const (
	EventTimeElapsed = "time_elapsed" // seconds since the phase started
	EventCustomers   = "customers"
	EventOpenTickets = "open_tickets"
	EventStorage     = "storage"
	EventCPU         = "cpu"
)

// Scenario is a named sequence of drift phases.
type Scenario struct {
	Name        string  `yaml:"name,omitempty" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description"`
	Phases      []Phase `yaml:"phases" json:"phases"`
}

// Phase overrides the perturbation profile until one of its triggers fires.
type Phase struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Drift       metrics.Drift `yaml:"drift,omitempty" json:"drift"`
	Triggers    []Trigger     `yaml:"triggers,omitempty" json:"triggers,omitempty"`
}

// Trigger moves the scenario to another phase once an event reaches Value.
type Trigger struct {
	Event string  `yaml:"event" json:"event"`
	Value float64 `yaml:"value" json:"value"`
	Next  string  `yaml:"next" json:"next"`
}

// Event is an observation fed to NextPhase.
type Event struct {
	Type  string
	Value float64
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(metrics.DefaultDrift()); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks phase names, trigger targets and that every phase drift,
// applied on top of base, keeps the metric trends intact.
func (s *Scenario) Validate(base metrics.Drift) error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("no phases defined")
	}
	names := make(map[string]bool, len(s.Phases))
	for _, p := range s.Phases {
		if p.Name == "" {
			return fmt.Errorf("phase without name")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate phase %q", p.Name)
		}
		names[p.Name] = true
	}
	for _, p := range s.Phases {
		if err := base.Merge(p.Drift).Validate(); err != nil {
			return fmt.Errorf("phase %s: %w", p.Name, err)
		}
		for _, tr := range p.Triggers {
			switch tr.Event {
			case EventTimeElapsed, EventCustomers, EventOpenTickets, EventStorage, EventCPU:
			default:
				return fmt.Errorf("phase %s: unknown trigger event %q", p.Name, tr.Event)
			}
			if !names[tr.Next] {
				return fmt.Errorf("phase %s: trigger targets unknown phase %q", p.Name, tr.Next)
			}
		}
	}
	return nil
}

// First returns the name of the opening phase.
func (s *Scenario) First() string {
	if len(s.Phases) == 0 {
		return ""
	}
	return s.Phases[0].Name
}

// Phase looks up a phase by name.
func (s *Scenario) Phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	p, found := s.Phase(current)
	if !found {
		return "", false
	}
	for _, tr := range p.Triggers {
		if tr.Event == ev.Type && ev.Value >= tr.Value {
			return tr.Next, true
		}
	}
	return "", false
}
