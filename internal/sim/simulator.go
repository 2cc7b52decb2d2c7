// Simulator owning the SaaS metric state and its scheduled ticks
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/metrics"
	"saaspulse-sim/internal/scenario"
)

// Observer is called with the snapshot produced by every tick.
type Observer func(metrics.Snapshot)

type observerEntry struct {
	id int
	fn Observer
}

// HistoryView is a copy of both rolling windows.
type HistoryView struct {
	Revenue   []metrics.Point `json:"revenue"`
	Customers []metrics.Point `json:"customers"`
}

// PhaseInfo describes the active scenario phase.
type PhaseInfo struct {
	Scenario    string        `json:"scenario"`
	Phase       string        `json:"phase"`
	Description string        `json:"description,omitempty"`
	Since       time.Time     `json:"since"`
	Drift       metrics.Drift `json:"drift"`
}

// Simulator owns the metric state and advances it on independent cadences.
type Simulator struct {
	runID       string
	instance    string
	cfg         *config.SimulationConfig
	gen         *metrics.Generator
	activityGen *metrics.ActivityGenerator
	state       *metrics.State
	animator    *metrics.Animator
	animating   bool
	feed        *metrics.Feed
	writer      SnapshotWriter
	scenario    *scenario.Scenario
	phase       string
	phaseStart  time.Time
	baseDrift   metrics.Drift
	rand        *rand.Rand
	clock       Clock
	sched       *Scheduler
	tasks       map[string]*Task
	ticks       map[string]int
	mu          sync.Mutex

	// tickMu is held for a whole tick, mutation through publish, so sinks
	// and observers see snapshots in the order the state changed.
	tickMu    sync.Mutex
	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithRand injects the random source.
func WithRand(r *rand.Rand) Option { return func(s *Simulator) { s.rand = r } }

// WithClock injects the clock driving ticks and timestamps.
func WithClock(c Clock) Option { return func(s *Simulator) { s.clock = c } }

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option { return func(s *Simulator) { s.runID = id } }

// WithScenario selects the drift scenario.
func WithScenario(sc *scenario.Scenario) Option { return func(s *Simulator) { s.scenario = sc } }

// NewSimulator seeds the state and history windows from cfg and registers
// the periodic ticks. Nothing runs until Run is called.
func NewSimulator(cfg *config.SimulationConfig, writer SnapshotWriter, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if writer == nil {
		writer = DiscardWriter{}
	}
	s := &Simulator{
		instance:  cfg.InstanceID,
		cfg:       cfg,
		writer:    writer,
		baseDrift: metrics.DefaultDrift(),
		ticks:     make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.rand == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rand = rand.New(rand.NewSource(seed))
	}
	if s.scenario == nil {
		sc, ok := scenario.Lookup(scenario.Default)
		if !ok {
			return nil, fmt.Errorf("default scenario %q missing", scenario.Default)
		}
		s.scenario = sc
	}
	if err := s.scenario.Validate(s.baseDrift); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.scenario.Name, err)
	}

	now := s.clock.Now()
	s.phase = s.scenario.First()
	s.phaseStart = now
	s.gen = metrics.NewGenerator(s.rand, metrics.DefaultBounds(), s.phaseDrift(s.phase))
	s.activityGen = metrics.NewActivityGenerator(s.rand, cfg.Activity.Companies, cfg.Activity.Issues)
	s.state = metrics.NewState(cfg.Initial, cfg.History.Length)
	s.gen.SeedHistory(s.state, now, cfg.History.Seed())
	s.animator = metrics.NewAnimator(cfg.AnimationDuration, s.state, now)
	s.feed = metrics.NewFeed(cfg.Activity.Capacity)

	s.sched = NewScheduler(s.clock)
	s.tasks = map[string]*Task{
		metrics.OpKPIs:     s.sched.Every(metrics.OpKPIs, cfg.Cadence.KPIs, func(ctx context.Context) { s.TickKPIs(ctx) }),
		metrics.OpServer:   s.sched.Every(metrics.OpServer, cfg.Cadence.Server, func(ctx context.Context) { s.TickServerMetrics(ctx) }),
		metrics.OpHistory:  s.sched.Every(metrics.OpHistory, cfg.Cadence.History, func(ctx context.Context) { s.RollHistory(ctx) }),
		metrics.OpActivity: s.sched.Every(metrics.OpActivity, cfg.Cadence.Activity, func(ctx context.Context) { s.EmitActivityEvent(ctx) }),
		opFrame:            s.sched.EveryLatest(opFrame, cfg.Cadence.Frame, s.renderFrame),
	}
	return s, nil
}

const opFrame = "frame"

func (s *Simulator) phaseDrift(name string) metrics.Drift {
	p, _ := s.scenario.Phase(name)
	return s.baseDrift.Merge(p.Drift)
}

// RunID returns the identifier stamped on every row of this run.
func (s *Simulator) RunID() string { return s.runID }

// Scheduler exposes the task scheduler.
func (s *Simulator) Scheduler() *Scheduler { return s.sched }

// Task returns the scheduled task for op.
func (s *Simulator) Task(op string) (*Task, bool) {
	t, ok := s.tasks[op]
	return t, ok
}

// Config returns the simulation configuration.
func (s *Simulator) Config() *config.SimulationConfig { return s.cfg }

// Snapshot returns a copy of the current state.
func (s *Simulator) Snapshot() metrics.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked("", s.clock.Now())
}

func (s *Simulator) snapshotLocked(op string, now time.Time) metrics.Snapshot {
	return metrics.Snapshot{
		RunID:       s.runID,
		Instance:    s.instance,
		Op:          op,
		Phase:       s.phase,
		MRR:         s.state.MRR,
		Customers:   s.state.Customers,
		ChurnRate:   s.state.ChurnRate,
		OpenTickets: s.state.OpenTickets,
		Server:      s.state.Server,
		Segments:    metrics.Segments(s.state.Customers),
		Timestamp:   now,
	}
}

// History returns copies of the revenue and customer windows.
func (s *Simulator) History() HistoryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryView{
		Revenue:   s.state.Revenue.Points(),
		Customers: s.state.CustomerHistory.Points(),
	}
}

// Activity returns the feed, oldest first.
func (s *Simulator) Activity() []metrics.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed.Items()
}

// Phase returns the active scenario phase.
func (s *Simulator) Phase() PhaseInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.scenario.Phase(s.phase)
	return PhaseInfo{
		Scenario:    s.scenario.Name,
		Phase:       s.phase,
		Description: p.Description,
		Since:       s.phaseStart,
		Drift:       s.gen.Drift(),
	}
}

// TickCounts returns how many times each operation has run.
func (s *Simulator) TickCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.ticks))
	for k, v := range s.ticks {
		out[k] = v
	}
	return out
}

// Subscribe registers fn to be called after every tick and returns a func
// that removes it. Observers run inside the tick and must not start ticks
// themselves.
func (s *Simulator) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}
