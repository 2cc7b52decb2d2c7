package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/metrics"
	"saaspulse-sim/internal/scenario"
)

// advance steps the clock by step until d has passed, running due tasks.
func advance(s *Simulator, clock *clockwork.FakeClock, d, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		clock.Advance(step)
		s.Scheduler().RunDue(context.Background(), clock.Now())
	}
}

func TestSimulatorCadences(t *testing.T) {
	w := &recordWriter{}
	s, clock := newTestSimulator(t, w)

	advance(s, clock, 30*time.Second, 50*time.Millisecond)

	counts := s.TickCounts()
	want := map[string]int{
		metrics.OpKPIs:     10,
		metrics.OpServer:   15,
		metrics.OpHistory:  3,
		metrics.OpActivity: 3,
	}
	for op, n := range want {
		if counts[op] != n {
			t.Fatalf("%s ran %d times, want %d (all: %v)", op, counts[op], n, counts)
		}
	}
	if len(w.history) != 6 {
		t.Fatalf("expected 6 history rows, got %d", len(w.history))
	}
	if len(w.activity) != 3 {
		t.Fatalf("expected 3 activity events, got %d", len(w.activity))
	}
}

func TestSimulatorStaysWithinBounds(t *testing.T) {
	s, clock := newTestSimulator(t, DiscardWriter{})
	b := metrics.DefaultBounds()
	var bad []metrics.Snapshot
	s.Subscribe(func(snap metrics.Snapshot) {
		ok := snap.MRR >= b.MRRFloor &&
			snap.Customers >= b.MinCustomers &&
			snap.OpenTickets >= b.MinTickets &&
			snap.ChurnRate >= b.ChurnMin && snap.ChurnRate <= b.ChurnMax &&
			snap.Server.CPU >= b.CPUMin && snap.Server.CPU <= b.CPUMax &&
			snap.Server.Memory >= b.MemoryMin && snap.Server.Memory <= b.MemoryMax &&
			snap.Server.Storage <= b.StorageMax &&
			snap.Server.Uptime >= b.UptimeMin && snap.Server.Uptime <= b.UptimeMax
		if !ok {
			bad = append(bad, snap)
		}
	})

	advance(s, clock, 20*time.Minute, time.Second)

	if len(bad) > 0 {
		t.Fatalf("%d snapshots out of bounds, first: %+v", len(bad), bad[0])
	}
}

func TestRollHistoryKeepsWindow(t *testing.T) {
	w := &recordWriter{}
	s, clock := newTestSimulator(t, w)

	for i := 0; i < 40; i++ {
		clock.Advance(10 * time.Second)
		s.RollHistory(context.Background())
	}

	h := s.History()
	if len(h.Revenue) != 30 || len(h.Customers) != 30 {
		t.Fatalf("window sizes %d/%d, want 30", len(h.Revenue), len(h.Customers))
	}
	for i := 1; i < len(h.Revenue); i++ {
		if !h.Revenue[i].Timestamp.After(h.Revenue[i-1].Timestamp) {
			t.Fatalf("revenue timestamps not increasing at %d", i)
		}
		if h.Customers[i].Value < h.Customers[i-1].Value {
			t.Fatalf("customer history decreased at %d", i)
		}
	}
	if !h.Revenue[29].Timestamp.Equal(clock.Now()) {
		t.Fatalf("last revenue point at %v, want %v", h.Revenue[29].Timestamp, clock.Now())
	}
	if len(w.history) != 80 {
		t.Fatalf("expected 80 history rows, got %d", len(w.history))
	}
}

func TestActivityFeedCapacity(t *testing.T) {
	w := &recordWriter{}
	s, _ := newTestSimulator(t, w)

	for i := 0; i < 5; i++ {
		s.EmitActivityEvent(context.Background())
	}

	feed := s.Activity()
	if len(feed) != 3 {
		t.Fatalf("feed holds %d events, want 3", len(feed))
	}
	if len(w.activity) != 5 {
		t.Fatalf("writer got %d events, want 5", len(w.activity))
	}
	for i, ev := range feed {
		if ev.ID != w.activity[i+2].ID {
			t.Fatalf("feed[%d] = %s, want %s", i, ev.ID, w.activity[i+2].ID)
		}
	}
}

func TestObserverPanicDoesNotStopTicks(t *testing.T) {
	s, _ := newTestSimulator(t, DiscardWriter{})
	s.Subscribe(func(metrics.Snapshot) { panic("boom") })
	seen := 0
	unsubscribe := s.Subscribe(func(metrics.Snapshot) { seen++ })

	s.TickKPIs(context.Background())
	s.TickServerMetrics(context.Background())
	if seen != 2 {
		t.Fatalf("observer saw %d snapshots, want 2", seen)
	}

	unsubscribe()
	s.TickKPIs(context.Background())
	if seen != 2 {
		t.Fatalf("unsubscribed observer still called")
	}
}

func TestConcurrentTicksPublishInOrder(t *testing.T) {
	for trial := 0; trial < 50; trial++ {
		w := &recordWriter{}
		s, _ := newTestSimulator(t, w)
		var observed []float64
		s.Subscribe(func(snap metrics.Snapshot) { observed = append(observed, snap.Server.Storage) })

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 40; i++ {
					s.TickServerMetrics(context.Background())
				}
			}()
		}
		wg.Wait()

		if len(w.snaps) != 160 || len(observed) != 160 {
			t.Fatalf("published %d snapshots, observed %d, want 160", len(w.snaps), len(observed))
		}
		for i := 1; i < len(w.snaps); i++ {
			if w.snaps[i].Server.Storage < w.snaps[i-1].Server.Storage {
				t.Fatalf("trial %d: writer saw storage drop at %d: %.3f -> %.3f",
					trial, i, w.snaps[i-1].Server.Storage, w.snaps[i].Server.Storage)
			}
			if observed[i] < observed[i-1] {
				t.Fatalf("trial %d: observer saw storage drop at %d", trial, i)
			}
		}
	}
}

func TestWriterErrorDoesNotStopTicks(t *testing.T) {
	w := &recordWriter{fail: true}
	s, clock := newTestSimulator(t, w)

	advance(s, clock, 9*time.Second, time.Second)

	if got := s.TickCounts()[metrics.OpKPIs]; got != 3 {
		t.Fatalf("kpis ran %d times, want 3", got)
	}
	if len(w.snaps) == 0 {
		t.Fatalf("writer never called")
	}
}

func TestTickByName(t *testing.T) {
	s, _ := newTestSimulator(t, DiscardWriter{})

	snap, err := s.Tick(context.Background(), metrics.OpServer)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if snap.Op != metrics.OpServer || snap.RunID != "run-test" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, err := s.Tick(context.Background(), "bogus"); err == nil {
		t.Fatalf("expected error for unknown tick")
	}
}

func TestAnimationFramesEndOnTarget(t *testing.T) {
	w := &recordWriter{}
	s, clock := newTestSimulator(t, w)

	snap := s.TickKPIs(context.Background())
	advance(s, clock, 1200*time.Millisecond, 50*time.Millisecond)

	n := w.frameCount()
	if n != 20 {
		t.Fatalf("expected 20 frames, got %d", n)
	}
	last := w.frames[n-1]
	if !last.Final {
		t.Fatalf("last frame not final")
	}
	if last.MRR != snap.MRR || last.Customers != float64(snap.Customers) || last.OpenTickets != float64(snap.OpenTickets) {
		t.Fatalf("final frame %+v does not match snapshot %+v", last, snap)
	}
	for _, f := range w.frames[:n-1] {
		if f.Final {
			t.Fatalf("intermediate frame marked final")
		}
	}

	advance(s, clock, 500*time.Millisecond, 50*time.Millisecond)
	if w.frameCount() != n {
		t.Fatalf("frames kept flowing after the animation settled")
	}
}

func TestScenarioPhaseAdvances(t *testing.T) {
	sc := &scenario.Scenario{
		Name: "test",
		Phases: []scenario.Phase{
			{Name: "calm", Triggers: []scenario.Trigger{{Event: scenario.EventTimeElapsed, Value: 5, Next: "busy"}}},
			{Name: "busy", Drift: metrics.Drift{CPUSpread: 40}},
		},
	}
	s, clock := newTestSimulator(t, DiscardWriter{}, WithScenario(sc))
	if s.Phase().Phase != "calm" {
		t.Fatalf("initial phase %q", s.Phase().Phase)
	}

	clock.Advance(6 * time.Second)
	snap := s.TickServerMetrics(context.Background())

	p := s.Phase()
	if p.Phase != "busy" || snap.Phase != "busy" {
		t.Fatalf("phase = %q (snapshot %q), want busy", p.Phase, snap.Phase)
	}
	if p.Drift.CPUSpread != 40 {
		t.Fatalf("phase drift not applied: %+v", p.Drift)
	}
	if !p.Since.Equal(clock.Now()) {
		t.Fatalf("phase start %v, want %v", p.Since, clock.Now())
	}
}

func TestNewSimulatorRejectsBadScenario(t *testing.T) {
	sc := &scenario.Scenario{Name: "empty"}
	if _, err := NewSimulator(config.Default(), nil, WithScenario(sc)); err == nil {
		t.Fatalf("expected error for scenario without phases")
	}
}

func TestRunPublishesInitAndStops(t *testing.T) {
	cfg := config.Default()
	cfg.Cadence = config.Cadence{
		KPIs:     time.Millisecond,
		Server:   2 * time.Millisecond,
		History:  3 * time.Millisecond,
		Activity: 4 * time.Millisecond,
		Frame:    time.Millisecond,
	}
	w := &recordWriter{}
	s, err := NewSimulator(cfg, w)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	seen := make(chan metrics.Snapshot, 64)
	s.Subscribe(func(snap metrics.Snapshot) {
		select {
		case seen <- snap:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	first := <-seen
	if first.Op != metrics.OpInit {
		t.Fatalf("first snapshot op %q, want init", first.Op)
	}
	for i := 0; i < 5; i++ {
		select {
		case <-seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("no ticks after init")
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}
	if len(s.Scheduler().Tasks()) != 0 {
		t.Fatalf("tasks still scheduled after stop")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.history) < 60 {
		t.Fatalf("seeded history not written: %d rows", len(w.history))
	}
}
