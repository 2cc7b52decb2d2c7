package sim

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/metrics"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// recordWriter collects everything the simulator writes.
type recordWriter struct {
	mu       sync.Mutex
	snaps    []metrics.Snapshot
	history  []metrics.HistoryRow
	activity []metrics.ActivityEvent
	frames   []metrics.Frame
	fail     bool
}

func (w *recordWriter) WriteSnapshot(s metrics.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snaps = append(w.snaps, s)
	if w.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (w *recordWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, rows...)
	return nil
}

func (w *recordWriter) WriteActivity(ev metrics.ActivityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activity = append(w.activity, ev)
	return nil
}

func (w *recordWriter) WriteFrame(f metrics.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, f)
	return nil
}

func (w *recordWriter) frameCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.frames)
}

func newTestSimulator(t *testing.T, w SnapshotWriter, opts ...Option) (*Simulator, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	base := []Option{
		WithClock(clock),
		WithRand(rand.New(rand.NewSource(1))),
		WithRunID("run-test"),
	}
	s, err := NewSimulator(config.Default(), w, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s, clock
}
