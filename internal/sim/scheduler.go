package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"saaspulse-sim/internal/logging"
)

// Task is a periodic job registered with a Scheduler.
type Task struct {
	name      string
	interval  time.Duration
	next      time.Time
	fn        func(context.Context)
	latest    bool
	cancelled atomic.Bool
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Interval returns the task cadence.
func (t *Task) Interval() time.Duration { return t.interval }

// Cancel deregisters the task. A cancelled task never runs again.
func (t *Task) Cancel() { t.cancelled.Store(true) }

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool { return t.cancelled.Load() }

// Scheduler runs periodic tasks one at a time on a single goroutine.
type Scheduler struct {
	clock Clock
	mu    sync.Mutex
	tasks []*Task
	wake  chan struct{}
}

// NewScheduler creates a scheduler driven by clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock, wake: make(chan struct{}, 1)}
}

// Every registers fn to run each interval, starting one interval from now.
// Intervals missed during a stall are caught up one run at a time.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(context.Context)) *Task {
	return s.add(&Task{name: name, interval: interval, fn: fn})
}

// EveryLatest is like Every, but after a stall the task runs once and
// skips the intervals it missed.
func (s *Scheduler) EveryLatest(name string, interval time.Duration, fn func(context.Context)) *Task {
	return s.add(&Task{name: name, interval: interval, fn: fn, latest: true})
}

func (s *Scheduler) add(t *Task) *Task {
	t.next = s.clock.Now().Add(t.interval)
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return t
}

// Tasks returns the tasks that have not been cancelled.
func (s *Scheduler) Tasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Task
	for _, t := range s.tasks {
		if !t.Cancelled() {
			out = append(out, t)
		}
	}
	return out
}

// CancelAll cancels every registered task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t.Cancel()
	}
	s.tasks = nil
}

// due pops the earliest task whose deadline is not after now and advances
// its deadline by one interval.
func (s *Scheduler) due(now time.Time) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pick *Task
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Cancelled() {
			continue
		}
		live = append(live, t)
		if t.next.After(now) {
			continue
		}
		if pick == nil || t.next.Before(pick.next) {
			pick = t
		}
	}
	s.tasks = live
	if pick != nil {
		pick.next = pick.next.Add(pick.interval)
		if pick.latest && !pick.next.After(now) {
			missed := now.Sub(pick.next)/pick.interval + 1
			pick.next = pick.next.Add(missed * pick.interval)
		}
	}
	return pick
}

// RunDue runs every task deadline that has passed at now, earliest first,
// and returns the number of runs. Missed intervals are caught up except for
// tasks registered with EveryLatest.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	n := 0
	for ctx.Err() == nil {
		t := s.due(now)
		if t == nil {
			break
		}
		t.fn(ctx)
		n++
	}
	return n
}

func (s *Scheduler) nextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next time.Time
	found := false
	for _, t := range s.tasks {
		if t.Cancelled() {
			continue
		}
		if !found || t.next.Before(next) {
			next, found = t.next, true
		}
	}
	return next, found
}

// Run blocks, executing tasks as they come due, until ctx is done. All tasks
// are cancelled on return.
func (s *Scheduler) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	defer s.CancelAll()
	for ctx.Err() == nil {
		next, ok := s.nextDeadline()
		now := s.clock.Now()
		if ok && !next.After(now) {
			s.RunDue(ctx, now)
			continue
		}
		var timer clockwork.Timer
		var fire <-chan time.Time
		if ok {
			timer = s.clock.NewTimer(next.Sub(now))
			fire = timer.Chan()
		}
		select {
		case <-ctx.Done():
		case <-s.wake:
		case <-fire:
			s.RunDue(ctx, s.clock.Now())
		}
		if timer != nil {
			timer.Stop()
		}
	}
	log.Debug("scheduler stopped", "tasks", len(s.Tasks()))
}
