package sim

import (
	"context"
	"fmt"
	"time"

	"saaspulse-sim/internal/logging"
	"saaspulse-sim/internal/metrics"
	"saaspulse-sim/internal/scenario"
)

// Run publishes the seeded state and runs the scheduled ticks until ctx is
// done. All tasks are cancelled when it returns.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator",
		"run_id", s.runID,
		"instance", s.instance,
		"scenario", s.scenario.Name,
		"kpi_interval", s.cfg.Cadence.KPIs,
		"server_interval", s.cfg.Cadence.Server,
		"history_interval", s.cfg.Cadence.History,
		"activity_interval", s.cfg.Cadence.Activity,
	)
	s.publishInit(ctx)
	s.sched.Run(ctx)
	log.Info("stopping simulator", "ticks", s.TickCounts())
}

// Tick runs one operation by name immediately.
func (s *Simulator) Tick(ctx context.Context, op string) (metrics.Snapshot, error) {
	switch op {
	case metrics.OpKPIs:
		return s.TickKPIs(ctx), nil
	case metrics.OpServer:
		return s.TickServerMetrics(ctx), nil
	case metrics.OpHistory:
		return s.RollHistory(ctx), nil
	case metrics.OpActivity:
		return s.EmitActivityEvent(ctx), nil
	}
	return metrics.Snapshot{}, fmt.Errorf("unknown tick %q", op)
}

func (s *Simulator) publishInit(ctx context.Context) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	now := s.clock.Now()
	snap := s.snapshotLocked(metrics.OpInit, now)
	rows := s.historyRowsLocked(s.state.Revenue.Points(), s.state.CustomerHistory.Points())
	s.mu.Unlock()

	if err := writeHistory(s.writer, rows); err != nil {
		logging.FromContext(ctx).Error("history write failed", "op", metrics.OpInit, "err", err)
	}
	s.publish(ctx, snap)
}

// TickKPIs perturbs revenue, customers, churn and tickets, and retargets the
// counter animations from their previous targets.
func (s *Simulator) TickKPIs(ctx context.Context) metrics.Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	now := s.clock.Now()
	s.gen.TickKPIs(s.state)
	s.animator.Retarget(s.state, now)
	s.animating = true
	s.advancePhaseLocked(ctx, now)
	snap := s.finishLocked(metrics.OpKPIs, now)
	s.mu.Unlock()

	s.publish(ctx, snap)
	return snap
}

// TickServerMetrics perturbs CPU and memory, fills storage and drifts uptime.
func (s *Simulator) TickServerMetrics(ctx context.Context) metrics.Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	now := s.clock.Now()
	s.gen.TickServer(s.state)
	s.advancePhaseLocked(ctx, now)
	snap := s.finishLocked(metrics.OpServer, now)
	s.mu.Unlock()

	s.publish(ctx, snap)
	return snap
}

// RollHistory appends a revenue sample and a customer point to the rolling
// windows, dropping the oldest entries.
func (s *Simulator) RollHistory(ctx context.Context) metrics.Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	now := s.clock.Now()
	rev, cust := s.gen.Roll(s.state, now)
	rows := s.historyRowsLocked([]metrics.Point{rev}, []metrics.Point{cust})
	snap := s.finishLocked(metrics.OpHistory, now)
	s.mu.Unlock()

	if err := writeHistory(s.writer, rows); err != nil {
		logging.FromContext(ctx).Error("history write failed", "err", err)
	}
	s.publish(ctx, snap)
	return snap
}

// EmitActivityEvent pushes a random event onto the bounded feed.
func (s *Simulator) EmitActivityEvent(ctx context.Context) metrics.Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	now := s.clock.Now()
	ev := s.activityGen.Next(s.runID, now)
	if evicted, ok := s.feed.Push(ev); ok {
		logging.FromContext(ctx).Debug("activity evicted", "id", evicted.ID, "kind", evicted.Kind)
	}
	snap := s.finishLocked(metrics.OpActivity, now)
	s.mu.Unlock()

	if err := writeActivity(s.writer, ev); err != nil {
		logging.FromContext(ctx).Error("activity write failed", "kind", ev.Kind, "err", err)
	}
	s.publish(ctx, snap)
	return snap
}

// renderFrame samples the counter animations while any of them is moving,
// plus one final frame holding the exact targets.
func (s *Simulator) renderFrame(ctx context.Context) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	if !s.animating {
		s.mu.Unlock()
		return
	}
	f := s.animator.Frame(s.clock.Now())
	if f.Final {
		s.animating = false
	}
	s.mu.Unlock()

	if err := writeFrame(s.writer, f); err != nil {
		logging.FromContext(ctx).Error("frame write failed", "err", err)
	}
}

func (s *Simulator) finishLocked(op string, now time.Time) metrics.Snapshot {
	s.ticks[op]++
	return s.snapshotLocked(op, now)
}

func (s *Simulator) historyRowsLocked(revenue, customers []metrics.Point) []metrics.HistoryRow {
	rows := make([]metrics.HistoryRow, 0, len(revenue)+len(customers))
	for _, p := range revenue {
		rows = append(rows, metrics.HistoryRow{RunID: s.runID, Series: metrics.SeriesRevenue, Value: p.Value, Timestamp: p.Timestamp})
	}
	for _, p := range customers {
		rows = append(rows, metrics.HistoryRow{RunID: s.runID, Series: metrics.SeriesCustomers, Value: p.Value, Timestamp: p.Timestamp})
	}
	return rows
}

// advancePhaseLocked follows the first matching scenario trigger.
func (s *Simulator) advancePhaseLocked(ctx context.Context, now time.Time) {
	events := []scenario.Event{
		{Type: scenario.EventTimeElapsed, Value: now.Sub(s.phaseStart).Seconds()},
		{Type: scenario.EventCustomers, Value: float64(s.state.Customers)},
		{Type: scenario.EventOpenTickets, Value: float64(s.state.OpenTickets)},
		{Type: scenario.EventStorage, Value: s.state.Server.Storage},
		{Type: scenario.EventCPU, Value: s.state.Server.CPU},
	}
	for _, ev := range events {
		next, ok := s.scenario.NextPhase(s.phase, ev)
		if !ok {
			continue
		}
		logging.FromContext(ctx).Info("scenario phase changed",
			"scenario", s.scenario.Name, "from", s.phase, "to", next,
			"trigger", ev.Type, "value", ev.Value)
		s.phase = next
		s.phaseStart = now
		s.gen.SetDrift(s.phaseDrift(next))
		return
	}
}

// publish writes snap to the sink and notifies observers. Callers hold
// tickMu. Failures are logged and never stop the tick loop.
func (s *Simulator) publish(ctx context.Context, snap metrics.Snapshot) {
	log := logging.FromContext(ctx)
	if err := s.writer.WriteSnapshot(snap); err != nil {
		log.Error("snapshot write failed", "op", snap.Op, "err", err)
	}

	s.obsMu.Lock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		s.notify(ctx, o, snap)
	}
}

func (s *Simulator) notify(ctx context.Context, o observerEntry, snap metrics.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("observer panicked", "observer", o.id, "op", snap.Op, "panic", r)
		}
	}()
	o.fn(snap)
}
