package sim

import (
	"errors"

	"saaspulse-sim/internal/metrics"
)

// SnapshotWriter receives the state after every tick. It is the one
// interface every sink implements.
type SnapshotWriter interface {
	WriteSnapshot(metrics.Snapshot) error
}

// HistoryWriter receives points appended to the rolling windows.
type HistoryWriter interface {
	WriteHistory(metrics.HistoryRow) error
}

// Optional: history writers may support batch mode
type batchHistoryWriter interface {
	WriteHistoryBatch([]metrics.HistoryRow) error
}

// ActivityWriter receives activity feed events.
type ActivityWriter interface {
	WriteActivity(metrics.ActivityEvent) error
}

// FrameWriter receives animated counter frames.
type FrameWriter interface {
	WriteFrame(metrics.Frame) error
}

// writeHistory forwards rows to w if it handles history, preferring batch mode.
func writeHistory(w SnapshotWriter, rows []metrics.HistoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(batchHistoryWriter); ok {
		return bw.WriteHistoryBatch(rows)
	}
	hw, ok := w.(HistoryWriter)
	if !ok {
		return nil
	}
	var errs []error
	for _, r := range rows {
		if err := hw.WriteHistory(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeActivity(w SnapshotWriter, ev metrics.ActivityEvent) error {
	if aw, ok := w.(ActivityWriter); ok {
		return aw.WriteActivity(ev)
	}
	return nil
}

func writeFrame(w SnapshotWriter, f metrics.Frame) error {
	if fw, ok := w.(FrameWriter); ok {
		return fw.WriteFrame(f)
	}
	return nil
}

// DiscardWriter drops everything. Useful when only observers are needed.
type DiscardWriter struct{}

func (DiscardWriter) WriteSnapshot(metrics.Snapshot) error { return nil }

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}
