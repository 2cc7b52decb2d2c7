package sim

import (
	"errors"
	"io"

	"saaspulse-sim/internal/metrics"
)

// MultiWriter fan-outs snapshots, history, activity and frames to multiple
// writers. One failing writer does not starve the others; their errors are
// joined.
type MultiWriter struct {
	writers []SnapshotWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...SnapshotWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Writers returns the wrapped writers.
func (mw *MultiWriter) Writers() []SnapshotWriter { return mw.writers }

// WriteSnapshot sends a snapshot to all writers.
func (mw *MultiWriter) WriteSnapshot(snap metrics.Snapshot) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteSnapshot(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteHistory sends one history row to every writer that accepts history.
func (mw *MultiWriter) WriteHistory(row metrics.HistoryRow) error {
	return mw.WriteHistoryBatch([]metrics.HistoryRow{row})
}

// WriteHistoryBatch sends history rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := writeHistory(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteActivity sends an activity event to every activity writer.
func (mw *MultiWriter) WriteActivity(ev metrics.ActivityEvent) error {
	var errs []error
	for _, w := range mw.writers {
		if err := writeActivity(w, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteFrame sends an animation frame to every frame writer.
func (mw *MultiWriter) WriteFrame(f metrics.Frame) error {
	var errs []error
	for _, w := range mw.writers {
		if err := writeFrame(w, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every writer implementing io.Closer.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards the admin UI status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}
