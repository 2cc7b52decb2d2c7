package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"saaspulse-sim/internal/metrics"
)

// JSONStdoutWriter prints snapshots, history points and activity events as
// JSON lines.
type JSONStdoutWriter struct {
	out    io.Writer
	frames bool
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WithFrames makes the writer also print animation frames.
func (w *JSONStdoutWriter) WithFrames() *JSONStdoutWriter {
	w.frames = true
	return w
}

func (w *JSONStdoutWriter) print(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %T: %w", v, err)
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteSnapshot outputs a snapshot in JSON format.
func (w *JSONStdoutWriter) WriteSnapshot(snap metrics.Snapshot) error {
	return w.print(snap)
}

// WriteHistoryBatch outputs history rows in JSON format.
func (w *JSONStdoutWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	for _, r := range rows {
		if err := w.print(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteActivity outputs an activity event in JSON format.
func (w *JSONStdoutWriter) WriteActivity(ev metrics.ActivityEvent) error {
	return w.print(ev)
}

// WriteFrame outputs an animation frame when frames are enabled.
func (w *JSONStdoutWriter) WriteFrame(f metrics.Frame) error {
	if !w.frames {
		return nil
	}
	return w.print(f)
}
