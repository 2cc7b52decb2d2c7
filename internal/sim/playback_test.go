package sim

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"saaspulse-sim/internal/metrics"
)

func TestReplayLog(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		_ = enc.Encode(metrics.Snapshot{Op: metrics.OpKPIs, MRR: float64(42000 + i), Timestamp: epoch.Add(time.Duration(i) * time.Millisecond)})
	}

	w := &recordWriter{}
	n, err := ReplayLog(&buf, w, 1)
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if n != 3 || len(w.snaps) != 3 {
		t.Fatalf("replayed %d (writer %d), want 3", n, len(w.snaps))
	}
	if w.snaps[2].MRR != 42002 {
		t.Fatalf("unexpected last snapshot %+v", w.snaps[2])
	}
}

func TestReplayLogBadInput(t *testing.T) {
	in := strings.NewReader("{\"mrr\": 1}\nnot json\n")
	n, err := ReplayLog(in, DiscardWriter{}, 0)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if n != 1 {
		t.Fatalf("replayed %d before the error, want 1", n)
	}
}

func TestReplayLogFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.jsonl")
	fw, err := NewFileWriter(path, "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	s, _ := newTestSimulator(t, fw)
	s.TickKPIs(t.Context())
	s.TickServerMetrics(t.Context())
	fw.Close()

	w := &recordWriter{}
	n, err := ReplayLogFile(path, w, 0)
	if err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if n != 2 || w.snaps[1].Op != metrics.OpServer {
		t.Fatalf("unexpected replay %d %+v", n, w.snaps)
	}
	if _, err := ReplayLogFile(filepath.Join(t.TempDir(), "missing"), w, 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
