package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"saaspulse-sim/internal/metrics"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestFileWriterWritesAllLogs(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "snapshots.jsonl")
	histPath := filepath.Join(dir, "history.jsonl")
	actPath := filepath.Join(dir, "activity.jsonl")

	fw, err := NewFileWriter(snapPath, histPath, actPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := fw.WriteSnapshot(metrics.Snapshot{RunID: "r1", MRR: 42350, Timestamp: epoch}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := fw.WriteHistoryBatch([]metrics.HistoryRow{{Series: metrics.SeriesRevenue, Value: 1}, {Series: metrics.SeriesCustomers, Value: 2}}); err != nil {
		t.Fatalf("WriteHistoryBatch: %v", err)
	}
	if err := fw.WriteActivity(metrics.ActivityEvent{ID: "a1"}); err != nil {
		t.Fatalf("WriteActivity: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	snaps := readLines(t, snapPath)
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot line, got %d", len(snaps))
	}
	var got metrics.Snapshot
	if err := json.Unmarshal([]byte(snaps[0]), &got); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if got.RunID != "r1" || got.MRR != 42350 || !got.Timestamp.Equal(epoch) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if n := len(readLines(t, histPath)); n != 2 {
		t.Fatalf("expected 2 history lines, got %d", n)
	}
	if n := len(readLines(t, actPath)); n != 1 {
		t.Fatalf("expected 1 activity line, got %d", n)
	}
}

func TestFileWriterOptionalLogs(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "s.jsonl"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteHistory(metrics.HistoryRow{}); err != nil {
		t.Fatalf("WriteHistory without log: %v", err)
	}
	if err := fw.WriteActivity(metrics.ActivityEvent{}); err != nil {
		t.Fatalf("WriteActivity without log: %v", err)
	}
}
