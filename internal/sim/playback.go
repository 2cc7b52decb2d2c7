package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"saaspulse-sim/internal/metrics"
)

// ReplayLog replays snapshots recorded by FileWriter from r to writer. A
// speed >0 accelerates playback. If speed <= 0, no artificial delay is
// inserted.
func ReplayLog(r io.Reader, writer SnapshotWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var snap metrics.Snapshot
		if err := dec.Decode(&snap); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("decode snapshot %d: %w", n+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := snap.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteSnapshot(snap); err != nil {
			return n, err
		}
		prev = snap.Timestamp
		n++
	}
}

// ReplayLogFile opens a file and replays its snapshots.
func ReplayLogFile(path string, writer SnapshotWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open replay log: %w", err)
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
