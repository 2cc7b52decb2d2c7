package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"saaspulse-sim/internal/metrics"
)

// FileWriter writes snapshots, history points and activity events to JSONL
// files.
type FileWriter struct {
	snapFile     *os.File
	historyFile  *os.File
	activityFile *os.File
	snapEnc      *json.Encoder
	historyEnc   *json.Encoder
	activityEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. historyPath or activityPath may be
// empty to skip those logs.
func NewFileWriter(snapshotPath, historyPath, activityPath string) (*FileWriter, error) {
	sf, err := os.Create(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("create snapshot log: %w", err)
	}
	fw := &FileWriter{snapFile: sf, snapEnc: json.NewEncoder(sf)}
	if historyPath != "" {
		hf, err := os.Create(historyPath)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("create history log: %w", err)
		}
		fw.historyFile = hf
		fw.historyEnc = json.NewEncoder(hf)
	}
	if activityPath != "" {
		af, err := os.Create(activityPath)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("create activity log: %w", err)
		}
		fw.activityFile = af
		fw.activityEnc = json.NewEncoder(af)
	}
	return fw, nil
}

// WriteSnapshot logs a single snapshot.
func (f *FileWriter) WriteSnapshot(snap metrics.Snapshot) error {
	return f.snapEnc.Encode(snap)
}

// WriteHistory logs a single history row, if enabled.
func (f *FileWriter) WriteHistory(row metrics.HistoryRow) error {
	if f.historyEnc == nil {
		return nil
	}
	return f.historyEnc.Encode(row)
}

// WriteHistoryBatch logs multiple history rows.
func (f *FileWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	for _, r := range rows {
		if err := f.WriteHistory(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteActivity logs an activity event, if enabled.
func (f *FileWriter) WriteActivity(ev metrics.ActivityEvent) error {
	if f.activityEnc == nil {
		return nil
	}
	return f.activityEnc.Encode(ev)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var errs []error
	for _, file := range []*os.File{f.snapFile, f.historyFile, f.activityFile} {
		if file == nil {
			continue
		}
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
