package sim

import (
	"context"
	"fmt"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"saaspulse-sim/internal/metrics"
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// Greptime table names.
const (
	HistoryTableName  = "saas_history"
	ActivityTableName = "saas_activity"
)

// GreptimeDBWriter writes snapshots, history and activity to GreptimeDB via
// the ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client        greptimeClient
	snapshotTable string
	historyTable  string
	activityTable string
	timeout       time.Duration
}

// NewGreptimeDBWriter connects to host:port and writes into database.
func NewGreptimeDBWriter(host string, port int, database string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:        client,
		snapshotTable: metrics.Snapshot{}.TableName(),
		historyTable:  HistoryTableName,
		activityTable: ActivityTableName,
		timeout:       5 * time.Second,
	}, nil
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	return nil
}

func (w *GreptimeDBWriter) snapshotSchema() (*table.Table, error) {
	tbl, err := table.New(w.snapshotTable)
	if err != nil {
		return nil, err
	}
	for _, c := range []string{"run_id", "instance"} {
		if err := tbl.AddTagColumn(c, types.STRING); err != nil {
			return nil, err
		}
	}
	fields := []struct {
		name string
		typ  types.ColumnType
	}{
		{"op", types.STRING},
		{"phase", types.STRING},
		{"mrr", types.FLOAT64},
		{"customers", types.INT64},
		{"churn_rate", types.FLOAT64},
		{"open_tickets", types.INT64},
		{"cpu", types.FLOAT64},
		{"memory", types.FLOAT64},
		{"storage", types.FLOAT64},
		{"uptime", types.FLOAT64},
		{"inactive_customers", types.INT64},
		{"new_customers", types.INT64},
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}

// WriteSnapshot inserts a single snapshot row.
func (w *GreptimeDBWriter) WriteSnapshot(s metrics.Snapshot) error {
	tbl, err := w.snapshotSchema()
	if err != nil {
		return fmt.Errorf("snapshot schema: %w", err)
	}
	if err := tbl.AddRow(
		s.RunID, s.Instance,
		s.Op, s.Phase,
		s.MRR, int64(s.Customers), s.ChurnRate, int64(s.OpenTickets),
		s.Server.CPU, s.Server.Memory, s.Server.Storage, s.Server.Uptime,
		int64(s.Segments.Inactive), int64(s.Segments.New),
		s.Timestamp,
	); err != nil {
		return fmt.Errorf("snapshot row: %w", err)
	}
	return w.write(w.snapshotTable, tbl)
}

// WriteHistory inserts a single history row.
func (w *GreptimeDBWriter) WriteHistory(row metrics.HistoryRow) error {
	return w.WriteHistoryBatch([]metrics.HistoryRow{row})
}

// WriteHistoryBatch inserts history rows in one request.
func (w *GreptimeDBWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.historyTable)
	if err != nil {
		return fmt.Errorf("history schema: %w", err)
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("series", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("value", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Series, r.Value, r.Timestamp); err != nil {
			return fmt.Errorf("history row: %w", err)
		}
	}
	return w.write(w.historyTable, tbl)
}

// WriteActivity inserts an activity event row.
func (w *GreptimeDBWriter) WriteActivity(ev metrics.ActivityEvent) error {
	tbl, err := table.New(w.activityTable)
	if err != nil {
		return fmt.Errorf("activity schema: %w", err)
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("kind", types.STRING); err != nil {
		return err
	}
	for _, c := range []string{"id", "title", "description", "company"} {
		if err := tbl.AddFieldColumn(c, types.STRING); err != nil {
			return err
		}
	}
	for _, c := range []string{"amount", "ticket", "minutes_ago"} {
		if err := tbl.AddFieldColumn(c, types.INT64); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(
		ev.RunID, ev.Kind,
		ev.ID, ev.Title, ev.Description, ev.Company,
		int64(ev.Amount), int64(ev.Ticket), int64(ev.MinutesAgo),
		ev.Timestamp,
	); err != nil {
		return fmt.Errorf("activity row: %w", err)
	}
	return w.write(w.activityTable, tbl)
}
