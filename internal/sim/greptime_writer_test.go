package sim

import (
	"context"
	"errors"
	"testing"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"saaspulse-sim/internal/metrics"
)

type mockGreptimeClient struct {
	tables []*table.Table
	err    error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, nil
}

func newMockGreptimeWriter(m *mockGreptimeClient) *GreptimeDBWriter {
	return &GreptimeDBWriter{
		client:        m,
		snapshotTable: "saas_metrics",
		historyTable:  HistoryTableName,
		activityTable: ActivityTableName,
	}
}

func TestGreptimeWriterSnapshot(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newMockGreptimeWriter(m)
	snap := metrics.Snapshot{
		RunID:       "r1",
		Instance:    "i1",
		Op:          metrics.OpKPIs,
		Phase:       "baseline",
		MRR:         42350,
		Customers:   1247,
		ChurnRate:   2.1,
		OpenTickets: 23,
		Server:      metrics.ServerMetrics{CPU: 45, Memory: 67, Storage: 34, Uptime: 99.98},
		Segments:    metrics.Segments(1247),
		Timestamp:   epoch,
	}

	if err := w.WriteSnapshot(snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(m.tables))
	}
	rows := m.tables[0].GetRows()
	if got := rows.Schema[4].ColumnName; got != "mrr" {
		t.Fatalf("column 4 = %s, want mrr", got)
	}
	vals := rows.Rows[0].Values
	if got := vals[0].GetStringValue(); got != "r1" {
		t.Fatalf("run_id = %s", got)
	}
	if got := vals[2].GetStringValue(); got != metrics.OpKPIs {
		t.Fatalf("op = %s", got)
	}
	if got := vals[4].GetF64Value(); got != 42350 {
		t.Fatalf("mrr = %v", got)
	}
	if got := vals[5].GetI64Value(); got != 1247 {
		t.Fatalf("customers = %v", got)
	}
}

func TestGreptimeWriterHistoryBatch(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newMockGreptimeWriter(m)
	rows := []metrics.HistoryRow{
		{RunID: "r1", Series: metrics.SeriesRevenue, Value: 41000, Timestamp: epoch},
		{RunID: "r1", Series: metrics.SeriesCustomers, Value: 1247, Timestamp: epoch},
	}

	if err := w.WriteHistoryBatch(rows); err != nil {
		t.Fatalf("WriteHistoryBatch: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected one request, got %d", len(m.tables))
	}
	got := m.tables[0].GetRows().Rows
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if s := got[1].Values[1].GetStringValue(); s != metrics.SeriesCustomers {
		t.Fatalf("series = %s", s)
	}
	if err := w.WriteHistoryBatch(nil); err != nil || len(m.tables) != 1 {
		t.Fatalf("empty batch should be a no-op")
	}
}

func TestGreptimeWriterActivity(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newMockGreptimeWriter(m)
	ev := metrics.ActivityEvent{
		ID: "a1", RunID: "r1", Kind: metrics.KindPayment,
		Title: "Payment received", Description: "€199 from Acme Corp",
		Company: "Acme Corp", Amount: 199, MinutesAgo: 4, Timestamp: epoch,
	}

	if err := w.WriteActivity(ev); err != nil {
		t.Fatalf("WriteActivity: %v", err)
	}
	vals := m.tables[0].GetRows().Rows[0].Values
	if got := vals[1].GetStringValue(); got != metrics.KindPayment {
		t.Fatalf("kind = %s", got)
	}
	if got := vals[2].GetStringValue(); got != "a1" {
		t.Fatalf("id = %s", got)
	}
	if got := vals[6].GetI64Value(); got != 199 {
		t.Fatalf("amount = %d", got)
	}
}

func TestGreptimeWriterWrapsClientError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := newMockGreptimeWriter(m)
	err := w.WriteSnapshot(metrics.Snapshot{Timestamp: epoch})
	if err == nil || !errors.Is(err, m.err) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}
