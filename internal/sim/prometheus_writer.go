package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"saaspulse-sim/internal/metrics"
)

// PrometheusWriter exposes the latest snapshot as gauges and counts ticks,
// history points and activity events.
type PrometheusWriter struct {
	MRR         prometheus.Gauge
	Customers   *prometheus.GaugeVec
	ChurnRate   prometheus.Gauge
	OpenTickets prometheus.Gauge
	Server      *prometheus.GaugeVec
	Uptime      prometheus.Gauge
	Ticks       *prometheus.CounterVec
	History     *prometheus.CounterVec
	Activity    *prometheus.CounterVec
}

// NewPrometheusWriter registers the collectors with reg.
func NewPrometheusWriter(reg prometheus.Registerer) *PrometheusWriter {
	f := promauto.With(reg)
	return &PrometheusWriter{
		MRR: f.NewGauge(prometheus.GaugeOpts{
			Name: "saaspulse_mrr_euros",
			Help: "Current monthly recurring revenue",
		}),
		Customers: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saaspulse_customers",
			Help: "Customers by segment",
		}, []string{"segment"}),
		ChurnRate: f.NewGauge(prometheus.GaugeOpts{
			Name: "saaspulse_churn_rate_percent",
			Help: "Current churn rate",
		}),
		OpenTickets: f.NewGauge(prometheus.GaugeOpts{
			Name: "saaspulse_open_tickets",
			Help: "Open support tickets",
		}),
		Server: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saaspulse_server_utilization_percent",
			Help: "Server resource utilization",
		}, []string{"resource"}),
		Uptime: f.NewGauge(prometheus.GaugeOpts{
			Name: "saaspulse_uptime_percent",
			Help: "Service uptime",
		}),
		Ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saaspulse_ticks_total",
			Help: "Simulator ticks by operation",
		}, []string{"op"}),
		History: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saaspulse_history_points_total",
			Help: "Points appended to the history windows",
		}, []string{"series"}),
		Activity: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saaspulse_activity_events_total",
			Help: "Activity feed events by kind",
		}, []string{"kind"}),
	}
}

// WriteSnapshot updates the gauges.
func (w *PrometheusWriter) WriteSnapshot(s metrics.Snapshot) error {
	w.MRR.Set(s.MRR)
	w.Customers.WithLabelValues("active").Set(float64(s.Segments.Active))
	w.Customers.WithLabelValues("inactive").Set(float64(s.Segments.Inactive))
	w.Customers.WithLabelValues("new").Set(float64(s.Segments.New))
	w.ChurnRate.Set(s.ChurnRate)
	w.OpenTickets.Set(float64(s.OpenTickets))
	w.Server.WithLabelValues("cpu").Set(s.Server.CPU)
	w.Server.WithLabelValues("memory").Set(s.Server.Memory)
	w.Server.WithLabelValues("storage").Set(s.Server.Storage)
	w.Uptime.Set(s.Server.Uptime)
	if s.Op != "" {
		w.Ticks.WithLabelValues(s.Op).Inc()
	}
	return nil
}

// WriteHistoryBatch counts appended history points.
func (w *PrometheusWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	for _, r := range rows {
		w.History.WithLabelValues(r.Series).Inc()
	}
	return nil
}

// WriteActivity counts activity events.
func (w *PrometheusWriter) WriteActivity(ev metrics.ActivityEvent) error {
	w.Activity.WithLabelValues(ev.Kind).Inc()
	return nil
}
