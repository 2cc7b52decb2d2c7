// ColorStdoutWriter prints human-friendly, colorized metrics to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/metrics"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints metric rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once
}

var kindColors = map[string]string{
	metrics.KindSignup:         colorGreen,
	metrics.KindPayment:        colorCyan,
	metrics.KindTicketResolved: colorMagenta,
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Instance:\t%s\n", w.cfg.InstanceID)
	fmt.Fprintf(tw, "Scenario:\t%s\n", w.cfg.Scenario)
	fmt.Fprintf(tw, "KPI / Server cadence:\t%s / %s\n", w.cfg.Cadence.KPIs, w.cfg.Cadence.Server)
	fmt.Fprintf(tw, "History / Activity cadence:\t%s / %s\n", w.cfg.Cadence.History, w.cfg.Cadence.Activity)
	fmt.Fprintf(tw, "History window:\t%d points\n", w.cfg.History.Length)
	fmt.Fprintf(tw, "Activity feed:\t%d events\n", w.cfg.Activity.Capacity)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// thresholdColor picks green, yellow or red for a utilization percentage.
func thresholdColor(v, warn, crit float64) string {
	switch {
	case v >= crit:
		return colorRed
	case v >= warn:
		return colorYellow
	}
	return colorGreen
}

// WriteSnapshot outputs a snapshot in colorized format.
func (w *ColorStdoutWriter) WriteSnapshot(s metrics.Snapshot) error {
	w.once.Do(w.printOverview)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, s.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%sop=%-8s%s ", colorBlue, s.Op, colorReset)
	if s.Phase != "" {
		fmt.Fprintf(w.out, "%sphase=%s%s ", colorGray, s.Phase, colorReset)
	}
	fmt.Fprintf(w.out, "%smrr=%s%s ", colorGreen, metrics.FormatCurrency(s.MRR), colorReset)
	fmt.Fprintf(w.out, "%scustomers=%s%s ", colorCyan, metrics.FormatCount(float64(s.Customers)), colorReset)
	fmt.Fprintf(w.out, "%schurn=%s%s ", colorYellow, metrics.FormatPercent(s.ChurnRate), colorReset)
	fmt.Fprintf(w.out, "%stickets=%d%s ", colorMagenta, s.OpenTickets, colorReset)
	fmt.Fprintf(w.out, "%scpu=%s%s ", thresholdColor(s.Server.CPU, 70, 85), metrics.FormatPercent(s.Server.CPU), colorReset)
	fmt.Fprintf(w.out, "%smem=%s%s ", thresholdColor(s.Server.Memory, 70, 80), metrics.FormatPercent(s.Server.Memory), colorReset)
	fmt.Fprintf(w.out, "%sdisk=%s%s ", thresholdColor(s.Server.Storage, 80, 90), metrics.FormatPercent(s.Server.Storage), colorReset)
	fmt.Fprintf(w.out, "%suptime=%.2f%%%s", colorGreen, s.Server.Uptime, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

// WriteHistoryBatch prints appended history points.
func (w *ColorStdoutWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	w.once.Do(w.printOverview)
	// the startup backfill is summarised rather than printed point by point
	if len(rows) > 2 {
		fmt.Fprintf(w.out, "%sHISTORY%s seeded %d points\n", colorBlue, colorReset, len(rows))
		return nil
	}
	for _, r := range rows {
		val := metrics.FormatCount(r.Value)
		if r.Series == metrics.SeriesRevenue {
			val = metrics.FormatCurrency(r.Value)
		}
		fmt.Fprintf(w.out, "%s[%s]%s %sHISTORY%s series=%s value=%s\n",
			colorGray, r.Timestamp.Format(time.RFC3339), colorReset,
			colorBlue, colorReset, r.Series, val)
	}
	return nil
}

// WriteActivity prints an activity feed event.
func (w *ColorStdoutWriter) WriteActivity(ev metrics.ActivityEvent) error {
	w.once.Do(w.printOverview)
	col, ok := kindColors[ev.Kind]
	if !ok {
		col = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %s%s%s %s (%s)\n",
		colorGray, ev.Timestamp.Format(time.RFC3339), colorReset,
		col, ev.Title, colorReset, ev.Description, ev.Age())
	return nil
}
