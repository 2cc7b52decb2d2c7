package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/metrics"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Display slots. A layout names the slots it renders; updates for slots
// outside the layout are dropped.
const (
	SlotMRR         = "mrr"
	SlotCustomers   = "customers"
	SlotChurn       = "churn"
	SlotTickets     = "tickets"
	SlotServer      = "server"
	SlotRevenue     = "revenue"
	SlotSegments    = "segments"
	SlotActivity    = "activity"
	SlotLog         = "log"
	maxLogLines     = 500
	sparkWidth      = 30
	barWidth        = 20
	defaultTUIWidth = 100
)

// DefaultLayout renders every slot.
var DefaultLayout = []string{
	SlotMRR, SlotCustomers, SlotChurn, SlotTickets,
	SlotServer, SlotRevenue, SlotSegments, SlotActivity, SlotLog,
}

// ValidateLayout reports slot names that the dashboard cannot render.
func ValidateLayout(layout []string) error {
	known := make(map[string]bool, len(DefaultLayout))
	for _, s := range DefaultLayout {
		known[s] = true
	}
	for _, s := range layout {
		if !known[s] {
			return fmt.Errorf("unknown tui slot %q (available: %v)", s, DefaultLayout)
		}
	}
	return nil
}

type snapshotMsg struct{ metrics.Snapshot }
type historyMsg struct{ rows []metrics.HistoryRow }
type activityMsg struct{ metrics.ActivityEvent }
type frameMsg struct{ metrics.Frame }
type logMsg struct{ line string }
type adminMsg struct{ active bool }

// TUIWriter renders the dashboard using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. An empty
// layout selects DefaultLayout.
func NewTUIWriter(cfg *config.SimulationConfig, layout []string) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(cfg, layout)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteSnapshot implements SnapshotWriter.
func (w *TUIWriter) WriteSnapshot(s metrics.Snapshot) error {
	w.program.Send(snapshotMsg{s})
	line := fmt.Sprintf("%s[%s]%s %s%-8s%s mrr=%s customers=%s churn=%s tickets=%d cpu=%s",
		colorGray, s.Timestamp.Format(time.TimeOnly), colorReset,
		colorBlue, s.Op, colorReset,
		metrics.FormatCurrency(s.MRR), metrics.FormatCount(float64(s.Customers)),
		metrics.FormatPercent(s.ChurnRate), s.OpenTickets, metrics.FormatPercent(s.Server.CPU))
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteHistoryBatch implements the batch history writer.
func (w *TUIWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	w.program.Send(historyMsg{rows: rows})
	return nil
}

// WriteActivity implements ActivityWriter.
func (w *TUIWriter) WriteActivity(ev metrics.ActivityEvent) error {
	w.program.Send(activityMsg{ev})
	return nil
}

// WriteFrame implements FrameWriter.
func (w *TUIWriter) WriteFrame(f metrics.Frame) error {
	w.program.Send(frameMsg{f})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg        *config.SimulationConfig
	slots      map[string]bool
	values     map[string]string
	snap       metrics.Snapshot
	revenue    *metrics.Window
	activity   *metrics.Feed
	table      table.Model
	vp         viewport.Model
	logs       []string
	admin      bool
	wrap       bool
	autoscroll bool
	help       bool
	showConfig bool
	width      int
	height     int
}

func newTUIModel(cfg *config.SimulationConfig, layout []string) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	if len(layout) == 0 {
		layout = DefaultLayout
	}
	slots := make(map[string]bool, len(layout))
	for _, s := range layout {
		slots[s] = true
	}
	cols := []table.Column{
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 14},
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 14},
	}
	rows := []table.Row{
		{"Instance", cfg.InstanceID, "Scenario", cfg.Scenario},
		{"KPI cadence", cfg.Cadence.KPIs.String(), "Server cadence", cfg.Cadence.Server.String()},
		{"History cadence", cfg.Cadence.History.String(), "Activity cadence", cfg.Cadence.Activity.String()},
		{"History window", fmt.Sprintf("%d", cfg.History.Length), "Feed capacity", fmt.Sprintf("%d", cfg.Activity.Capacity)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:        cfg,
		slots:      slots,
		values:     make(map[string]string),
		revenue:    metrics.NewWindow(cfg.History.Length),
		activity:   metrics.NewFeed(cfg.Activity.Capacity),
		table:      t,
		vp:         viewport.New(defaultTUIWidth, 8),
		autoscroll: true,
		showConfig: true,
		width:      defaultTUIWidth,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

// set stores the rendered text for slot when the layout has it.
func (m *tuiModel) set(slot, text string) {
	if !m.slots[slot] {
		return
	}
	m.values[slot] = text
}

func (m *tuiModel) setCounters(mrr, customers, churn, tickets float64) {
	m.set(SlotMRR, metrics.FormatCurrency(mrr))
	m.set(SlotCustomers, metrics.FormatCount(customers))
	m.set(SlotChurn, metrics.FormatPercent(churn))
	m.set(SlotTickets, metrics.FormatCount(tickets))
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.resizeLog()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "c":
			m.showConfig = !m.showConfig
			m.resizeLog()
			return m, nil
		case "?", "h":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case snapshotMsg:
		m.snap = msg.Snapshot
		if msg.Op != metrics.OpKPIs {
			// KPI changes arrive through animation frames
			m.setCounters(msg.MRR, float64(msg.Customers), msg.ChurnRate, float64(msg.OpenTickets))
		}
		m.set(SlotServer, m.renderServer())
		m.set(SlotSegments, m.renderSegments())
	case frameMsg:
		m.setCounters(msg.MRR, msg.Customers, msg.ChurnRate, msg.OpenTickets)
	case historyMsg:
		for _, r := range msg.rows {
			if r.Series == metrics.SeriesRevenue {
				m.revenue.Push(metrics.Point{Timestamp: r.Timestamp, Value: r.Value})
			}
		}
		m.set(SlotRevenue, sparkline(m.revenue.Values(), sparkWidth))
	case activityMsg:
		m.activity.Push(msg.ActivityEvent)
		m.set(SlotActivity, m.renderActivity())
	case logMsg:
		if !m.slots[SlotLog] {
			return m, nil
		}
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func (m *tuiModel) resizeLog() {
	used := lipgloss.Height(m.renderDashboard()) + 4
	if m.showConfig {
		used += lipgloss.Height(m.table.View())
	}
	h := m.height - used
	if h < 3 {
		h = 3
	}
	m.vp.Height = h
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) renderServer() string {
	s := m.snap.Server
	row := func(name string, v, warn, crit float64) string {
		st := usageStyle(v, warn, crit)
		return fmt.Sprintf("%-8s %s %s", name, st.Render(bar(v/100, barWidth)), st.Render(metrics.FormatPercent(v)))
	}
	return strings.Join([]string{
		row("CPU", s.CPU, 70, 85),
		row("Memory", s.Memory, 70, 80),
		row("Storage", s.Storage, 80, 90),
		fmt.Sprintf("%-8s %s", "Uptime", goodStyle.Render(fmt.Sprintf("%.2f%%", s.Uptime))),
	}, "\n")
}

func (m tuiModel) renderSegments() string {
	seg := m.snap.Segments
	return fmt.Sprintf("active %s · inactive %s · new %s",
		metrics.FormatCount(float64(seg.Active)),
		metrics.FormatCount(float64(seg.Inactive)),
		metrics.FormatCount(float64(seg.New)))
}

func (m tuiModel) renderActivity() string {
	items := m.activity.Items()
	if len(items) == 0 {
		return faintStyle.Render("no activity yet")
	}
	width := m.width/2 - 4
	var lines []string
	// newest on top
	for i := len(items) - 1; i >= 0; i-- {
		ev := items[i]
		line := fmt.Sprintf("%s  %s %s", titleStyle.Render(ev.Title), ev.Description, faintStyle.Render(ev.Age()))
		if width > 10 {
			line = wordwrap.String(line, width)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) card(slot, title string) string {
	if !m.slots[slot] {
		return ""
	}
	v := m.values[slot]
	if v == "" {
		v = "-"
	}
	return cardStyle.Render(faintStyle.Render(title) + "\n" + titleStyle.Render(v))
}

func (m tuiModel) renderDashboard() string {
	var cards []string
	for _, c := range []struct{ slot, title string }{
		{SlotMRR, "Monthly revenue"},
		{SlotCustomers, "Active customers"},
		{SlotChurn, "Churn rate"},
		{SlotTickets, "Open tickets"},
	} {
		if s := m.card(c.slot, c.title); s != "" {
			cards = append(cards, s)
		}
	}
	var sections []string
	if len(cards) > 0 {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}

	var left, right []string
	if m.slots[SlotServer] {
		left = append(left, titleStyle.Render("Server"), m.values[SlotServer])
	}
	if m.slots[SlotRevenue] {
		left = append(left, titleStyle.Render("Revenue (30 points)"), m.values[SlotRevenue])
	}
	if m.slots[SlotSegments] {
		right = append(right, titleStyle.Render("Customers"), m.values[SlotSegments])
	}
	if m.slots[SlotActivity] {
		right = append(right, titleStyle.Render("Recent activity"), m.values[SlotActivity])
	}
	if len(left) > 0 || len(right) > 0 {
		l := lipgloss.NewStyle().Width(m.width / 2).Render(strings.Join(left, "\n"))
		r := strings.Join(right, "\n")
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, l, r))
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.width)
	var sections []string
	if m.showConfig {
		sections = append(sections, m.table.View(), divider)
	}
	sections = append(sections, m.renderDashboard())
	if m.slots[SlotLog] {
		sections = append(sections, divider, m.vp.View())
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderBottom() string {
	admin := faintStyle.Render("admin off")
	if m.admin {
		admin = goodStyle.Render("admin on")
	}
	phase := m.snap.Phase
	if phase == "" {
		phase = "-"
	}
	return fmt.Sprintf("phase %s | %s | wrap %t | autoscroll %t | ? help", phase, admin, m.wrap, m.autoscroll)
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q    quit",
		" w    toggle wrap for the tick log",
		" s    toggle auto-scroll",
		" c    toggle configuration table",
		" h/?  toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
