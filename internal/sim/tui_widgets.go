package sim

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7AF"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	dangStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

// sparkline scales vals between their min and max and samples them evenly
// across width cells.
func sparkline(vals []float64, width int) string {
	if len(vals) == 0 || width <= 0 {
		return ""
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	step := float64(len(vals)) / float64(width)
	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := int(math.Min(float64(len(vals)-1), math.Floor(float64(i)*step)))
		norm := 0.5
		if span > 0 {
			norm = (vals[idx] - lo) / span
		}
		level := int(math.Round(norm * float64(len(sparkBlocks)-1)))
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}

// bar renders a fill level in [0,1] as a fixed-width block bar.
func bar(v float64, width int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	fill := int(math.Round(v * float64(width)))
	if v > 0 && fill == 0 {
		fill = 1
	}
	if fill > width {
		fill = width
	}
	return strings.Repeat("█", fill) + strings.Repeat("░", width-fill)
}

// usageStyle colours a utilization percentage.
func usageStyle(v, warn, crit float64) lipgloss.Style {
	switch {
	case v >= crit:
		return dangStyle
	case v >= warn:
		return warnStyle
	}
	return goodStyle
}
