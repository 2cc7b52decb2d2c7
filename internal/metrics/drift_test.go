package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultDriftTrends(t *testing.T) {
	d := DefaultDrift()
	require.NoError(t, d.Validate())
	require.InDelta(t, 0.5, d.CustomerMean(), 0.01)
	require.InDelta(t, -0.8, d.TicketMean(), 0.01)
}

func TestDriftValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		drift Drift
	}{
		{"customers shrink", DefaultDrift().Merge(Drift{CustomerBias: 0.9})},
		{"tickets grow", DefaultDrift().Merge(Drift{TicketBias: 0.1})},
		{"negative spread", DefaultDrift().Merge(Drift{CPUSpread: -1})},
		{"uptime bias", DefaultDrift().Merge(Drift{UptimeBias: 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.drift.Validate())
		})
	}
}

func TestDriftMergeKeepsUnset(t *testing.T) {
	d := DefaultDrift().Merge(Drift{MRRSpread: 4000})
	require.Equal(t, 4000.0, d.MRRSpread)
	require.Equal(t, DefaultDrift().TicketBias, d.TicketBias)
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "€42,350", FormatCurrency(42350.9))
	require.Equal(t, "1,247", FormatCount(1247))
	require.Equal(t, "2.1%", FormatPercent(2.1))
}

func TestSegments(t *testing.T) {
	seg := Segments(1000)
	require.Equal(t, CustomerSegments{Active: 1000, Inactive: 120, New: 70}, seg)
}
