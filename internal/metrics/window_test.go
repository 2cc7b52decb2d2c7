package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowDropsOldest(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 5; i++ {
		w.Push(Point{Timestamp: epoch.Add(time.Duration(i) * time.Second), Value: float64(i)})
	}
	require.Equal(t, 3, w.Len())
	require.Equal(t, []float64{2, 3, 4}, w.Values())
}

func TestWindowTimestampsStrictlyIncrease(t *testing.T) {
	w := NewWindow(4)
	w.Push(Point{Timestamp: epoch, Value: 1})
	p := w.Push(Point{Timestamp: epoch, Value: 2})
	require.True(t, p.Timestamp.After(epoch))

	p = w.Push(Point{Timestamp: epoch.Add(-time.Hour), Value: 3})
	require.Equal(t, epoch.Add(2*time.Nanosecond), p.Timestamp)

	pts := w.Points()
	for i := 1; i < len(pts); i++ {
		require.True(t, pts[i].Timestamp.After(pts[i-1].Timestamp))
	}
}

func TestWindowPointsIsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(Point{Timestamp: epoch, Value: 1})
	pts := w.Points()
	pts[0].Value = 99

	last, ok := w.Last()
	require.True(t, ok)
	require.Equal(t, 1.0, last.Value)
}
