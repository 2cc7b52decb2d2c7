package metrics

import "time"

// Point is one timestamped sample.
type Point struct {
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}

// Window is a fixed-length history buffer ordered oldest to newest.
// Pushing drops the oldest entry once the window is full.
type Window struct {
	size   int
	points []Point
}

// NewWindow creates an empty window holding at most size points.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{size: size, points: make([]Point, 0, size)}
}

// Push appends p. Timestamps stay strictly increasing: a point that is not
// after the newest entry is moved one nanosecond past it.
func (w *Window) Push(p Point) Point {
	if n := len(w.points); n > 0 {
		last := w.points[n-1].Timestamp
		if !p.Timestamp.After(last) {
			p.Timestamp = last.Add(time.Nanosecond)
		}
	}
	if len(w.points) == w.size {
		copy(w.points, w.points[1:])
		w.points = w.points[:w.size-1]
	}
	w.points = append(w.points, p)
	return p
}

// Len returns the number of stored points.
func (w *Window) Len() int { return len(w.points) }

// Size returns the window capacity.
func (w *Window) Size() int { return w.size }

// Last returns the newest point.
func (w *Window) Last() (Point, bool) {
	if len(w.points) == 0 {
		return Point{}, false
	}
	return w.points[len(w.points)-1], true
}

// Points returns a copy of the stored points, oldest first.
func (w *Window) Points() []Point {
	out := make([]Point, len(w.points))
	copy(out, w.points)
	return out
}

// Values returns only the sample values, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.points))
	for i, p := range w.points {
		out[i] = p.Value
	}
	return out
}
