package timeseries

import (
	"github.com/rxtech-lab/argo-series/pkg/errors"
)

// View is a non-owning window over a Series. Values are read lag positions earlier
// than the timestamps they are reported at, so "value as of N steps ago" needs no copy.
// Views are cheap values; every operation returning a Series materialises new buffers.
type View struct {
	source *Series
	begin  int
	length int
	lag    int
}

func newView(source *Series, begin, length, lag int) (View, error) {
	size := source.Len()

	if begin < 0 || length < 0 || begin+length > size {
		return View{}, errors.Newf(errors.ErrCodeOutOfRange,
			"view window [%d, %d) exceeds data boundaries [0, %d)", begin, begin+length, size)
	}

	if begin-lag < 0 || begin+length-lag > size {
		return View{}, errors.Newf(errors.ErrCodeOutOfRange,
			"view lag %d moves window [%d, %d) outside data boundaries [0, %d)",
			lag, begin-lag, begin+length-lag, size)
	}

	return View{source: source, begin: begin, length: length, lag: lag}, nil
}

// Len returns the number of points in the window.
func (v View) Len() int {
	return v.length
}

// Lag returns the accumulated value lag.
func (v View) Lag() int {
	return v.lag
}

// Source returns the viewed series.
func (v View) Source() *Series {
	return v.source
}

// At returns the lagged value at position i.
func (v View) At(i int) float64 {
	return v.source.values[v.begin+i-v.lag]
}

// Timestamp returns the timestamp at position i. Timestamps are never lagged.
func (v View) Timestamp(i int) int64 {
	return v.source.timeline.At(v.begin + i)
}

// Slice narrows the window to length points starting at start, keeping the lag.
func (v View) Slice(start, length int) (View, error) {
	if start < 0 || length < 0 || start+length > v.length {
		return View{}, errors.Newf(errors.ErrCodeOutOfRange,
			"slice [%d, %d) exceeds view of length %d", start, start+length, v.length)
	}

	return newView(v.source, v.begin+start, length, v.lag)
}

// SliceIndex narrows the window to [start, end], both inclusive.
func (v View) SliceIndex(start, end int) (View, error) {
	return v.Slice(start, end-start+1)
}

// Shift adds periods to the lag. The source is untouched.
func (v View) Shift(periods int) (View, error) {
	return newView(v.source, v.begin, v.length, v.lag+periods)
}

// ToSeries copies the lag-resolved values and the windowed timestamps into a new Series.
func (v View) ToSeries() *Series {
	return v.materialize(v.At)
}

// AlignedWith reports whether v and other can be combined elementwise.
func (v View) AlignedWith(other View) bool {
	return checkAlignment(v.axis(), other.axis()) == nil
}

// AddScalar returns the window values plus x.
func (v View) AddScalar(x float64) *Series {
	return v.materialize(func(i int) float64 { return v.At(i) + x })
}

// SubScalar returns the window values minus x.
func (v View) SubScalar(x float64) *Series {
	return v.materialize(func(i int) float64 { return v.At(i) - x })
}

// MulScalar returns the window values times x.
func (v View) MulScalar(x float64) *Series {
	return v.materialize(func(i int) float64 { return v.At(i) * x })
}

// Add returns v + other on v's timestamps.
func (v View) Add(other View) (*Series, error) {
	return v.combine(other, add)
}

// Sub returns v - other on v's timestamps. v.Sub(v.Shift(1)) yields period differences.
func (v View) Sub(other View) (*Series, error) {
	return v.combine(other, sub)
}

// Mul returns v * other on v's timestamps.
func (v View) Mul(other View) (*Series, error) {
	return v.combine(other, mul)
}

func (v View) combine(other View, op binaryOp) (*Series, error) {
	if err := checkAlignment(v.axis(), other.axis()); err != nil {
		return nil, err
	}

	return v.materialize(func(i int) float64 { return op(v.At(i), other.At(i)) }), nil
}

func (v View) materialize(valueAt func(i int) float64) *Series {
	values := make([]float64, v.length)
	for i := range values {
		values[i] = valueAt(i)
	}

	return &Series{
		timeline: v.source.timeline.Slice(v.begin, v.length),
		values:   values,
	}
}

func (v View) axis() axis {
	return axis{timeline: v.source.timeline, begin: v.begin, length: v.length}
}
