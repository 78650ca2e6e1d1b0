// Package timeseries implements irregularly timestamped numeric series: a Series owns its
// values and shares an immutable Timeline, a View is a lag-shifted window over a Series,
// and a Resampler re-bases a Series onto an arbitrary target grid.
package timeseries

import (
	"fmt"
	"slices"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
)

// Point is a single (timestamp, value) observation.
type Point struct {
	Timestamp int64
	Value     float64
}

// Series is a sequence of values over a shared Timeline.
// The values are owned by the Series; the Timeline may be shared with other series.
type Series struct {
	timeline *Timeline
	values   []float64
}

// New creates a Series and takes ownership of both slices.
// Timestamps must strictly increase and match values in length.
func New(timestamps []int64, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.Newf(errors.ErrCodeSizeMismatch,
			"size mismatch between timestamps and values: %d vs %d", len(timestamps), len(values))
	}

	timeline, err := NewTimeline(timestamps)
	if err != nil {
		return nil, err
	}

	return &Series{timeline: timeline, values: values}, nil
}

// NewWithTimeline creates a Series over an existing Timeline without copying it.
func NewWithTimeline(timeline *Timeline, values []float64) (*Series, error) {
	if timeline == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "timeline is nil")
	}

	if timeline.Len() != len(values) {
		return nil, errors.Newf(errors.ErrCodeSizeMismatch,
			"size mismatch between timestamps and values: %d vs %d", timeline.Len(), len(values))
	}

	return &Series{timeline: timeline, values: values}, nil
}

// FromPoints builds a Series from an ordered sequence of observations.
func FromPoints(points []Point) (*Series, error) {
	timestamps := make([]int64, len(points))
	values := make([]float64, len(points))

	for i, p := range points {
		timestamps[i] = p.Timestamp
		values[i] = p.Value
	}

	return New(timestamps, values)
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.values)
}

// Timeline returns the shared timestamp buffer.
func (s *Series) Timeline() *Timeline {
	return s.timeline
}

// Timestamps returns a copy of the timestamps.
func (s *Series) Timestamps() []int64 {
	return s.timeline.Values()
}

// Values returns a copy of the values.
func (s *Series) Values() []float64 {
	return slices.Clone(s.values)
}

// TimestampAt returns the i-th timestamp.
func (s *Series) TimestampAt(i int) int64 {
	return s.timeline.At(i)
}

// ValueAt returns the i-th value.
func (s *Series) ValueAt(i int) float64 {
	return s.values[i]
}

// Points returns the series as observations.
func (s *Series) Points() []Point {
	points := make([]Point, len(s.values))
	for i, v := range s.values {
		points[i] = Point{Timestamp: s.timeline.At(i), Value: v}
	}

	return points
}

// SharesTimeline reports whether s and other reference the identical timestamp buffer.
func (s *Series) SharesTimeline(other *Series) bool {
	return s.timeline.Same(other.timeline)
}

// Clone returns a Series with copied values over the same Timeline.
func (s *Series) Clone() *Series {
	return &Series{timeline: s.timeline, values: slices.Clone(s.values)}
}

// View returns a window over the whole series.
func (s *Series) View() View {
	return View{source: s, begin: 0, length: s.Len(), lag: 0}
}

// Slice returns a window of length points starting at start.
func (s *Series) Slice(start, length int) (View, error) {
	return newView(s, start, length, 0)
}

// SliceIndex returns the window between start and end, both inclusive.
func (s *Series) SliceIndex(start, end int) (View, error) {
	return newView(s, start, end-start+1, 0)
}

// Shift materialises the series lagged by periods: the value at timestamp i becomes the
// value previously at i-periods. Points without a lagged value are dropped, so the
// result has Len()-|periods| points.
func (s *Series) Shift(periods int) (*Series, error) {
	n := s.Len()
	if periods > n || -periods > n {
		return nil, errors.Newf(errors.ErrCodeOutOfRange, "cannot shift %d points by %d periods", n, periods)
	}

	var (
		view View
		err  error
	)

	if periods >= 0 {
		view, err = newView(s, periods, n-periods, periods)
	} else {
		view, err = newView(s, 0, n+periods, periods)
	}

	if err != nil {
		return nil, err
	}

	return view.ToSeries(), nil
}

// Resample re-bases the series onto target with the default Resampler.
func (s *Series) Resample(target []int64, strategy interpolation.Strategy, seed optional.Option[uint64]) (*Series, error) {
	return DefaultResampler().Resample(s, target, strategy, seed)
}

func (s *Series) String() string {
	var b strings.Builder

	b.WriteString("[\n")

	for i, v := range s.values {
		fmt.Fprintf(&b, "  [%d, %g]\n", s.timeline.At(i), v)
	}

	b.WriteString("]")

	return b.String()
}
