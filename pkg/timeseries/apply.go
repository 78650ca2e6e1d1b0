package timeseries

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ApplyParallelThreshold is the length from which Apply maps values in parallel.
const ApplyParallelThreshold = 1000

// Transform maps one value to another. Implementations must be safe for concurrent use
// because long series are mapped from several goroutines.
type Transform interface {
	Map(v float64) float64
}

// TransformFunc adapts a plain function to Transform.
type TransformFunc func(v float64) float64

// Map implements Transform.
func (f TransformFunc) Map(v float64) float64 {
	return f(v)
}

// Apply returns a new Series over the same Timeline with every value transformed.
func (s *Series) Apply(fn Transform) *Series {
	values := make([]float64, len(s.values))
	mapValues(s.values, values, fn)

	return &Series{timeline: s.timeline, values: values}
}

// ApplyInPlace transforms every value of s and returns s.
func (s *Series) ApplyInPlace(fn Transform) *Series {
	mapValues(s.values, s.values, fn)

	return s
}

// mapValues writes fn(src[i]) to dst[i].
func mapValues(src, dst []float64, fn Transform) {
	if len(src) < ApplyParallelThreshold {
		for i, v := range src {
			dst[i] = fn.Map(v)
		}

		return
	}

	var g errgroup.Group

	for _, c := range partition(len(src), runtime.GOMAXPROCS(0)) {
		g.Go(func() error {
			for i := c.start; i < c.end; i++ {
				dst[i] = fn.Map(src[i])
			}

			return nil
		})
	}

	// Map cannot fail, so Wait never returns an error
	_ = g.Wait()
}
