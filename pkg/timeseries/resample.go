package timeseries

import (
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelThreshold is the target grid size from which resampling is split
// across goroutines.
const DefaultParallelThreshold = 20000

// Resampler re-bases series onto arbitrary target grids. It holds no per-call state and
// is safe for concurrent use.
type Resampler struct {
	logger            *zap.Logger
	parallelThreshold int
	workers           int
	annualVolatility  float64
}

// ResamplerOption configures a Resampler.
type ResamplerOption func(*Resampler)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *zap.Logger) ResamplerOption {
	return func(r *Resampler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithParallelThreshold sets the target size from which the parallel walk is used.
func WithParallelThreshold(threshold int) ResamplerOption {
	return func(r *Resampler) {
		if threshold > 0 {
			r.parallelThreshold = threshold
		}
	}
}

// WithWorkers sets the number of chunks of a parallel walk.
// Seeded stochastic output is reproducible for a fixed worker count.
func WithWorkers(workers int) ResamplerOption {
	return func(r *Resampler) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithAnnualVolatility sets the volatility scaling the Brownian-bridge noise.
func WithAnnualVolatility(vol float64) ResamplerOption {
	return func(r *Resampler) {
		if vol >= 0 {
			r.annualVolatility = vol
		}
	}
}

// NewResampler creates a Resampler. By default it uses one worker per available CPU,
// a threshold of DefaultParallelThreshold targets and unit annual volatility.
func NewResampler(opts ...ResamplerOption) *Resampler {
	r := &Resampler{
		logger:            zap.NewNop(),
		parallelThreshold: DefaultParallelThreshold,
		workers:           runtime.GOMAXPROCS(0),
		annualVolatility:  interpolation.DefaultAnnualVolatility,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

var defaultResampler = NewResampler()

// DefaultResampler returns the Resampler used by Series.Resample.
func DefaultResampler() *Resampler {
	return defaultResampler
}

// Resample interpolates source at every timestamp of target, which must be sorted ascending.
// Repeated targets yield repeated points.
// Targets before the first source point take the first value and targets after the last
// source point take the last value. When seed is present the stochastic strategy is
// reproducible; otherwise every call draws fresh noise.
func (r *Resampler) Resample(
	source *Series,
	target []int64,
	strategy interpolation.Strategy,
	seed optional.Option[uint64],
) (*Series, error) {
	if !strategy.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidStrategy, "unknown interpolation strategy %q", strategy)
	}

	if source.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptySeries, "cannot resample an empty series")
	}

	if err := checkSorted(target, errors.ErrCodeUnsortedTarget); err != nil {
		return nil, err
	}

	timeline := &Timeline{timestamps: slices.Clone(target)}
	values := make([]float64, len(target))

	var generators interpolation.Source
	if strategy == interpolation.Stochastic {
		generators = interpolation.NewSource(seed)
	}

	chunks := []chunk{{start: 0, end: len(target)}}
	if len(target) >= r.parallelThreshold {
		chunks = partition(len(target), r.workers)
	}

	r.logger.Debug("Resampling series",
		zap.Int("source_len", source.Len()),
		zap.Int("target_len", len(target)),
		zap.String("strategy", strategy.String()),
		zap.Int("chunks", len(chunks)),
		zap.Bool("seeded", seed.IsSome()),
	)

	if len(chunks) <= 1 {
		if len(target) > 0 {
			if err := r.walk(source, timeline.timestamps, values, chunks[0], strategy, generators); err != nil {
				return nil, err
			}
		}

		return &Series{timeline: timeline, values: values}, nil
	}

	var g errgroup.Group

	for _, c := range chunks {
		g.Go(func() error {
			return r.walk(source, timeline.timestamps, values, c, strategy, generators)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResampleFailed, "parallel resampling failed", err)
	}

	return &Series{timeline: timeline, values: values}, nil
}

// walk fills out[c.start:c.end]. One binary search seeds a forward cursor at the first
// target of the chunk; source and target are both sorted, so the cursor only advances.
func (r *Resampler) walk(
	source *Series,
	target []int64,
	out []float64,
	c chunk,
	strategy interpolation.Strategy,
	generators interpolation.Source,
) error {
	var rng *rand.Rand
	if generators != nil {
		rng = generators.ForChunk(c.start)
	}

	interp, err := interpolation.NewInterpolator(strategy, r.annualVolatility, rng)
	if err != nil {
		return err
	}

	ts := source.timeline.timestamps
	vals := source.values
	last := len(ts) - 1

	dataIdx := source.timeline.Search(target[c.start])
	if dataIdx > 0 {
		dataIdx--
	}

	for i := c.start; i < c.end; i++ {
		t := target[i]

		for dataIdx < last && ts[dataIdx+1] <= t {
			dataIdx++
		}

		switch {
		case t <= ts[0]:
			out[i] = vals[0]
		case dataIdx >= last:
			out[i] = vals[last]
		default:
			out[i] = interp.Interpolate(t, ts[dataIdx], vals[dataIdx], ts[dataIdx+1], vals[dataIdx+1])
		}
	}

	return nil
}
