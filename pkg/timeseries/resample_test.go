package timeseries

import (
	"math"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ResampleTestSuite struct {
	suite.Suite
}

func TestResampleSuite(t *testing.T) {
	suite.Run(t, new(ResampleTestSuite))
}

func noSeed() optional.Option[uint64] {
	return optional.None[uint64]()
}

// rampSeries returns n points with timestamp i*100 and value i.
func rampSeries(n int) *Series {
	ts := make([]int64, n)
	vals := make([]float64, n)

	for i := range n {
		ts[i] = int64(i) * 100
		vals[i] = float64(i)
	}

	s, err := New(ts, vals)
	if err != nil {
		panic(err)
	}

	return s
}

// irregularSeries returns n points with uneven gaps and a wiggling value.
func irregularSeries(n int) *Series {
	ts := make([]int64, n)
	vals := make([]float64, n)

	var t int64

	for i := range n {
		t += int64(1 + (i*7919)%97)
		ts[i] = t
		vals[i] = math.Sin(float64(i)/13.0)*50 + float64(i%11)
	}

	s, err := New(ts, vals)
	if err != nil {
		panic(err)
	}

	return s
}

func (suite *ResampleTestSuite) TestLinearExactness() {
	s, err := New([]int64{100, 200, 300}, []float64{100.0, 200.0, 300.0})
	suite.Require().NoError(err)

	resampled, err := s.Resample([]int64{150, 250}, interpolation.Linear, noSeed())
	suite.Require().NoError(err)
	suite.Equal([]int64{150, 250}, resampled.Timestamps())
	suite.InDelta(150.0, resampled.ValueAt(0), 1e-9)
	suite.InDelta(250.0, resampled.ValueAt(1), 1e-9)
}

func (suite *ResampleTestSuite) TestFlatExtrapolation() {
	s, err := New([]int64{100, 200, 300}, []float64{1, 2, 3})
	suite.Require().NoError(err)

	for _, strategy := range interpolation.AllStrategies {
		suite.Run(strategy.String(), func() {
			resampled, err := s.Resample([]int64{0, 50, 100, 300, 301, 1000}, strategy, optional.Some[uint64](1))
			suite.Require().NoError(err)
			suite.Equal([]float64{1, 1, 1, 3, 3, 3}, resampled.Values())
		})
	}
}

func (suite *ResampleTestSuite) TestExactSourceTimestamps() {
	s := irregularSeries(500)

	resampled, err := s.Resample(s.Timestamps(), interpolation.Linear, noSeed())
	suite.Require().NoError(err)
	suite.Equal(s.Values(), resampled.Values())
	suite.False(resampled.SharesTimeline(s))
	suite.True(resampled.AlignedWith(s))
}

func (suite *ResampleTestSuite) TestSinglePointSource() {
	s, err := New([]int64{500}, []float64{42})
	suite.Require().NoError(err)

	resampled, err := s.Resample([]int64{100, 500, 900}, interpolation.Stochastic, noSeed())
	suite.Require().NoError(err)
	suite.Equal([]float64{42, 42, 42}, resampled.Values())
}

func (suite *ResampleTestSuite) TestNearest() {
	s, err := New([]int64{100, 200, 300}, []float64{10, 20, 30})
	suite.Require().NoError(err)

	resampled, err := s.Resample([]int64{110, 149, 150, 151, 260}, interpolation.Nearest, noSeed())
	suite.Require().NoError(err)
	// 150 is equidistant and resolves to the earlier point
	suite.Equal([]float64{10, 10, 10, 20, 30}, resampled.Values())
}

func (suite *ResampleTestSuite) TestStochasticSeedIsDeterministic() {
	s, err := New([]int64{1000, 2000}, []float64{10, 20})
	suite.Require().NoError(err)

	res1, err := s.Resample([]int64{1500}, interpolation.Stochastic, optional.Some[uint64](42))
	suite.Require().NoError(err)
	res2, err := s.Resample([]int64{1500}, interpolation.Stochastic, optional.Some[uint64](42))
	suite.Require().NoError(err)

	suite.Equal(math.Float64bits(res1.ValueAt(0)), math.Float64bits(res2.ValueAt(0)))
	suite.NotEqual(15.0, res1.ValueAt(0))

	res3, err := s.Resample([]int64{1500}, interpolation.Stochastic, optional.Some[uint64](43))
	suite.Require().NoError(err)
	suite.NotEqual(res1.ValueAt(0), res3.ValueAt(0))
}

func (suite *ResampleTestSuite) TestStochasticUnseededDiffers() {
	s, err := New([]int64{1000, 2000}, []float64{10, 20})
	suite.Require().NoError(err)

	res1, err := s.Resample([]int64{1500}, interpolation.Stochastic, noSeed())
	suite.Require().NoError(err)
	res2, err := s.Resample([]int64{1500}, interpolation.Stochastic, noSeed())
	suite.Require().NoError(err)

	suite.NotEqual(15.0, res1.ValueAt(0))
	suite.NotEqual(res1.ValueAt(0), res2.ValueAt(0))
}

func (suite *ResampleTestSuite) TestStochasticVolatilityScaling() {
	s, err := New([]int64{0, 2 * 31_536_000}, []float64{0, 0})
	suite.Require().NoError(err)

	target := []int64{31_536_000}
	seed := optional.Some[uint64](9)

	unit, err := NewResampler(WithAnnualVolatility(1)).Resample(s, target, interpolation.Stochastic, seed)
	suite.Require().NoError(err)
	double, err := NewResampler(WithAnnualVolatility(2)).Resample(s, target, interpolation.Stochastic, seed)
	suite.Require().NoError(err)
	flat, err := NewResampler(WithAnnualVolatility(0)).Resample(s, target, interpolation.Stochastic, seed)
	suite.Require().NoError(err)

	// bridge variance at the midpoint of a two-year gap is half a year
	suite.InDelta(2*unit.ValueAt(0), double.ValueAt(0), 1e-12)
	suite.Equal(0.0, flat.ValueAt(0))
}

func (suite *ResampleTestSuite) TestParallelBoundaryContinuity() {
	const n = 100000

	s := rampSeries(n)

	target := make([]int64, n-1)
	for i := range target {
		target[i] = int64(i)*100 + 50
	}

	for _, resampler := range []*Resampler{DefaultResampler(), NewResampler(WithWorkers(8)), NewResampler(WithWorkers(13))} {
		result, err := resampler.Resample(s, target, interpolation.Linear, noSeed())
		suite.Require().NoError(err)
		suite.Require().Equal(len(target), result.Len())

		for i := 0; i < result.Len(); i++ {
			suite.Require().InDelta(float64(i)+0.5, result.ValueAt(i), 1e-9,
				"mismatch at index %d across a chunk boundary", i)
		}
	}
}

func (suite *ResampleTestSuite) TestParallelMatchesSequential() {
	s := irregularSeries(3000)

	first := s.TimestampAt(0)
	last := s.TimestampAt(s.Len() - 1)
	target, err := Grid(first-500, last+500, 7)
	suite.Require().NoError(err)

	sequential := NewResampler(WithParallelThreshold(math.MaxInt))
	parallel := NewResampler(WithParallelThreshold(1), WithWorkers(7))

	for _, strategy := range []interpolation.Strategy{interpolation.Linear, interpolation.Nearest} {
		suite.Run(strategy.String(), func() {
			want, err := sequential.Resample(s, target, strategy, noSeed())
			suite.Require().NoError(err)
			got, err := parallel.Resample(s, target, strategy, noSeed())
			suite.Require().NoError(err)

			for i := range target {
				suite.Require().Equal(math.Float64bits(want.ValueAt(i)), math.Float64bits(got.ValueAt(i)),
					"index %d", i)
			}
		})
	}
}

func (suite *ResampleTestSuite) TestParallelSeededChunksUseChunkStart() {
	s := irregularSeries(400)
	target, err := Grid(s.TimestampAt(0), s.TimestampAt(s.Len()-1), 3)
	suite.Require().NoError(err)

	const workers = 4
	seed := uint64(1234)
	parallel := NewResampler(WithParallelThreshold(1), WithWorkers(workers))
	sequential := NewResampler(WithParallelThreshold(math.MaxInt))

	whole, err := parallel.Resample(s, target, interpolation.Stochastic, optional.Some(seed))
	suite.Require().NoError(err)

	again, err := parallel.Resample(s, target, interpolation.Stochastic, optional.Some(seed))
	suite.Require().NoError(err)
	suite.Equal(whole.Values(), again.Values())

	// each chunk equals a sequential walk over the chunk seeded with seed + start
	for _, c := range partition(len(target), workers) {
		part, err := sequential.Resample(s, target[c.start:c.end], interpolation.Stochastic,
			optional.Some(seed+uint64(c.start)))
		suite.Require().NoError(err)

		for i := c.start; i < c.end; i++ {
			suite.Require().Equal(math.Float64bits(part.ValueAt(i-c.start)), math.Float64bits(whole.ValueAt(i)),
				"index %d", i)
		}
	}
}

func (suite *ResampleTestSuite) TestParallelUnseededStochasticStaysNearLinear() {
	s := rampSeries(1000)
	target := make([]int64, 999)

	for i := range target {
		target[i] = int64(i)*100 + 50
	}

	result, err := NewResampler(WithParallelThreshold(1), WithWorkers(5)).
		Resample(s, target, interpolation.Stochastic, noSeed())
	suite.Require().NoError(err)

	// the bridge std dev over a 100 unit gap is about 9e-4
	for i := range target {
		suite.Require().InDelta(float64(i)+0.5, result.ValueAt(i), 0.05)
	}
}

func (suite *ResampleTestSuite) TestTargetIsCopied() {
	s := rampSeries(10)
	target := []int64{50, 150}

	result, err := s.Resample(target, interpolation.Linear, noSeed())
	suite.Require().NoError(err)

	target[0] = 999
	suite.Equal([]int64{50, 150}, result.Timestamps())
}

func (suite *ResampleTestSuite) TestEmptyTarget() {
	s := rampSeries(10)

	result, err := s.Resample(nil, interpolation.Linear, noSeed())
	suite.Require().NoError(err)
	suite.Equal(0, result.Len())
}

func (suite *ResampleTestSuite) TestPreconditions() {
	s := rampSeries(10)

	_, err := s.Resample([]int64{300, 200}, interpolation.Linear, noSeed())
	suite.True(errors.HasCode(err, errors.ErrCodeUnsortedTarget))

	_, err = s.Resample([]int64{200, 300, 250}, interpolation.Linear, noSeed())
	suite.True(errors.HasCode(err, errors.ErrCodeUnsortedTarget))

	_, err = s.Resample([]int64{200}, interpolation.Strategy("cubic"), noSeed())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidStrategy))

	empty, err := New(nil, nil)
	suite.Require().NoError(err)
	_, err = empty.Resample([]int64{1}, interpolation.Linear, noSeed())
	suite.True(errors.HasCode(err, errors.ErrCodeEmptySeries))
}

func (suite *ResampleTestSuite) TestDispatchIsLogged() {
	core, logs := observer.New(zapcore.DebugLevel)
	resampler := NewResampler(WithLogger(zap.New(core)), WithParallelThreshold(4), WithWorkers(2))

	_, err := resampler.Resample(rampSeries(10), []int64{1, 2, 3, 4, 5}, interpolation.Linear, noSeed())
	suite.Require().NoError(err)

	entries := logs.FilterMessage("Resampling series").All()
	suite.Require().Len(entries, 1)
	suite.Equal(int64(2), entries[0].ContextMap()["chunks"])
	suite.Equal("linear", entries[0].ContextMap()["strategy"])
}

func (suite *ResampleTestSuite) TestOptionsIgnoreInvalidValues() {
	r := NewResampler(WithWorkers(0), WithParallelThreshold(-1), WithAnnualVolatility(-2), WithLogger(nil))
	suite.Equal(DefaultParallelThreshold, r.parallelThreshold)
	suite.Positive(r.workers)
	suite.Equal(interpolation.DefaultAnnualVolatility, r.annualVolatility)
	suite.NotNil(r.logger)
}

func (suite *ResampleTestSuite) TestGrid() {
	grid, err := Grid(0, 100, 25)
	suite.Require().NoError(err)
	suite.Equal([]int64{0, 25, 50, 75, 100}, grid)

	// end off the step is not included
	grid, err = Grid(0, 90, 25)
	suite.Require().NoError(err)
	suite.Equal([]int64{0, 25, 50, 75}, grid)

	grid, err = Grid(5, 5, 10)
	suite.Require().NoError(err)
	suite.Equal([]int64{5}, grid)

	grid, err = Grid(math.MaxInt64-10, math.MaxInt64, 7)
	suite.Require().NoError(err)
	suite.Equal([]int64{math.MaxInt64 - 10, math.MaxInt64 - 3}, grid)

	_, err = Grid(0, 10, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = Grid(10, 0, 1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ResampleTestSuite) TestRepeatedTargets() {
	s, err := New([]int64{100, 200, 300}, []float64{1, 2, 3})
	suite.Require().NoError(err)

	result, err := s.Resample([]int64{150, 150, 250}, interpolation.Linear, noSeed())
	suite.Require().NoError(err)
	suite.Equal([]int64{150, 150, 250}, result.Timestamps())
	suite.InDeltaSlice([]float64{1.5, 1.5, 2.5}, result.Values(), 1e-12)

	// repeats straddling a chunk boundary
	target := []int64{50, 100, 100, 100, 200, 200, 350, 350}

	parallel, err := NewResampler(WithParallelThreshold(1), WithWorkers(3)).
		Resample(s, target, interpolation.Nearest, noSeed())
	suite.Require().NoError(err)
	suite.Equal([]float64{1, 1, 1, 1, 2, 2, 3, 3}, parallel.Values())
}

func (suite *ResampleTestSuite) TestGridLimits() {
	// the span overflows int64
	_, err := Grid(-(1 << 62), 1<<62, 1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = Grid(0, 1_000_000_000_000, 1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = Grid(0, MaxGridPoints, 1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	grid, err := Grid(math.MinInt64, math.MaxInt64, math.MaxInt64)
	suite.Require().NoError(err)
	suite.Equal([]int64{math.MinInt64, -1, math.MaxInt64 - 1}, grid)
}
