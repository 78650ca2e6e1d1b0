package interpolation

import (
	"math"
	"math/rand/v2"

	"github.com/rxtech-lab/argo-series/pkg/errors"
)

const (
	// SecondsPerYear annualises the bridge variance.
	SecondsPerYear = 31_536_000.0
	// DefaultAnnualVolatility is the volatility used by the stochastic kernel unless overridden.
	DefaultAnnualVolatility = 1.0
)

// LinearValue returns the value on the line through (t1, v1) and (t2, v2) at t.
func LinearValue(t, t1 int64, v1 float64, t2 int64, v2 float64) float64 {
	fraction := float64(t-t1) / float64(t2-t1)

	return v1 + fraction*(v2-v1)
}

// NearestValue returns the value of the point closer to t, preferring (t1, v1) on ties.
func NearestValue(t, t1 int64, v1 float64, t2 int64, v2 float64) float64 {
	if t-t1 <= t2-t {
		return v1
	}

	return v2
}

// BridgeStdDev is the standard deviation of a Brownian bridge pinned at t1 and t2,
// evaluated at t and scaled by an annualised volatility. It is zero at both ends and
// largest at the midpoint.
func BridgeStdDev(t, t1, t2 int64, annualVol float64) float64 {
	variance := float64(t-t1) * float64(t2-t) / float64(t2-t1)

	return annualVol * math.Sqrt(variance/SecondsPerYear)
}

// Interpolator evaluates one strategy. It is not safe for concurrent use when the
// strategy is Stochastic, since it draws from its own generator.
type Interpolator struct {
	strategy  Strategy
	annualVol float64
	rng       *rand.Rand
}

// NewInterpolator creates an Interpolator. rng is required for Stochastic and ignored otherwise.
func NewInterpolator(strategy Strategy, annualVol float64, rng *rand.Rand) (*Interpolator, error) {
	if !strategy.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidStrategy, "unknown interpolation strategy %q", strategy)
	}

	if strategy == Stochastic && rng == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "stochastic interpolation requires a random generator")
	}

	return &Interpolator{
		strategy:  strategy,
		annualVol: annualVol,
		rng:       rng,
	}, nil
}

// Strategy returns the configured strategy.
func (i *Interpolator) Strategy() Strategy {
	return i.strategy
}

// Interpolate returns the value at t, which must satisfy t1 < t < t2 or lie on an endpoint.
func (i *Interpolator) Interpolate(t, t1 int64, v1 float64, t2 int64, v2 float64) float64 {
	switch i.strategy {
	case Nearest:
		return NearestValue(t, t1, v1, t2, v2)
	case Stochastic:
		linear := LinearValue(t, t1, v1, t2, v2)

		return linear + i.rng.NormFloat64()*BridgeStdDev(t, t1, t2, i.annualVol)
	default:
		return LinearValue(t, t1, v1, t2, v2)
	}
}
