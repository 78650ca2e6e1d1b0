// Package interpolation holds the point kernels used when a series is resampled onto a
// new timestamp grid, and the random generator sources feeding the stochastic kernel.
package interpolation

import (
	"strings"

	"github.com/rxtech-lab/argo-series/pkg/errors"
)

// Strategy selects how a value between two known points is produced.
type Strategy string

const (
	// Linear interpolates on the straight line between the bracketing points.
	Linear Strategy = "linear"
	// Nearest takes the value of the closer bracketing point. Ties go to the earlier point.
	Nearest Strategy = "nearest"
	// Stochastic adds Brownian-bridge noise on top of the linear value.
	Stochastic Strategy = "stochastic"
)

// AllStrategies lists every supported strategy.
var AllStrategies = []Strategy{Linear, Nearest, Stochastic}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	switch s {
	case Linear, Nearest, Stochastic:
		return true
	default:
		return false
	}
}

func (s Strategy) String() string {
	return string(s)
}

// ParseStrategy parses a case-insensitive strategy name.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", errors.Newf(errors.ErrCodeInvalidStrategy, "unknown interpolation strategy %q", name)
	}

	return s, nil
}
