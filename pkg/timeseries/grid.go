package timeseries

import (
	"github.com/rxtech-lab/argo-series/pkg/errors"
)

// MaxGridPoints caps the size of a grid built by Grid.
const MaxGridPoints = 10_000_000

// Grid returns the timestamps start, start+step, ... up to and including end.
// Grids longer than MaxGridPoints are rejected.
func Grid(start, end, step int64) ([]int64, error) {
	if step <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "grid step must be positive, got %d", step)
	}

	if end < start {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "grid end %d is before start %d", end, start)
	}

	// the span of two int64 always fits in uint64
	steps := (uint64(end) - uint64(start)) / uint64(step)
	if steps >= MaxGridPoints {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"grid from %d to %d by %d exceeds %d points", start, end, step, MaxGridPoints)
	}

	grid := make([]int64, steps+1)
	for i := range grid {
		grid[i] = int64(uint64(start) + uint64(i)*uint64(step))
	}

	return grid, nil
}
