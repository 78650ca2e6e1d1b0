package timeseries

import (
	"slices"
	"sort"

	"github.com/rxtech-lab/argo-series/pkg/errors"
)

// Timeline is an immutable, shareable sequence of ascending millisecond timestamps.
// Source timelines strictly increase; a resampled timeline repeats a timestamp whenever
// its target grid did. Several series may hold the same *Timeline; nothing ever writes
// through it, so changing a time axis always means allocating a new Timeline.
type Timeline struct {
	timestamps []int64
}

// NewTimeline takes ownership of timestamps and validates that they strictly increase.
func NewTimeline(timestamps []int64) (*Timeline, error) {
	if err := checkStrictlyIncreasing(timestamps, errors.ErrCodeUnsortedSeries); err != nil {
		return nil, err
	}

	return &Timeline{timestamps: timestamps}, nil
}

// Len returns the number of timestamps.
func (t *Timeline) Len() int {
	return len(t.timestamps)
}

// At returns the i-th timestamp.
func (t *Timeline) At(i int) int64 {
	return t.timestamps[i]
}

// Values returns a copy of the timestamps.
func (t *Timeline) Values() []int64 {
	return slices.Clone(t.timestamps)
}

// Slice copies length timestamps starting at begin into a new Timeline.
func (t *Timeline) Slice(begin, length int) *Timeline {
	return &Timeline{timestamps: slices.Clone(t.timestamps[begin : begin+length])}
}

// Same reports whether t and other are the identical buffer.
func (t *Timeline) Same(other *Timeline) bool {
	return t == other
}

// Equal reports whether t and other hold the same timestamps.
func (t *Timeline) Equal(other *Timeline) bool {
	if t == other {
		return true
	}

	return slices.Equal(t.timestamps, other.timestamps)
}

// Search returns the index of the first timestamp >= ts, or Len() if there is none.
func (t *Timeline) Search(ts int64) int {
	return sort.Search(len(t.timestamps), func(i int) bool {
		return t.timestamps[i] >= ts
	})
}

// checkSorted reports the first position where timestamps decrease. Repeats are allowed.
func checkSorted(timestamps []int64, code errors.ErrorCode) error {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			return errors.Newf(code, "timestamps must be sorted ascending: position %d has %d after %d",
				i, timestamps[i], timestamps[i-1])
		}
	}

	return nil
}

// checkStrictlyIncreasing reports the first position where timestamps stop increasing.
func checkStrictlyIncreasing(timestamps []int64, code errors.ErrorCode) error {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] <= timestamps[i-1] {
			return errors.Newf(code, "timestamps must be strictly increasing: position %d has %d after %d",
				i, timestamps[i], timestamps[i-1])
		}
	}

	return nil
}
