package timeseries

import (
	"github.com/rxtech-lab/argo-series/pkg/errors"
)

// axis is the time axis of an operand: a window over a Timeline.
type axis struct {
	timeline *Timeline
	begin    int
	length   int
}

func (a axis) at(i int) int64 {
	return a.timeline.timestamps[a.begin+i]
}

// checkAlignment accepts two axes when they are the identical window of the identical
// buffer, or when they have equal length and equal timestamps position by position.
// The identity test runs first so series sharing a Timeline never pay the O(n) walk.
func checkAlignment(left, right axis) error {
	if left.timeline.Same(right.timeline) && left.begin == right.begin && left.length == right.length {
		return nil
	}

	if left.length != right.length {
		return errors.NewLengthMismatchError(left.length, right.length)
	}

	for i := 0; i < left.length; i++ {
		if l, r := left.at(i), right.at(i); l != r {
			return errors.NewTimestampMismatchError(left.length, i, l, r)
		}
	}

	return nil
}

func (s *Series) axis() axis {
	return axis{timeline: s.timeline, begin: 0, length: s.Len()}
}

// CheckAlignment returns an *errors.AlignmentError when s and other cannot be combined.
func (s *Series) CheckAlignment(other *Series) error {
	return checkAlignment(s.axis(), other.axis())
}

// AlignedWith reports whether s and other can be combined elementwise.
func (s *Series) AlignedWith(other *Series) bool {
	return s.CheckAlignment(other) == nil
}
