// Package interval provides immutable time-range value types used to
// describe what span of data a storage source claims to hold.
//
// An Interval is a half-open range [Start, End) in Unix seconds. A Set is
// an ordered, coalesced collection of non-overlapping intervals. Sets are
// built once and never mutated; Union produces a new Set.
package interval

import (
	"fmt"
	"sort"
)

// Interval is a contiguous time range [Start, End) in Unix seconds.
// Start must be strictly less than End.
type Interval struct {
	Start int64
	End   int64
}

// New creates an interval, returning an error if the range is empty or
// inverted.
func New(start, end int64) (Interval, error) {
	if start >= end {
		return Interval{}, fmt.Errorf("invalid interval: start %d >= end %d", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the covered span in seconds.
func (iv Interval) Duration() int64 {
	return iv.End - iv.Start
}

// Contains reports whether the timestamp falls inside the interval.
func (iv Interval) Contains(ts int64) bool {
	return ts >= iv.Start && ts < iv.End
}

// Overlaps reports whether two intervals overlap or touch. Touching
// intervals coalesce into one under Union.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start <= other.End && other.Start <= iv.End
}

// String returns a human-readable representation of the interval.
func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.Start, iv.End)
}

// Set is an ordered collection of non-overlapping intervals describing
// total availability. The zero value is the empty set.
type Set struct {
	intervals []Interval
}

// NewSet builds a coalesced set from arbitrary input intervals: they are
// sorted by start, and overlapping or touching ranges merge into one.
func NewSet(intervals []Interval) Set {
	if len(intervals) == 0 {
		return Set{}
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return Set{intervals: merged}
}

// Union combines two sets into a new coalesced set.
func Union(a, b Set) Set {
	combined := make([]Interval, 0, len(a.intervals)+len(b.intervals))
	combined = append(combined, a.intervals...)
	combined = append(combined, b.intervals...)
	return NewSet(combined)
}

// Empty reports whether the set contains no intervals.
func (s Set) Empty() bool {
	return len(s.intervals) == 0
}

// Len returns the number of disjoint intervals in the set.
func (s Set) Len() int {
	return len(s.intervals)
}

// Intervals returns the set's intervals in ascending order. The returned
// slice is a copy; mutating it does not affect the set.
func (s Set) Intervals() []Interval {
	out := make([]Interval, len(s.intervals))
	copy(out, s.intervals)
	return out
}

// Bounds returns the earliest start and latest end across the set.
// ok is false for the empty set.
func (s Set) Bounds() (start, end int64, ok bool) {
	if len(s.intervals) == 0 {
		return 0, 0, false
	}
	return s.intervals[0].Start, s.intervals[len(s.intervals)-1].End, true
}
