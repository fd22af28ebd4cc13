// Package series defines the value model shared by every reader: fetch
// windows, step-aligned value sequences, and consolidation of raw samples
// down to one value per slot.
//
// A missing slot is represented as NaN. Callers must use IsMissing rather
// than comparing against NaN directly.
package series

import (
	"fmt"
	"math"
)

// Window is the resolution descriptor of a fetched series: a half-open
// range [Start, End) in Unix seconds sampled every Step seconds.
type Window struct {
	Start int64
	End   int64
	Step  int64
}

// Validate checks the window invariants.
func (w Window) Validate() error {
	if w.Step <= 0 {
		return fmt.Errorf("invalid window: step %d <= 0", w.Step)
	}
	if w.Start >= w.End {
		return fmt.Errorf("invalid window: start %d >= end %d", w.Start, w.End)
	}
	return nil
}

// Slots returns the number of step-sized slots between Start and End,
// rounding a partial trailing slot up.
func (w Window) Slots() int {
	if w.Step <= 0 {
		return 0
	}
	return int((w.End - w.Start + w.Step - 1) / w.Step)
}

// SlotIndex maps a timestamp to its slot index relative to Start.
// The index is negative for timestamps before the window.
func (w Window) SlotIndex(ts int64) int {
	return int(floorDiv(ts-w.Start, w.Step))
}

// String returns a human-readable representation of the window.
func (w Window) String() string {
	return fmt.Sprintf("[%d, %d) step=%d", w.Start, w.End, w.Step)
}

// Result is a fetched series: a window plus one value per slot. A nil
// *Result means the source had no data for the range, which is not an
// error condition.
type Result struct {
	Window Window
	Values []float64
}

// New returns a result for the given window with every slot missing.
func New(w Window) *Result {
	values := make([]float64, w.Slots())
	for i := range values {
		values[i] = Missing()
	}
	return &Result{Window: w, Values: values}
}

// Missing returns the marker value for an absent slot.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a slot value is absent.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// At returns the value for the slot covering ts. ok is false when the
// timestamp maps outside the stored slots or the slot is missing.
func (r *Result) At(ts int64) (float64, bool) {
	i := r.Window.SlotIndex(ts)
	if i < 0 || i >= len(r.Values) {
		return 0, false
	}
	if IsMissing(r.Values[i]) {
		return 0, false
	}
	return r.Values[i], true
}

// floorDiv divides rounding toward negative infinity, so timestamps
// before the window start map to negative indexes instead of wrapping.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
