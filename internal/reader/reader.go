// Package reader composes the archive formats, the write-back cache, and
// multiple storage nodes into one fetch interface.
//
// A Reader answers two questions about a single source: what range of
// data it claims to hold (Intervals) and the series for a range (Fetch).
// Fetch returns a Pending handle so sources backed by remote nodes can
// run concurrently; Wait is the only suspension point. MultiReader fans
// a fetch out across several readers and merges their answers, keeping
// the finest resolution available per slot.
//
// Cache-query failures and individual subfetch failures are logged and
// absorbed; only ErrAllSourcesFailed and an invalid consolidation
// function reach the caller.
package reader

import (
	"context"
	"errors"

	"github.com/xtxerr/seriesmux/internal/interval"
)

// ErrAllSourcesFailed is returned when every underlying source of a
// multi-source fetch failed or had no data for the range.
var ErrAllSourcesFailed = errors.New("all sources failed or returned no data")

// ErrUnsupportedFormat is returned when no reader is registered for an
// archive path's format.
var ErrUnsupportedFormat = errors.New("archive format not supported")

// Reader is a single source of one metric's data.
type Reader interface {
	// Intervals reports the time ranges this source claims to hold.
	// Callers use it for query planning only; Fetch is not filtered
	// through it.
	Intervals() (interval.Set, error)

	// Fetch starts reading the series for [from, until) and returns a
	// handle to the eventual result. A nil result from Wait means the
	// source has no data for the range, which is not a failure.
	Fetch(ctx context.Context, from, until int64) *Pending
}
