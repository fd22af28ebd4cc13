// Package rrd defines the contract to a round-robin archive backend.
// The byte-level format belongs to an external library; this package
// only models the operations the read path needs and the retention math
// derived from the backend's metadata.
//
// A backend is supplied at construction. When none is available the
// round-robin format is simply not registered with the reader registry.
package rrd

import (
	"context"

	"github.com/xtxerr/seriesmux/internal/series"
)

// RRA describes one round-robin archive tier: Rows slots, each covering
// PdpPerRow primary datapoints.
type RRA struct {
	PdpPerRow int64
	Rows      int64
}

// Info is the backend's description of a round-robin file.
type Info struct {
	// StepSeconds is the base resolution of the file.
	StepSeconds int64

	// Datasources lists the named series stored in the file.
	Datasources []string

	// RRAs lists the archive tiers.
	RRAs []RRA
}

// MaxRetention returns the longest span covered by any RRA, in seconds.
func (i *Info) MaxRetention() int64 {
	var points int64
	for _, rra := range i.RRAs {
		if p := rra.PdpPerRow * rra.Rows; p > points {
			points = p
		}
	}
	return points * i.StepSeconds
}

// FetchResult is the backend's raw answer for a range: one row of
// per-datasource values per step, aligned to Columns. A missing cell is
// NaN.
type FetchResult struct {
	Window  series.Window
	Columns []string
	Rows    [][]float64
}

// Backend is the opaque round-robin library the reader calls.
type Backend interface {
	// Fetch reads the raw rows for [from, until) under the given
	// consolidation function (average, max, min, sum).
	Fetch(ctx context.Context, path, consolidation string, from, until int64) (*FetchResult, error)

	// Info describes the file's datasources and retention tiers.
	Info(ctx context.Context, path string) (*Info, error)

	// FlushCached asks the caching daemon to flush pending updates for
	// the file before it is read.
	FlushCached(ctx context.Context, path, daemon string) error
}

// Datasources returns the named series stored in a round-robin file.
func Datasources(ctx context.Context, b Backend, path string) ([]string, error) {
	info, err := b.Info(ctx, path)
	if err != nil {
		return nil, err
	}
	return info.Datasources, nil
}
