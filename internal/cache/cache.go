// Package cache provides access to the write-back cache daemon holding
// datapoints that have not yet been flushed to an archive, and the fusion
// logic that overlays those points onto archive data.
//
// The daemon is queried per metric key; readers inject a Querier at
// construction so tests can substitute a fake. Cache failures are never
// fatal to a fetch: readers log them and continue with archive data only.
package cache

import "context"

// Point is a single not-yet-flushed datapoint. Points come back from the
// daemon unordered and may be duplicated, stale, or future-dated relative
// to the requested window.
type Point struct {
	Timestamp int64
	Value     float64
}

// Querier fetches the cached datapoints for a metric key.
type Querier interface {
	Query(ctx context.Context, metric string) ([]Point, error)
}

// QuerierFunc adapts a plain function to the Querier interface.
type QuerierFunc func(ctx context.Context, metric string) ([]Point, error)

// Query implements Querier.
func (f QuerierFunc) Query(ctx context.Context, metric string) ([]Point, error) {
	return f(ctx, metric)
}
