package reader

import (
	"context"

	"github.com/xtxerr/seriesmux/internal/cache"
	"github.com/xtxerr/seriesmux/internal/logging"
	"github.com/xtxerr/seriesmux/internal/series"
)

// fuseCache queries the write-back cache for the metric and merges the
// points into res. The metric key rides on the context so downstream log
// entries carry it. A failed query is logged and treated as no cache
// data; the fetch still succeeds from archive data. The only returned
// error is an invalid consolidation function, which is fatal to the
// fetch.
func fuseCache(ctx context.Context, q cache.Querier, metric string, res *series.Result, fn string) error {
	ctx = logging.ContextWithMetric(ctx, metric)
	points, err := q.Query(ctx, metric)
	if err != nil {
		logging.WithContext(ctx).Warn("cache query failed", "error", err)
		points = nil
	}
	return cache.MergeIntoSeries(points, res, fn)
}
