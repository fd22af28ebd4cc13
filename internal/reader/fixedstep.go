package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/xtxerr/seriesmux/internal/archive/fixedstep"
	"github.com/xtxerr/seriesmux/internal/cache"
	"github.com/xtxerr/seriesmux/internal/interval"
)

// FixedStep reads a fixed-step archive file and fuses in write-back
// cache data. Fixed-step archives store consolidated points, so cache
// points are consolidated with the archive's aggregation method before
// they overwrite archive slots.
type FixedStep struct {
	path   string
	metric string
	cache  cache.Querier
}

// NewFixedStep creates a reader for the archive at path. querier may be
// nil when no write-back cache is configured.
func NewFixedStep(path, metric string, querier cache.Querier) *FixedStep {
	return &FixedStep{
		path:   path,
		metric: metric,
		cache:  querier,
	}
}

// Intervals derives availability from the archive's retention and the
// file's modification time.
func (r *FixedStep) Intervals() (interval.Set, error) {
	info, err := fixedstep.Info(r.path)
	if err != nil {
		return interval.Set{}, err
	}
	mtime, err := fixedstep.ModTime(r.path)
	if err != nil {
		return interval.Set{}, err
	}

	return retentionInterval(time.Now().Unix(), info.MaxRetention, mtime), nil
}

// Fetch reads the archive range and overlays cached datapoints. A cache
// failure degrades to archive data alone.
func (r *FixedStep) Fetch(ctx context.Context, from, until int64) *Pending {
	res, err := fixedstep.Fetch(r.path, from, until)
	if err != nil {
		return Done(nil, fmt.Errorf("fixed-step fetch %s: %w", r.path, err))
	}
	if res == nil {
		return Done(nil, nil)
	}

	if r.cache != nil {
		info, err := fixedstep.Info(r.path)
		if err != nil {
			return Done(nil, fmt.Errorf("fixed-step info %s: %w", r.path, err))
		}
		if err := fuseCache(ctx, r.cache, r.metric, res, info.AggregationMethod); err != nil {
			return Done(nil, err)
		}
	}

	return Done(res, nil)
}

// retentionInterval builds the availability set for retention-bounded
// formats: data since now-retention, up to the file's last write.
func retentionInterval(now, retention, mtime int64) interval.Set {
	start := now - retention
	end := mtime
	if end < start {
		end = start
	}
	if end <= start {
		return interval.Set{}
	}

	iv, err := interval.New(start, end)
	if err != nil {
		return interval.Set{}
	}
	return interval.NewSet([]interval.Interval{iv})
}
