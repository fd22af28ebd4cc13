package reader

import (
	"context"
	"fmt"

	"github.com/xtxerr/seriesmux/internal/archive/segment"
	"github.com/xtxerr/seriesmux/internal/cache"
	"github.com/xtxerr/seriesmux/internal/interval"
	"github.com/xtxerr/seriesmux/internal/series"
)

// Segmented reads a segmented archive node and fuses in write-back
// cache data. Raw nodes take cache points as-is; nodes that store
// consolidated values declare an aggregation in their descriptor, which
// is then applied to the cache points per slot.
type Segmented struct {
	store  *segment.Store
	metric string
	cache  cache.Querier
}

// NewSegmented creates a reader over an opened segment store. querier
// may be nil when no write-back cache is configured.
func NewSegmented(store *segment.Store, metric string, querier cache.Querier) *Segmented {
	return &Segmented{
		store:  store,
		metric: metric,
		cache:  querier,
	}
}

// Intervals reports the union of every stored segment's own bounds.
func (r *Segmented) Intervals() (interval.Set, error) {
	segments, err := r.store.Segments()
	if err != nil {
		return interval.Set{}, err
	}

	intervals := make([]interval.Interval, 0, len(segments))
	for _, s := range segments {
		start := s.StartMs / 1000
		end := (s.EndMs + 999) / 1000
		if end <= start {
			continue
		}
		intervals = append(intervals, interval.Interval{Start: start, End: end})
	}

	return interval.NewSet(intervals), nil
}

// Fetch reads the stored points for the range, buckets them onto the
// node's step, and overlays cached datapoints.
func (r *Segmented) Fetch(ctx context.Context, from, until int64) *Pending {
	meta := r.store.Meta()
	step := meta.StepSeconds

	points, err := r.store.ReadRange(ctx, from*1000, until*1000)
	if err != nil {
		return Done(nil, fmt.Errorf("segmented fetch %s: %w", r.store.Dir(), err))
	}
	if len(points) == 0 {
		return Done(nil, nil)
	}

	start := floorDiv(from, step) * step
	end := ceilDiv(until, step) * step
	res := series.New(series.Window{Start: start, End: end, Step: step})

	for _, p := range points {
		i := res.Window.SlotIndex(p.TimestampMs / 1000)
		if i < 0 || i >= len(res.Values) {
			continue
		}
		res.Values[i] = p.Value
	}

	if r.cache != nil {
		if err := fuseCache(ctx, r.cache, r.metric, res, meta.Aggregation); err != nil {
			return Done(nil, err)
		}
	}

	return Done(res, nil)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return floorDiv(a+b-1, b)
}
