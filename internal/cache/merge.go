package cache

import (
	"github.com/xtxerr/seriesmux/internal/series"
)

// MergeIntoSeries overlays cached datapoints onto a fetched series. Cache
// data wins over archive data: the daemon reflects writes newer than the
// archive snapshot the series came from.
//
// With fn == "" each point maps straight to the slot covering its
// timestamp, later points winning over earlier ones in the same slot.
// With a consolidation function, points are first grouped per slot bucket
// and reduced, for archives that store consolidated values.
//
// Points before the window start are dropped: a negative slot index must
// never be treated as an index from the end of the series. Points past
// the window end are silently ignored. Malformed points never fail the
// merge; the only error is an unknown consolidation function, which is
// fatal to the fetch.
func MergeIntoSeries(points []Point, res *series.Result, fn string) error {
	if res == nil || len(points) == 0 {
		return nil
	}

	merged := points
	if fn != "" {
		consolidated, err := consolidatePoints(points, res.Window.Step, fn)
		if err != nil {
			return err
		}
		merged = consolidated
	}

	for _, p := range merged {
		i := res.Window.SlotIndex(p.Timestamp)
		if i < 0 || i >= len(res.Values) {
			continue
		}
		res.Values[i] = p.Value
	}

	return nil
}

// consolidatePoints groups points by the step bucket their timestamp
// falls into and reduces each group to a single point.
func consolidatePoints(points []Point, step int64, fn string) ([]Point, error) {
	buckets := make(map[int64][]float64)
	order := make([]int64, 0, len(points))

	for _, p := range points {
		bucket := p.Timestamp - floorMod(p.Timestamp, step)
		if _, seen := buckets[bucket]; !seen {
			order = append(order, bucket)
		}
		buckets[bucket] = append(buckets[bucket], p.Value)
	}

	out := make([]Point, 0, len(order))
	for _, bucket := range order {
		v, err := series.Consolidate(fn, buckets[bucket])
		if err != nil {
			return nil, err
		}
		out = append(out, Point{Timestamp: bucket, Value: v})
	}

	return out, nil
}

// floorMod is the modulo rounding toward negative infinity, keeping
// bucket boundaries consistent for pre-epoch timestamps.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
