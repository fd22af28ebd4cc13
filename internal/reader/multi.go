package reader

import (
	"context"
	"log/slog"

	"github.com/xtxerr/seriesmux/internal/interval"
	"github.com/xtxerr/seriesmux/internal/logging"
	"github.com/xtxerr/seriesmux/internal/series"
)

// MultiReader fetches the same logical metric from several underlying
// readers, typically replica nodes that may hold it at different
// resolutions, and merges their answers into one series.
type MultiReader struct {
	nodes []Reader
	log   *slog.Logger
}

// NewMulti creates a multi-source reader over the given nodes. Node
// order matters only for tie-breaking: when two sources report the same
// step and both hold a value for a slot, the earliest-listed source
// wins.
func NewMulti(nodes ...Reader) *MultiReader {
	return &MultiReader{
		nodes: nodes,
		log:   logging.Component("reader.multi"),
	}
}

// Intervals returns the union of every node's availability. A node
// whose discovery fails is logged and skipped.
func (m *MultiReader) Intervals() (interval.Set, error) {
	var set interval.Set
	for i, n := range m.nodes {
		s, err := n.Intervals()
		if err != nil {
			m.log.Warn("interval discovery failed", "source", i, "error", err)
			continue
		}
		set = interval.Union(set, s)
	}
	return set, nil
}

// Fetch starts a fetch against every node before awaiting any of them,
// then merges the surviving results. A node that fails to complete is
// logged and excluded; when nothing survives, Wait returns
// ErrAllSourcesFailed.
func (m *MultiReader) Fetch(ctx context.Context, from, until int64) *Pending {
	type subfetch struct {
		idx int
		res *series.Result
		err error
	}

	ch := make(chan subfetch, len(m.nodes))
	for i, n := range m.nodes {
		go func(i int, n Reader) {
			res, err := n.Fetch(ctx, from, until).Wait()
			ch <- subfetch{idx: i, res: res, err: err}
		}(i, n)
	}

	return NewPending(func() (*series.Result, error) {
		// Collect in node order so the fold is deterministic.
		results := make([]*series.Result, len(m.nodes))
		for range m.nodes {
			s := <-ch
			if s.err != nil {
				m.log.Warn("subfetch failed", "source", s.idx, "error", s.err)
				continue
			}
			results[s.idx] = s.res
		}

		var merged *series.Result
		for _, r := range results {
			if r == nil {
				continue
			}
			if merged == nil {
				merged = r
				continue
			}
			merged = merge(merged, r)
		}

		if merged == nil {
			return nil, ErrAllSourcesFailed
		}
		return merged, nil
	})
}

// merge combines two results into one spanning both windows at the
// finer step. Per slot the finer series' value wins when present,
// falling back to the coarser series' value at the coarser-aligned
// index. On equal steps the accumulator stays primary, so conflicting
// values resolve to the earliest source in fold order.
func merge(a, b *series.Result) *series.Result {
	if a.Window.Step > b.Window.Step {
		a, b = b, a
	}

	window := series.Window{
		Start: min(a.Window.Start, b.Window.Start),
		End:   max(a.Window.End, b.Window.End),
		Step:  a.Window.Step,
	}
	out := series.New(window)

	for i, t := 0, window.Start; t < window.End; i, t = i+1, t+window.Step {
		if v, ok := a.At(t); ok {
			out.Values[i] = v
			continue
		}
		// Fall back to the coarser series, including its missing
		// slots; only an index outside its window leaves the slot
		// untouched.
		j := b.Window.SlotIndex(t)
		if j >= 0 && j < len(b.Values) {
			out.Values[i] = b.Values[j]
		}
	}

	return out
}
