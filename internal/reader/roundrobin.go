package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xtxerr/seriesmux/internal/archive/rrd"
	"github.com/xtxerr/seriesmux/internal/config"
	"github.com/xtxerr/seriesmux/internal/interval"
	"github.com/xtxerr/seriesmux/internal/logging"
	"github.com/xtxerr/seriesmux/internal/series"
)

// RoundRobin reads one datasource out of a round-robin archive through
// an opaque backend. The backend's final row is always dropped: the most
// recent sample is frequently a partially written value. No cache fusion
// is applied; the format's own caching daemon is flushed before the read
// instead, when configured.
type RoundRobin struct {
	backend       rrd.Backend
	path          string
	datasource    string
	consolidation string
	flushDaemon   string
	log           *slog.Logger
}

// NewRoundRobin creates a reader for one datasource of the archive at
// path.
func NewRoundRobin(backend rrd.Backend, path, datasource string, cfg config.RoundRobinConfig) *RoundRobin {
	return &RoundRobin{
		backend:       backend,
		path:          path,
		datasource:    datasource,
		consolidation: cfg.Consolidation,
		flushDaemon:   cfg.FlushDaemon,
		log:           logging.Component("reader.roundrobin"),
	}
}

// Intervals derives availability from the backend's retention metadata
// and the file's modification time.
func (r *RoundRobin) Intervals() (interval.Set, error) {
	info, err := r.backend.Info(context.Background(), r.path)
	if err != nil {
		return interval.Set{}, fmt.Errorf("round-robin info %s: %w", r.path, err)
	}

	st, err := os.Stat(r.path)
	if err != nil {
		return interval.Set{}, fmt.Errorf("stat %s: %w", r.path, err)
	}

	return retentionInterval(time.Now().Unix(), info.MaxRetention(), st.ModTime().Unix()), nil
}

// Fetch flushes the caching daemon when configured, reads the raw rows,
// and extracts the datasource's column with the final row removed.
func (r *RoundRobin) Fetch(ctx context.Context, from, until int64) *Pending {
	if r.flushDaemon != "" {
		if err := r.backend.FlushCached(ctx, r.path, r.flushDaemon); err != nil {
			r.log.Warn("flush before read failed", "path", r.path, "daemon", r.flushDaemon, "error", err)
		}
	}

	fr, err := r.backend.Fetch(ctx, r.path, r.consolidation, from, until)
	if err != nil {
		return Done(nil, fmt.Errorf("round-robin fetch %s: %w", r.path, err))
	}
	if fr == nil || len(fr.Rows) == 0 {
		return Done(nil, nil)
	}

	col := -1
	for i, name := range fr.Columns {
		if name == r.datasource {
			col = i
			break
		}
	}
	if col < 0 {
		return Done(nil, fmt.Errorf("round-robin fetch %s: datasource %q not found in %v", r.path, r.datasource, fr.Columns))
	}

	// The last row is unreliable and must never be returned.
	rows := fr.Rows[:len(fr.Rows)-1]
	if len(rows) == 0 {
		return Done(nil, nil)
	}

	window := fr.Window
	window.End = window.Start + window.Step*int64(len(rows))

	res := series.New(window)
	for i, row := range rows {
		if i >= len(res.Values) {
			break
		}
		if col < len(row) {
			res.Values[i] = row[col]
		}
	}

	return Done(res, nil)
}
