// smread is a one-shot fetch tool for time-series archives. It reads a
// range from one or more archive files, merging multiple sources into a
// single series, and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"math"
	"os"
	"time"

	"github.com/xtxerr/seriesmux/internal/archive/segment"
	"github.com/xtxerr/seriesmux/internal/cache"
	"github.com/xtxerr/seriesmux/internal/config"
	"github.com/xtxerr/seriesmux/internal/logging"
	"github.com/xtxerr/seriesmux/internal/reader"
)

// Version is set at build time via ldflags
var Version = "dev"

type output struct {
	Metric string `json:"metric"`
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Step   int64  `json:"step"`
	Values []any  `json:"values"`
}

func main() {
	cfgPath := flag.String("config", "seriesmux.yaml", "config file path")
	metric := flag.String("metric", "", "metric key for cache lookups")
	from := flag.Int64("from", 0, "range start, unix seconds (default: until-3600)")
	until := flag.Int64("until", 0, "range end, unix seconds (default: now)")
	intervals := flag.Bool("intervals", false, "print availability instead of data")
	noCache := flag.Bool("no-cache", false, "disable cache fusion")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("Usage: smread [flags] <archive path>...")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			log.Fatalf("Load config: %v", err)
		}
	}
	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)

	if *until == 0 {
		*until = time.Now().Unix()
	}
	if *from == 0 {
		*from = *until - 3600
	}
	if *from >= *until {
		log.Fatalf("Bad range: from %d >= until %d", *from, *until)
	}

	var querier cache.Querier
	if cfg.Cache.Enabled && !*noCache {
		querier = cache.NewClient(cfg.Cache.Address, cfg.Cache.Timeout())
	}

	reg := reader.NewRegistry()
	reg.Register(reader.KindFixedStep, func(path, metric string) (reader.Reader, error) {
		return reader.NewFixedStep(path, metric, querier), nil
	})
	reg.Register(reader.KindGzipped, func(path, metric string) (reader.Reader, error) {
		return reader.NewGzippedFixedStep(path), nil
	})
	reg.Register(reader.KindSegmented, func(path, metric string) (reader.Reader, error) {
		store, err := segment.Open(path)
		if err != nil {
			return nil, err
		}
		return reader.NewSegmented(store, metric, querier), nil
	})

	nodes := make([]reader.Reader, 0, flag.NArg())
	for _, path := range flag.Args() {
		r, err := reg.Open(path, *metric)
		if err != nil {
			log.Fatalf("Open %s: %v", path, err)
		}
		nodes = append(nodes, r)
	}

	var src reader.Reader = reader.NewMulti(nodes...)
	if len(nodes) == 1 {
		src = nodes[0]
	}

	enc := json.NewEncoder(os.Stdout)

	if *intervals {
		set, err := src.Intervals()
		if err != nil {
			log.Fatalf("Intervals: %v", err)
		}
		if err := enc.Encode(set.Intervals()); err != nil {
			log.Fatalf("Encode: %v", err)
		}
		return
	}

	res, err := src.Fetch(context.Background(), *from, *until).Wait()
	if err != nil {
		log.Fatalf("Fetch: %v", err)
	}
	if res == nil {
		log.Fatal("No data for range")
	}

	out := output{
		Metric: *metric,
		Start:  res.Window.Start,
		End:    res.Window.End,
		Step:   res.Window.Step,
		Values: make([]any, len(res.Values)),
	}
	// NaN has no JSON encoding; missing slots become null.
	for i, v := range res.Values {
		if !math.IsNaN(v) {
			out.Values[i] = v
		}
	}

	if err := enc.Encode(out); err != nil {
		log.Fatalf("Encode: %v", err)
	}
}
