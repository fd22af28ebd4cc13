package rrd

import (
	"context"
	"testing"
)

func TestMaxRetention(t *testing.T) {
	info := &Info{
		StepSeconds: 300,
		RRAs: []RRA{
			{PdpPerRow: 1, Rows: 600},   // 600 points
			{PdpPerRow: 6, Rows: 700},   // 4200 points
			{PdpPerRow: 24, Rows: 100},  // 2400 points
		},
	}

	if got := info.MaxRetention(); got != 4200*300 {
		t.Errorf("expected %d, got %d", 4200*300, got)
	}
}

func TestMaxRetentionNoRRAs(t *testing.T) {
	info := &Info{StepSeconds: 300}
	if got := info.MaxRetention(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

type stubBackend struct {
	Backend
	info *Info
	err  error
}

func (s *stubBackend) Info(ctx context.Context, path string) (*Info, error) {
	return s.info, s.err
}

func TestDatasources(t *testing.T) {
	b := &stubBackend{info: &Info{Datasources: []string{"ds0", "ds1"}}}

	ds, err := Datasources(context.Background(), b, "/data/router.rrd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds) != 2 || ds[0] != "ds0" {
		t.Errorf("unexpected datasources: %v", ds)
	}
}
