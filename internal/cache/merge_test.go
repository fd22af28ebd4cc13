package cache

import (
	"errors"
	"testing"

	"github.com/xtxerr/seriesmux/internal/series"
)

func newSeries(start, end, step int64) *series.Result {
	return series.New(series.Window{Start: start, End: end, Step: step})
}

func TestMergeDirectMode(t *testing.T) {
	res := newSeries(0, 300, 60)

	err := MergeIntoSeries([]Point{{Timestamp: 0, Value: 1.0}}, res, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values[0] != 1.0 {
		t.Errorf("slot 0: expected 1.0, got %v", res.Values[0])
	}
	for i := 1; i < len(res.Values); i++ {
		if !series.IsMissing(res.Values[i]) {
			t.Errorf("slot %d: expected missing, got %v", i, res.Values[i])
		}
	}
}

func TestMergeLaterPointWinsSameSlot(t *testing.T) {
	res := newSeries(0, 300, 60)

	points := []Point{
		{Timestamp: 60, Value: 1.0},
		{Timestamp: 61, Value: 2.0}, // same slot, later in iteration order
	}
	if err := MergeIntoSeries(points, res, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values[1] != 2.0 {
		t.Errorf("expected later point to win, got %v", res.Values[1])
	}
}

func TestMergeCacheWinsOverArchive(t *testing.T) {
	res := newSeries(0, 300, 60)
	res.Values[2] = 99.0 // archive value

	if err := MergeIntoSeries([]Point{{Timestamp: 120, Value: 5.0}}, res, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values[2] != 5.0 {
		t.Errorf("expected cache value 5.0 to overwrite archive, got %v", res.Values[2])
	}
}

func TestMergeDropsPointBeforeStart(t *testing.T) {
	res := newSeries(0, 300, 60)

	// Must not wrap around into the end of the series and must not error.
	if err := MergeIntoSeries([]Point{{Timestamp: -60, Value: 7.0}}, res, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range res.Values {
		if !series.IsMissing(v) {
			t.Errorf("slot %d mutated to %v by out-of-window point", i, v)
		}
	}
}

func TestMergeDropsPointPastEnd(t *testing.T) {
	res := newSeries(0, 300, 60)

	if err := MergeIntoSeries([]Point{{Timestamp: 300, Value: 7.0}, {Timestamp: 9000, Value: 8.0}}, res, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range res.Values {
		if !series.IsMissing(v) {
			t.Errorf("slot %d mutated to %v by out-of-window point", i, v)
		}
	}
}

func TestMergeConsolidatedMode(t *testing.T) {
	res := newSeries(0, 300, 60)

	points := []Point{
		{Timestamp: 60, Value: 2.0},
		{Timestamp: 90, Value: 4.0},
		{Timestamp: 119, Value: 6.0},
		{Timestamp: 240, Value: 10.0},
	}
	if err := MergeIntoSeries(points, res, "average"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values[1] != 4.0 {
		t.Errorf("slot 1: expected average 4.0, got %v", res.Values[1])
	}
	if res.Values[4] != 10.0 {
		t.Errorf("slot 4: expected 10.0, got %v", res.Values[4])
	}
	if !series.IsMissing(res.Values[0]) {
		t.Errorf("slot 0: expected missing, got %v", res.Values[0])
	}
}

func TestMergeConsolidatedUnknownFunc(t *testing.T) {
	res := newSeries(0, 300, 60)

	err := MergeIntoSeries([]Point{{Timestamp: 0, Value: 1.0}}, res, "bogus")
	if !errors.Is(err, series.ErrInvalidConsolidationFunc) {
		t.Errorf("expected ErrInvalidConsolidationFunc, got %v", err)
	}
}

func TestMergeNeverChangesLength(t *testing.T) {
	res := newSeries(0, 300, 60)

	points := []Point{
		{Timestamp: -600, Value: 1},
		{Timestamp: 0, Value: 2},
		{Timestamp: 100000, Value: 3},
	}
	if err := MergeIntoSeries(points, res, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Values) != 5 {
		t.Errorf("series length changed: %d", len(res.Values))
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if err := MergeIntoSeries(nil, newSeries(0, 60, 60), ""); err != nil {
		t.Errorf("nil points: unexpected error %v", err)
	}
	if err := MergeIntoSeries([]Point{{Timestamp: 0, Value: 1}}, nil, ""); err != nil {
		t.Errorf("nil series: unexpected error %v", err)
	}
}
