package reader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xtxerr/seriesmux/internal/interval"
	"github.com/xtxerr/seriesmux/internal/series"
)

// fakeReader is a source with canned intervals and fetch results.
type fakeReader struct {
	set     interval.Set
	res     *series.Result
	err     error
	onFetch func()
}

func (f *fakeReader) Intervals() (interval.Set, error) {
	return f.set, nil
}

func (f *fakeReader) Fetch(ctx context.Context, from, until int64) *Pending {
	if f.onFetch != nil {
		f.onFetch()
	}
	return Done(f.res, f.err)
}

func constSeries(start, end, step int64, value float64) *series.Result {
	res := series.New(series.Window{Start: start, End: end, Step: step})
	for i := range res.Values {
		res.Values[i] = value
	}
	return res
}

func TestMultiMergeFallsBackToCoarser(t *testing.T) {
	fine := series.New(series.Window{Start: 0, End: 100, Step: 10}) // all missing
	coarse := constSeries(0, 120, 60, 5)

	m := NewMulti(
		&fakeReader{res: fine},
		&fakeReader{res: coarse},
	)

	res, err := m.Fetch(context.Background(), 0, 120).Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Window.Step != 10 {
		t.Errorf("expected finest step 10, got %d", res.Window.Step)
	}
	if res.Window.Start != 0 || res.Window.End != 120 {
		t.Errorf("expected window [0, 120), got %v", res.Window)
	}

	// The fine source has nothing at t=30, so the coarse value shows
	// through.
	if v, ok := res.At(30); !ok || v != 5 {
		t.Errorf("at t=30: expected fallback 5, got (%v, %v)", v, ok)
	}
}

func TestMultiMergeFinerWins(t *testing.T) {
	fine := series.New(series.Window{Start: 0, End: 100, Step: 10})
	fine.Values[3] = 42 // t=30

	coarse := constSeries(0, 120, 60, 5)

	m := NewMulti(&fakeReader{res: fine}, &fakeReader{res: coarse})

	res, err := m.Fetch(context.Background(), 0, 120).Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := res.At(30); !ok || v != 42 {
		t.Errorf("at t=30: expected finer value 42, got (%v, %v)", v, ok)
	}
	if v, ok := res.At(40); !ok || v != 5 {
		t.Errorf("at t=40: expected fallback 5, got (%v, %v)", v, ok)
	}
}

func TestMultiMergeEqualStepTieBreak(t *testing.T) {
	first := constSeries(0, 60, 60, 1)
	second := constSeries(0, 60, 60, 2)

	res, err := NewMulti(&fakeReader{res: first}, &fakeReader{res: second}).
		Fetch(context.Background(), 0, 60).Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Earliest-listed source wins on equal steps.
	if v, ok := res.At(0); !ok || v != 1 {
		t.Errorf("expected first source's value 1, got (%v, %v)", v, ok)
	}
}

func TestMultiToleratesPartialFailure(t *testing.T) {
	ok := constSeries(0, 60, 60, 7)

	m := NewMulti(
		&fakeReader{err: errors.New("node unreachable")},
		&fakeReader{res: ok},
		&fakeReader{res: nil}, // no data is not a failure
	)

	res, err := m.Fetch(context.Background(), 0, 60).Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := res.At(0); !ok || v != 7 {
		t.Errorf("expected surviving source's value, got (%v, %v)", v, ok)
	}
}

func TestMultiAllSourcesFailed(t *testing.T) {
	m := NewMulti(
		&fakeReader{err: errors.New("down")},
		&fakeReader{res: nil},
	)

	res, err := m.Fetch(context.Background(), 0, 60).Wait()
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Errorf("expected ErrAllSourcesFailed, got %v", err)
	}
	if res != nil {
		t.Error("expected no partial result")
	}
}

func TestMultiFansOutBeforeAwaiting(t *testing.T) {
	// Each fetch blocks until every fetch has been dispatched. If the
	// MultiReader awaited one source before starting the next, this
	// would deadlock and the test would time out.
	var barrier sync.WaitGroup
	barrier.Add(2)

	block := func() {
		barrier.Done()
		barrier.Wait()
	}

	m := NewMulti(
		&fakeReader{res: constSeries(0, 60, 60, 1), onFetch: block},
		&fakeReader{res: constSeries(0, 60, 60, 2), onFetch: block},
	)

	if _, err := m.Fetch(context.Background(), 0, 60).Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMultiIntervalsUnion(t *testing.T) {
	a := interval.NewSet([]interval.Interval{{Start: 0, End: 100}})
	b := interval.NewSet([]interval.Interval{{Start: 90, End: 200}, {Start: 500, End: 600}})

	m := NewMulti(&fakeReader{set: a}, &fakeReader{set: b})

	set, err := m.Intervals()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []interval.Interval{{Start: 0, End: 200}, {Start: 500, End: 600}}
	got := set.Intervals()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interval %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestMultiMergeDisjointWindows(t *testing.T) {
	early := constSeries(0, 60, 60, 1)
	late := constSeries(120, 180, 60, 2)

	res, err := NewMulti(&fakeReader{res: early}, &fakeReader{res: late}).
		Fetch(context.Background(), 0, 180).Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Window.Start != 0 || res.Window.End != 180 {
		t.Fatalf("expected window [0, 180), got %v", res.Window)
	}
	if v, ok := res.At(0); !ok || v != 1 {
		t.Errorf("at t=0: got (%v, %v)", v, ok)
	}
	if _, ok := res.At(60); ok {
		t.Error("at t=60: expected gap between the sources")
	}
	if v, ok := res.At(120); !ok || v != 2 {
		t.Errorf("at t=120: got (%v, %v)", v, ok)
	}
}
