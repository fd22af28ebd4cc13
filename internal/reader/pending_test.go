package reader

import (
	"errors"
	"testing"
	"time"

	"github.com/xtxerr/seriesmux/internal/series"
)

func TestDoneReturnsImmediately(t *testing.T) {
	res := series.New(series.Window{Start: 0, End: 60, Step: 60})

	got, err := Done(res, nil).Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != res {
		t.Error("expected the same result back")
	}
}

func TestDoneCarriesError(t *testing.T) {
	want := errors.New("disk on fire")

	res, err := Done(nil, want).Wait()
	if res != nil {
		t.Error("expected nil result")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestGoStartsBeforeWait(t *testing.T) {
	started := make(chan struct{})

	p := Go(func() (*series.Result, error) {
		close(started)
		return nil, nil
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("work did not start until Wait was called")
	}

	if _, err := p.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitIsIdempotent(t *testing.T) {
	calls := 0
	p := NewPending(func() (*series.Result, error) {
		calls++
		return nil, errors.New("once")
	})

	_, err1 := p.Wait()
	_, err2 := p.Wait()

	if calls != 1 {
		t.Errorf("expected 1 callback invocation, got %d", calls)
	}
	if err1 == nil || err2 == nil || err1.Error() != err2.Error() {
		t.Errorf("expected the same error twice, got %v / %v", err1, err2)
	}
}

func TestWaitBlocksUntilComplete(t *testing.T) {
	p := Go(func() (*series.Result, error) {
		time.Sleep(20 * time.Millisecond)
		return series.New(series.Window{Start: 0, End: 60, Step: 60}), nil
	})

	res, err := p.Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Error("expected a result after waiting")
	}
}
