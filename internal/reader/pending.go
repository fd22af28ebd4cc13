package reader

import (
	"sync"

	"github.com/xtxerr/seriesmux/internal/series"
)

// Pending is the handle to a fetch that may still be in flight. Wait
// blocks until the fetch finishes and returns its outcome; it may be
// called any number of times and always yields the same result. Pending
// carries no retry or timeout policy of its own.
type Pending struct {
	once sync.Once
	wait func() (*series.Result, error)
	res  *series.Result
	err  error
}

// NewPending wraps a completion callback. The callback runs on the
// first Wait.
func NewPending(wait func() (*series.Result, error)) *Pending {
	return &Pending{wait: wait}
}

// Done returns an already-completed handle, for sources that fetch
// synchronously.
func Done(res *series.Result, err error) *Pending {
	return NewPending(func() (*series.Result, error) { return res, err })
}

// Go starts fn immediately in its own goroutine and returns a handle to
// its result. The work begins before anyone waits.
func Go(fn func() (*series.Result, error)) *Pending {
	type outcome struct {
		res *series.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := fn()
		ch <- outcome{res: res, err: err}
	}()

	return NewPending(func() (*series.Result, error) {
		o := <-ch
		return o.res, o.err
	})
}

// Wait blocks until the fetch completes and returns its result.
func (p *Pending) Wait() (*series.Result, error) {
	p.once.Do(func() {
		p.res, p.err = p.wait()
		p.wait = nil
	})
	return p.res, p.err
}
