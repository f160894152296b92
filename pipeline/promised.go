package pipeline

import (
	"context"
	"fmt"
)

// Settled is the outcome of a Future: either Err or Data is meaningful, never both.
// Err is the value the producer failed with, unmodified.
type Settled struct {
	Err  error
	Data interface{}
}

// Future delivers a single Settled value at some later point. A Future that is
// closed without sending is broken.
type Future <-chan Settled

// Go runs fn on its own goroutine and returns a Future for its result.
// A panic in fn settles the Future with an error.
func Go(fn func() (interface{}, error)) Future {
	ch := make(chan Settled, 1)
	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				ch <- Settled{Err: fmt.Errorf("pipeline: panic: %v", r)}
			}
		}()
		data, err := fn()
		if err != nil {
			ch <- Settled{Err: err}
			return
		}
		ch <- Settled{Data: data}
	}()
	return ch
}

// Resolved returns a Future already settled with v.
func Resolved(v interface{}) Future {
	ch := make(chan Settled, 1)
	ch <- Settled{Data: v}
	close(ch)
	return ch
}

// Rejected returns a Future already settled with err.
func Rejected(err error) Future {
	ch := make(chan Settled, 1)
	ch <- Settled{Err: err}
	close(ch)
	return ch
}

// Promised waits for f and returns its outcome as a value. It never fails
// itself: a nil or broken Future settles with ErrBrokenFuture and a done ctx
// settles with ctx.Err().
func Promised(ctx context.Context, f Future) Settled {
	if f == nil {
		return Settled{Err: ErrBrokenFuture}
	}
	select {
	case s, ok := <-f:
		if !ok {
			return Settled{Err: ErrBrokenFuture}
		}
		return s
	case <-ctx.Done():
		return Settled{Err: ctx.Err()}
	}
}
