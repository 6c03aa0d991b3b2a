package bfilter

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Status is the state a [Deferred] reports when it is polled.
type Status int

const (
	// Pending means no value is available yet. The producer has arranged for the waker to be called once
	// polling again can make progress.
	Pending Status = iota
	// Ready means the value is available.
	Ready
	// Failed means the work terminated with an error.
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// Poll is the result of polling a [Deferred] once.
type Poll[T any] struct {
	status Status
	value  T
	err    error
}

// PendingPoll reports that the value is not yet available.
func PendingPoll[T any]() Poll[T] { return Poll[T]{status: Pending} }

// ReadyPoll reports that v is available.
func ReadyPoll[T any](v T) Poll[T] { return Poll[T]{status: Ready, value: v} }

// FailedPoll reports that the work failed with err.
func FailedPoll[T any](err error) Poll[T] { return Poll[T]{status: Failed, err: err} }

// Status returns the state reported by the poll.
func (p Poll[T]) Status() Status { return p.status }

// Value returns the ready value, or the zero value when not ready.
func (p Poll[T]) Value() T { return p.value }

// Err returns the failure, or nil when not failed.
func (p Poll[T]) Err() error { return p.err }

func (p Poll[T]) String() string { return p.status.String() }

// Deferred is a unit of work that is driven to completion by polling it repeatedly. Once it reported Ready or
// Failed, polling it again reports the same result.
type Deferred[T any] interface {
	Poll(w *Waker) Poll[T]
}

// DeferredFunc allows casting a function to implement [Deferred].
type DeferredFunc[T any] func(w *Waker) Poll[T]

// Poll implements the [Deferred] interface.
func (f DeferredFunc[T]) Poll(w *Waker) Poll[T] { return f(w) }

// Discarder is implemented by deferred values that hold resources. Discard is called by the driver when a pending
// value is abandoned, it must release any partial buffer and any reference to the underlying stream.
type Discarder interface {
	Discard()
}

// Discard releases d's resources if it holds any.
func Discard(d any) {
	if dd, ok := d.(Discarder); ok {
		dd.Discard()
	}
}

// Waker is handed to every poll. A producer that reports Pending calls Wake once polling again can make
// progress. Multiple wakes before the driver observes them coalesce into one.
type Waker struct {
	ch chan struct{}
}

// NewWaker inits a waker.
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

// Wake signals the driver to poll again. It never blocks.
func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// C returns the channel the driver parks on.
func (w *Waker) C() <-chan struct{} { return w.ch }

// immediate is a deferred value that is ready from the start.
type immediate[T any] struct{ v T }

func (d immediate[T]) Poll(*Waker) Poll[T] { return ReadyPoll(d.v) }

// Immediate returns a deferred value that is always ready with v.
func Immediate[T any](v T) Deferred[T] { return immediate[T]{v} }

// mapped applies a transform once the inner deferred is ready.
type mapped[T, R any] struct {
	inner Deferred[T]
	fn    func(T) R
	done  *Poll[R]
}

func (d *mapped[T, R]) Poll(w *Waker) Poll[R] {
	if d.done != nil {
		return *d.done
	}

	p := d.inner.Poll(w)
	switch p.Status() {
	case Pending:
		return PendingPoll[R]()
	case Failed:
		res := FailedPoll[R](p.Err())
		d.done = &res
	default:
		res := ReadyPoll(d.fn(p.Value()))
		d.done = &res
	}

	return *d.done
}

func (d *mapped[T, R]) Discard() {
	if d.done == nil {
		Discard(d.inner)
	}
}

// MapDeferred returns a deferred value that applies fn to the eventual value of d. Pending and failure propagate
// unchanged.
func MapDeferred[T, R any](d Deferred[T], fn func(T) R) Deferred[R] {
	return &mapped[T, R]{inner: d, fn: fn}
}

// Await is the driver: it polls d until it is ready or failed, parking on the waker in between. When ctx is done
// before that, d is discarded and the context error is returned.
func Await[T any](ctx context.Context, d Deferred[T]) (T, error) {
	w := NewWaker()
	for {
		p := d.Poll(w)
		switch p.Status() {
		case Ready:
			return p.Value(), nil
		case Failed:
			var zero T
			return zero, p.Err()
		}

		select {
		case <-w.C():
		case <-ctx.Done():
			Discard(d)

			var zero T
			return zero, errors.Wrap(ctx.Err(), "await deferred value")
		}
	}
}
