package future

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type state int

const (
	statePending state = iota
	stateFulfilled
	stateFailed
)

// Future is the read side of a deferred result.
// It is safe for concurrent use.
type Future[T any] struct {
	mu          sync.Mutex
	state       state
	value       T
	err         error
	callbacks   []func(T, error)
	dispatching bool
	done        chan struct{}
}

// Promise is the write side of a deferred result.
type Promise[T any] struct {
	future *Future[T]
}

// NewPromise creates a Promise holding a pending Future.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		future: &Future[T]{done: make(chan struct{})},
	}
}

// Future returns the Future controlled by this Promise.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// Fulfill settles the Future with a value.
// Returns false if the Future was already settled.
func (p *Promise[T]) Fulfill(value T) bool {
	return p.future.settle(value, nil)
}

// Fail settles the Future with an error.
// Returns false if the Future was already settled.
func (p *Promise[T]) Fail(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}
	var zero T
	return p.future.settle(zero, err)
}

// Settle fails the Future when err is non-nil and fulfills it with value otherwise.
func (p *Promise[T]) Settle(value T, err error) bool {
	if err != nil {
		return p.Fail(err)
	}
	return p.Fulfill(value)
}

// Fulfilled returns a Future already fulfilled with value.
func Fulfilled[T any](value T) *Future[T] {
	p := NewPromise[T]()
	p.Fulfill(value)
	return p.Future()
}

// Failed returns a Future already failed with err.
func Failed[T any](err error) *Future[T] {
	p := NewPromise[T]()
	p.Fail(err)
	return p.Future()
}

func (f *Future[T]) settle(value T, err error) bool {
	f.mu.Lock()
	if f.state != statePending {
		f.mu.Unlock()
		return false
	}
	f.value = value
	f.err = err
	if err != nil {
		f.state = stateFailed
	} else {
		f.state = stateFulfilled
	}
	f.dispatching = true
	close(f.done)
	f.mu.Unlock()

	f.drain()
	return true
}

// drain runs queued callbacks until none remain. Callbacks registered while a
// drain is in progress are queued behind earlier ones so registration order holds.
func (f *Future[T]) drain() {
	for {
		f.mu.Lock()
		if len(f.callbacks) == 0 {
			f.dispatching = false
			f.mu.Unlock()
			return
		}
		batch := f.callbacks
		f.callbacks = nil
		value, err := f.value, f.err
		f.mu.Unlock()

		for _, cb := range batch {
			invoke(cb, value, err)
		}
	}
}

func invoke[T any](cb func(T, error), value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("future callback panicked", "panic", r)
		}
	}()
	cb(value, err)
}

// OnSettled registers a callback that receives the outcome exactly once.
// Exactly one of the value or the error is meaningful: err is nil on success.
func (f *Future[T]) OnSettled(cb func(value T, err error)) {
	f.mu.Lock()
	if f.state == statePending || f.dispatching {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	invoke(cb, value, err)
}

// Done returns a channel that is closed once the Future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the Future has reached a terminal state.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != statePending
}

// Await blocks until the Future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Catch registers a failure handler. Successful outcomes pass through unchanged.
// The handler may recover by returning a value, or replace the error.
func (f *Future[T]) Catch(handler func(err error) (T, error)) *Future[T] {
	p := NewPromise[T]()
	f.OnSettled(func(value T, err error) {
		if err == nil {
			p.Fulfill(value)
			return
		}
		p.Settle(guard(func() (T, error) { return handler(err) }))
	})
	return p.Future()
}

// Then chains a dependent asynchronous step. The returned Future settles with the
// outcome of the Future produced by fn, so chains never nest.
// A failure of f skips fn and propagates unchanged.
func Then[T, U any](f *Future[T], fn func(T) *Future[U]) *Future[U] {
	p := NewPromise[U]()
	f.OnSettled(func(value T, err error) {
		if err != nil {
			p.Fail(err)
			return
		}
		next, err := guard(func() (*Future[U], error) { return fn(value), nil })
		if err != nil {
			p.Fail(err)
			return
		}
		if next == nil {
			p.Fail(ErrNilFuture)
			return
		}
		next.OnSettled(func(v U, err error) {
			p.Settle(v, err)
		})
	})
	return p.Future()
}

// Map chains a synchronous transformation. An error returned by fn fails the
// derived Future. A failure of f skips fn and propagates unchanged.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	p := NewPromise[U]()
	f.OnSettled(func(value T, err error) {
		if err != nil {
			p.Fail(err)
			return
		}
		p.Settle(guard(func() (U, error) { return fn(value) }))
	})
	return p.Future()
}

// guard runs fn and converts a panic into ErrPanic.
func guard[V any](fn func() (V, error)) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			value = zero
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
