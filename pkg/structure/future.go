package structure

import (
	"context"
	"sync"

	"github.com/ajitpratap0/rowmap/pkg/errors"
)

// Future is the eventual result of an asynchronous read. A cancelled read
// completes with the partial value and a cancelled error.
type Future[T any] struct {
	done      chan struct{}
	mu        sync.Mutex
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete stores the result and runs callbacks on the calling goroutine.
// Later calls are ignored.
func (f *Future[T]) complete(v T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	close(f.done)
}

// onComplete registers cb. If the future already completed, cb runs now on
// the caller's goroutine.
func (f *Future[T]) onComplete(cb func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx ends. A ctx ending here
// does not stop the read; cancel the context passed to ReadAsync for that.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the value, whether the future has completed, and the
// error. It does not block.
func (f *Future[T]) Result() (T, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.completed, f.err
}

// IsCancelled reports whether the read completed in the cancelled state.
func (f *Future[T]) IsCancelled() bool {
	_, ok, err := f.Result()
	return ok && errors.IsCancelled(err)
}

// thenSync maps f's result with fn on the goroutine that completes f.
func thenSync[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	out := newFuture[U]()
	f.onComplete(func(v T, err error) {
		out.complete(fn(v, err))
	})
	return out
}

// runAsync starts one goroutine running fn and returns its future.
func runAsync[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		f.complete(fn())
	}()
	return f
}
