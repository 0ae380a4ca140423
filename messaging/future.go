// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import (
	"context"
	"sync"
)

// Future is the pending result of an asynchronous dispatch. It is completed
// exactly once; later completions are ignored.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     any
	err       error
	callbacks []func(any, error)
}

// NewFuture returns a pending future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// CompletedFuture returns a future already completed with value and err.
func CompletedFuture(value any, err error) *Future {
	f := NewFuture()
	f.Complete(value, err)
	return f
}

// Complete resolves the future. Registered callbacks run on the calling
// goroutine before waiters are released. It reports whether this call
// completed the future.
func (f *Future) Complete(value any, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value, f.err = value, err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(value, err)
	}
	close(f.done)
	return true
}

// Done returns a channel closed once the future is complete.
func (f *Future) Done() <-chan struct{} { return f.done }

// IsDone reports whether the future is complete.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get waits for the future to complete or for ctx to be done.
func (f *Future) Get(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WhenComplete returns a future completed with the same outcome after fn
// observed it. When f is already complete fn runs on the calling goroutine.
func (f *Future) WhenComplete(fn func(value any, err error)) *Future {
	return f.Then(func(value any, err error) (any, error) {
		fn(value, err)
		return value, err
	})
}

// Then returns a future completed with the outcome of fn applied to the
// outcome of f.
func (f *Future) Then(fn func(value any, err error) (any, error)) *Future {
	next := NewFuture()
	f.onComplete(func(value any, err error) {
		next.Complete(fn(value, err))
	})
	return next
}

func (f *Future) onComplete(fn func(any, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	fn(value, err)
}
