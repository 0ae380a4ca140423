// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package query

import (
	"context"
	"sync"
)

// SubscriptionQueryResult is the outcome of a subscription query: an initial
// result followed by a stream of updates lasting until Cancel.
type SubscriptionQueryResult[I, U any] interface {
	// InitialResult returns the result of the query at subscription time.
	InitialResult(ctx context.Context) (I, error)
	// Updates returns the stream of updates emitted for the query.
	Updates() Stream[U]
	// Cancel ends the subscription. It reports whether it was still active.
	Cancel() bool
}

// NewSubscriptionQueryResult assembles a SubscriptionQueryResult. The initial
// result is computed once, on the first call to InitialResult.
func NewSubscriptionQueryResult[I, U any](initial func(ctx context.Context) (I, error), updates Stream[U], cancel func() bool) SubscriptionQueryResult[I, U] {
	return &subscriptionQueryResult[I, U]{initial: initial, updates: updates, cancel: cancel}
}

type subscriptionQueryResult[I, U any] struct {
	initial func(ctx context.Context) (I, error)
	updates Stream[U]
	cancel  func() bool

	once sync.Once
	res  I
	err  error
}

func (r *subscriptionQueryResult[I, U]) InitialResult(ctx context.Context) (I, error) {
	r.once.Do(func() {
		r.res, r.err = r.initial(ctx)
	})
	return r.res, r.err
}

func (r *subscriptionQueryResult[I, U]) Updates() Stream[U] { return r.updates }

func (r *subscriptionQueryResult[I, U]) Cancel() bool { return r.cancel() }
