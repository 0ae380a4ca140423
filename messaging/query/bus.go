// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package query

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

type config struct {
	concurrency int
}

// Option configures a SimpleBus.
type Option func(*config)

// WithScatterGatherConcurrency bounds the number of handlers a scatter-gather
// query runs at once. A value lower than one removes the bound.
func WithScatterGatherConcurrency(n int) Option {
	return func(cfg *config) {
		cfg.concurrency = n
	}
}

// SimpleBus is an in-memory Bus. Every handler invocation runs within its
// own unit of work.
type SimpleBus struct {
	cfg                  config
	mu                   sync.RWMutex // guards handlers
	handlers             map[string][]*subscription
	emitter              *UpdateEmitter
	dispatchInterceptors messaging.Registry[messaging.DispatchInterceptor]
	handlerInterceptors  messaging.Registry[messaging.HandlerInterceptor]
}

var _ Bus = (*SimpleBus)(nil)

type subscription struct {
	handler messaging.MessageHandler
}

// NewSimpleBus returns an empty in-memory query bus.
func NewSimpleBus(opts ...Option) *SimpleBus {
	b := &SimpleBus{
		cfg:      config{concurrency: -1},
		handlers: make(map[string][]*subscription),
		emitter:  NewUpdateEmitter(),
	}
	for _, fn := range opts {
		fn(&b.cfg)
	}
	return b
}

// Subscribe implements Bus.
func (b *SimpleBus) Subscribe(name string, h messaging.MessageHandler) messaging.Registration {
	sub := &subscription{handler: h}
	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], sub)
	b.mu.Unlock()
	return messaging.RegistrationFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[name]
		for i, s := range subs {
			if s == sub {
				b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.handlers[name]) == 0 {
			delete(b.handlers, name)
		}
	})
}

// UpdateEmitter implements Bus.
func (b *SimpleBus) UpdateEmitter() *UpdateEmitter { return b.emitter }

// RegisterDispatchInterceptor implements Bus.
func (b *SimpleBus) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return b.dispatchInterceptors.Register(in)
}

// RegisterHandlerInterceptor implements Bus.
func (b *SimpleBus) RegisterHandlerInterceptor(in messaging.HandlerInterceptor) messaging.Registration {
	return b.handlerInterceptors.Register(in)
}

func (b *SimpleBus) intercept(ctx context.Context, q messaging.QueryMessage) messaging.QueryMessage {
	if out, ok := messaging.InterceptDispatch(ctx, b.dispatchInterceptors.Snapshot(), q).(messaging.QueryMessage); ok {
		return out
	}
	return q
}

func (b *SimpleBus) subscriptions(name string) ([]*subscription, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.handlers[name]
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w for query [%s]", messaging.ErrNoHandler, name)
	}
	return subs, nil
}

func (b *SimpleBus) handle(ctx context.Context, q messaging.QueryMessage, h messaging.MessageHandler) messaging.ResultMessage {
	uow := messaging.NewUnitOfWork(q)
	interceptors := b.handlerInterceptors.Snapshot()
	return uow.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return messaging.NewInterceptorChain(uow, interceptors, h).Proceed(ctx)
	})
}

// Query implements Bus.
func (b *SimpleBus) Query(ctx context.Context, q messaging.QueryMessage) *messaging.Future {
	q = b.intercept(ctx, q)
	subs, err := b.subscriptions(q.QueryName())
	if err != nil {
		return messaging.CompletedFuture(nil, err)
	}
	return messaging.CompletedFuture(b.handle(ctx, q, subs[0].handler), nil)
}

// ScatterGather implements Bus. Failing handlers are logged and left out of
// the stream, as are handlers still running when timeout elapses.
func (b *SimpleBus) ScatterGather(ctx context.Context, q messaging.QueryMessage, timeout time.Duration) Stream[messaging.ResultMessage] {
	q = b.intercept(ctx, q)
	subs, err := b.subscriptions(q.QueryName())
	if err != nil {
		log.Debug("Scatter-gather query [%s] has no handlers", q.QueryName())
		return SliceStream[messaging.ResultMessage]()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu        sync.Mutex
		collected []messaging.ResultMessage
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(b.cfg.concurrency)
		for _, sub := range subs {
			g.Go(func() error {
				res := b.handle(ctx, q, sub.handler)
				if res.IsExceptional() {
					log.Warn("Handler of scatter-gather query [%s] failed: %v", q.QueryName(), res.Exception())
					return nil
				}
				mu.Lock()
				collected = append(collected, res)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Debug("Scatter-gather query [%s] timed out, returning the results gathered so far", q.QueryName())
	}
	mu.Lock()
	defer mu.Unlock()
	return SliceStream(append([]messaging.ResultMessage(nil), collected...)...)
}

// StreamingQuery implements Bus. Handlers returning a Stream[any] have it
// forwarded, slices and arrays are streamed element by element and any
// other result is streamed as a single element.
func (b *SimpleBus) StreamingQuery(ctx context.Context, q messaging.QueryMessage) Stream[messaging.ResultMessage] {
	q = b.intercept(ctx, q)
	subs, err := b.subscriptions(q.QueryName())
	if err != nil {
		return ErrorStream[messaging.ResultMessage](err)
	}
	res := b.handle(ctx, q, subs[0].handler)
	if res.IsExceptional() {
		return ErrorStream[messaging.ResultMessage](res.Exception())
	}
	return asResultStream(res.Payload())
}

func asResultStream(payload any) Stream[messaging.ResultMessage] {
	if s, ok := payload.(Stream[any]); ok {
		return MapStream(s, func(v any) (messaging.ResultMessage, error) {
			return messaging.AsResultMessage(v), nil
		})
	}
	rv := reflect.ValueOf(payload)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return SliceStream(messaging.AsResultMessage(payload))
	}
	out := make([]messaging.ResultMessage, rv.Len())
	for i := range out {
		out[i] = messaging.AsResultMessage(rv.Index(i).Interface())
	}
	return SliceStream(out...)
}

// SubscriptionQuery implements Bus. The subscription is registered before
// the initial result is computed so no update is lost in between.
func (b *SimpleBus) SubscriptionQuery(ctx context.Context, q messaging.QueryMessage, bufferSize int) SubscriptionQueryResult[messaging.ResultMessage, messaging.ResultMessage] {
	q = b.intercept(ctx, q)
	sub := b.emitter.subscribe(q, bufferSize)
	initial := func(ctx context.Context) (messaging.ResultMessage, error) {
		subs, err := b.subscriptions(q.QueryName())
		if err != nil {
			return nil, err
		}
		return b.handle(ctx, q, subs[0].handler), nil
	}
	return NewSubscriptionQueryResult[messaging.ResultMessage, messaging.ResultMessage](initial, sub, sub.cancel)
}
