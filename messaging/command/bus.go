// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

type config struct {
	async bool
}

// Option configures a SimpleBus.
type Option func(*config)

// WithAsyncDispatch makes the bus handle every command on a new goroutine,
// so results are reported asynchronously.
func WithAsyncDispatch() Option {
	return func(cfg *config) {
		cfg.async = true
	}
}

// SimpleBus is an in-memory Bus. Each command is handled within its own
// unit of work.
type SimpleBus struct {
	cfg                  config
	mu                   sync.RWMutex // guards handlers
	handlers             map[string]*subscription
	dispatchInterceptors messaging.Registry[messaging.DispatchInterceptor]
	handlerInterceptors  messaging.Registry[messaging.HandlerInterceptor]
	wg                   sync.WaitGroup
}

var _ Bus = (*SimpleBus)(nil)

type subscription struct {
	handler messaging.MessageHandler
}

// NewSimpleBus returns an empty in-memory command bus.
func NewSimpleBus(opts ...Option) *SimpleBus {
	b := &SimpleBus{handlers: make(map[string]*subscription)}
	for _, fn := range opts {
		fn(&b.cfg)
	}
	return b
}

// Subscribe implements Bus. A second subscription for the same name
// replaces the first one.
func (b *SimpleBus) Subscribe(name string, h messaging.MessageHandler) messaging.Registration {
	sub := &subscription{handler: h}
	b.mu.Lock()
	if _, ok := b.handlers[name]; ok {
		log.Warn("Replacing the handler subscribed for command %q", name)
	}
	b.handlers[name] = sub
	b.mu.Unlock()
	return messaging.RegistrationFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.handlers[name] == sub {
			delete(b.handlers, name)
		}
	})
}

// RegisterDispatchInterceptor implements Bus.
func (b *SimpleBus) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return b.dispatchInterceptors.Register(in)
}

// RegisterHandlerInterceptor implements Bus.
func (b *SimpleBus) RegisterHandlerInterceptor(in messaging.HandlerInterceptor) messaging.Registration {
	return b.handlerInterceptors.Register(in)
}

// Dispatch implements Bus.
func (b *SimpleBus) Dispatch(ctx context.Context, cmd messaging.CommandMessage, cb Callback) {
	if cb == nil {
		cb = NoOpCallback
	}
	if out, ok := messaging.InterceptDispatch(ctx, b.dispatchInterceptors.Snapshot(), cmd).(messaging.CommandMessage); ok {
		cmd = out
	}
	b.mu.RLock()
	sub, ok := b.handlers[cmd.CommandName()]
	b.mu.RUnlock()
	if !ok {
		cb.OnResult(cmd, messaging.NewExceptionalResultMessage(
			fmt.Errorf("%w for command [%s]", messaging.ErrNoHandler, cmd.CommandName()), nil))
		return
	}
	log.Debug("Dispatching command [%s] (%s)", cmd.CommandName(), cmd.Identifier())
	h := sub.handler
	if !b.cfg.async {
		cb.OnResult(cmd, b.handle(ctx, cmd, h))
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		cb.OnResult(cmd, b.handle(ctx, cmd, h))
	}()
}

func (b *SimpleBus) handle(ctx context.Context, cmd messaging.CommandMessage, h messaging.MessageHandler) messaging.ResultMessage {
	uow := messaging.NewUnitOfWork(cmd)
	interceptors := b.handlerInterceptors.Snapshot()
	return uow.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return messaging.NewInterceptorChain(uow, interceptors, h).Proceed(ctx)
	})
}

// Wait blocks until every asynchronously dispatched command was handled.
func (b *SimpleBus) Wait() {
	b.wg.Wait()
}
