// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package event provides an in-memory event bus.
package event

import (
	"context"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// Bus publishes events to every subscribed handler.
type Bus interface {
	// Publish delivers events, in order, to the subscribed handlers.
	Publish(ctx context.Context, events ...any)
	Subscribe(h messaging.MessageHandler) messaging.Registration
	RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration
	RegisterHandlerInterceptor(in messaging.HandlerInterceptor) messaging.Registration
}

// SimpleBus delivers events synchronously on the publishing goroutine. Each
// handler invocation runs within its own unit of work; handler failures are
// logged and do not stop delivery to the remaining handlers.
type SimpleBus struct {
	handlers             messaging.Registry[messaging.MessageHandler]
	dispatchInterceptors messaging.Registry[messaging.DispatchInterceptor]
	handlerInterceptors  messaging.Registry[messaging.HandlerInterceptor]
}

var _ Bus = (*SimpleBus)(nil)

// NewSimpleBus returns an event bus without subscribers.
func NewSimpleBus() *SimpleBus {
	return &SimpleBus{}
}

// Subscribe implements Bus.
func (b *SimpleBus) Subscribe(h messaging.MessageHandler) messaging.Registration {
	return b.handlers.Register(h)
}

// RegisterDispatchInterceptor implements Bus.
func (b *SimpleBus) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return b.dispatchInterceptors.Register(in)
}

// RegisterHandlerInterceptor implements Bus.
func (b *SimpleBus) RegisterHandlerInterceptor(in messaging.HandlerInterceptor) messaging.Registration {
	return b.handlerInterceptors.Register(in)
}

// Publish implements Bus. The dispatch interceptors see the whole batch.
func (b *SimpleBus) Publish(ctx context.Context, events ...any) {
	if len(events) == 0 {
		return
	}
	batch := make([]messaging.Message, len(events))
	for i, e := range events {
		batch[i] = messaging.ApplyCorrelationData(ctx, messaging.AsEventMessage(e))
	}
	for _, in := range b.dispatchInterceptors.Snapshot() {
		transform := in.Handle(ctx, batch)
		next := make([]messaging.Message, len(batch))
		for i, m := range batch {
			next[i] = transform(i, m)
		}
		batch = next
	}
	handlers := b.handlers.Snapshot()
	interceptors := b.handlerInterceptors.Snapshot()
	for _, m := range batch {
		for _, h := range handlers {
			uow := messaging.NewUnitOfWork(m)
			res := uow.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
				return messaging.NewInterceptorChain(uow, interceptors, h).Proceed(ctx)
			})
			if res.IsExceptional() {
				log.Warn("Event handler failed on event %s: %v", m.Identifier(), res.Exception())
			}
		}
	}
}
