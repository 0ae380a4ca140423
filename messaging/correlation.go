// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "context"

const (
	// CorrelationIDKey is the metadata key holding the identifier of the
	// message that caused a message to be sent.
	CorrelationIDKey = "correlationId"
	// TraceIDKey is the metadata key holding the identifier of the message
	// that started a chain of messages.
	TraceIDKey = "traceId"
)

// CorrelationDataProvider returns the metadata to attach to messages created
// while m is handled.
type CorrelationDataProvider interface {
	CorrelationDataFor(ctx context.Context, m Message) map[string]any
}

// CorrelationDataProviderFunc adapts a function to a CorrelationDataProvider.
type CorrelationDataProviderFunc func(ctx context.Context, m Message) map[string]any

// CorrelationDataFor implements CorrelationDataProvider.
func (f CorrelationDataProviderFunc) CorrelationDataFor(ctx context.Context, m Message) map[string]any {
	return f(ctx, m)
}

// MessageOriginProvider links messages to the message that caused them and
// to the first message of their chain.
type MessageOriginProvider struct{}

// CorrelationDataFor implements CorrelationDataProvider.
func (MessageOriginProvider) CorrelationDataFor(_ context.Context, m Message) map[string]any {
	traceID, ok := m.MetaData()[TraceIDKey]
	if !ok {
		traceID = m.Identifier()
	}
	return map[string]any{
		CorrelationIDKey: m.Identifier(),
		TraceIDKey:       traceID,
	}
}

// NewCorrelationDataInterceptor returns a handler interceptor registering
// providers with every unit of work it intercepts.
func NewCorrelationDataInterceptor(providers ...CorrelationDataProvider) HandlerInterceptor {
	return HandlerInterceptorFunc(func(ctx context.Context, uow *UnitOfWork, chain InterceptorChain) (any, error) {
		for _, p := range providers {
			uow.RegisterCorrelationDataProvider(p)
		}
		return chain.Proceed(ctx)
	})
}

// ApplyCorrelationData merges the correlation data of the unit of work
// carried by ctx into m. Entries already present on m take precedence.
// Without a unit of work m is returned unchanged.
func ApplyCorrelationData[M Message](ctx context.Context, m M) M {
	uow, ok := CurrentUnitOfWork(ctx)
	if !ok {
		return m
	}
	md := uow.CorrelationData(ctx)
	if len(md) == 0 {
		return m
	}
	if out, ok := m.WithMetaData(md.MergedWith(m.MetaData())).(M); ok {
		return out
	}
	return m
}
