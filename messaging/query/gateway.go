// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package query

import (
	"context"
	"time"

	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// DefaultGateway is a Gateway sending queries on a Bus.
type DefaultGateway struct {
	bus          Bus
	interceptors messaging.Registry[messaging.DispatchInterceptor]
}

var _ Gateway = (*DefaultGateway)(nil)

// NewDefaultGateway returns a gateway dispatching on bus. The interceptors
// run, in order, on every query before it reaches the bus.
func NewDefaultGateway(bus Bus, interceptors ...messaging.DispatchInterceptor) *DefaultGateway {
	g := &DefaultGateway{bus: bus}
	for _, in := range interceptors {
		g.interceptors.Register(in)
	}
	return g
}

// RegisterDispatchInterceptor implements Gateway.
func (g *DefaultGateway) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return g.interceptors.Register(in)
}

func (g *DefaultGateway) prepare(ctx context.Context, name string, query any) messaging.QueryMessage {
	q := messaging.ApplyCorrelationData(ctx, messaging.AsQueryMessage(name, query))
	if out, ok := messaging.InterceptDispatch(ctx, g.interceptors.Snapshot(), q).(messaging.QueryMessage); ok {
		return out
	}
	return q
}

// Query implements Gateway.
func (g *DefaultGateway) Query(ctx context.Context, name string, query any) *messaging.Future {
	return g.bus.Query(ctx, g.prepare(ctx, name, query)).Then(func(v any, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		return PayloadOf(v.(messaging.ResultMessage))
	})
}

// ScatterGather implements Gateway.
func (g *DefaultGateway) ScatterGather(ctx context.Context, name string, query any, timeout time.Duration) Stream[any] {
	return MapStream(g.bus.ScatterGather(ctx, g.prepare(ctx, name, query), timeout), PayloadOf)
}

// StreamingQuery implements Gateway.
func (g *DefaultGateway) StreamingQuery(ctx context.Context, name string, query any) Stream[any] {
	return MapStream(g.bus.StreamingQuery(ctx, g.prepare(ctx, name, query)), PayloadOf)
}

// SubscriptionQuery implements Gateway.
func (g *DefaultGateway) SubscriptionQuery(ctx context.Context, name string, query any, bufferSize int) SubscriptionQueryResult[any, any] {
	res := g.bus.SubscriptionQuery(ctx, g.prepare(ctx, name, query), bufferSize)
	initial := func(ctx context.Context) (any, error) {
		r, err := res.InitialResult(ctx)
		if err != nil {
			return nil, err
		}
		return PayloadOf(r)
	}
	return NewSubscriptionQueryResult[any, any](initial, MapStream(res.Updates(), PayloadOf), res.Cancel)
}
