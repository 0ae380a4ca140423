// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/AxonFramework/extension-tracing-go/messaging"
	"github.com/AxonFramework/extension-tracing-go/messaging/query"
)

// QueryGatewayConfig assembles a QueryGateway. Tracer and exactly one of
// DelegateBus and DelegateGateway are required.
type QueryGatewayConfig struct {
	Tracer opentracing.Tracer
	// DelegateBus is wrapped in a query.DefaultGateway running
	// DispatchInterceptors.
	DelegateBus          query.Bus
	DelegateGateway      query.Gateway
	DispatchInterceptors []messaging.DispatchInterceptor
	// Dispatch holds the operation name prefixes; empty ones keep their default.
	Dispatch   DispatchPrefixes
	TagService *TagService
}

func (c *QueryGatewayConfig) validate() error {
	if c.Tracer == nil {
		return &messaging.ConfigurationError{Msg: "a tracer is required to build a tracing query gateway"}
	}
	if (c.DelegateBus == nil) == (c.DelegateGateway == nil) {
		return &messaging.ConfigurationError{Msg: "exactly one of a delegate query bus or query gateway is required"}
	}
	if c.DelegateGateway != nil && len(c.DispatchInterceptors) > 0 {
		return &messaging.ConfigurationError{Msg: "dispatch interceptors apply to a delegate query bus only"}
	}
	return nil
}

// QueryGateway is a query.Gateway starting a client span for every query it
// sends. Point-to-point query spans finish with the result, streamed query
// spans when the stream ends and subscription query spans on cancellation.
type QueryGateway struct {
	tracer   opentracing.Tracer
	delegate query.Gateway
	prefixes DispatchPrefixes
	tags     *TagService
}

var _ query.Gateway = (*QueryGateway)(nil)

// NewQueryGateway validates cfg and returns the gateway it describes.
func NewQueryGateway(cfg QueryGatewayConfig) (*QueryGateway, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := &QueryGateway{
		tracer:   cfg.Tracer,
		delegate: cfg.DelegateGateway,
		prefixes: cfg.Dispatch.withDefaults(),
		tags:     cfg.TagService,
	}
	if g.delegate == nil {
		g.delegate = query.NewDefaultGateway(cfg.DelegateBus, cfg.DispatchInterceptors...)
	}
	if g.tags == nil {
		g.tags = NewTagService(DefaultTagConfig())
	}
	return g, nil
}

func (g *QueryGateway) start(ctx context.Context, prefix, name string, q any) (messaging.QueryMessage, *spanFinisher, context.Context) {
	msg := messaging.AsQueryMessage(name, q)
	span, ctx := startClientSpan(ctx, g.tracer, prefix+MessageName(msg), g.tags.QueryTags(msg))
	return msg, span, ctx
}

// RegisterDispatchInterceptor implements query.Gateway.
func (g *QueryGateway) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return g.delegate.RegisterDispatchInterceptor(in)
}

// Query implements query.Gateway. The returned future completes after the
// span is finished.
func (g *QueryGateway) Query(ctx context.Context, name string, q any) *messaging.Future {
	msg, span, ctx := g.start(ctx, g.prefixes.Query, name, q)
	return g.delegate.Query(ctx, msg.QueryName(), msg).WhenComplete(func(_ any, err error) {
		span.finish(EventResultReceived, err)
	})
}

// ScatterGather implements query.Gateway.
func (g *QueryGateway) ScatterGather(ctx context.Context, name string, q any, timeout time.Duration) query.Stream[any] {
	msg, span, ctx := g.start(ctx, g.prefixes.ScatterGather, name, q)
	res := g.delegate.ScatterGather(ctx, msg.QueryName(), msg, timeout)
	return &tracedStream[any]{src: res, span: span, event: EventResultReceived, finishOnEnd: true}
}

// StreamingQuery implements query.Gateway.
func (g *QueryGateway) StreamingQuery(ctx context.Context, name string, q any) query.Stream[any] {
	msg, span, ctx := g.start(ctx, g.prefixes.StreamingQuery, name, q)
	res := g.delegate.StreamingQuery(ctx, msg.QueryName(), msg)
	return &tracedStream[any]{src: res, span: span, event: EventResultReceived, finishOnEnd: true}
}

// SubscriptionQuery implements query.Gateway.
func (g *QueryGateway) SubscriptionQuery(ctx context.Context, name string, q any, bufferSize int) query.SubscriptionQueryResult[any, any] {
	msg, span, ctx := g.start(ctx, g.prefixes.SubscriptionQuery, name, q)
	res := g.delegate.SubscriptionQuery(ctx, msg.QueryName(), msg, bufferSize)
	return newTraceableSubscriptionQueryResult(res, span)
}
