// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/AxonFramework/extension-tracing-go/messaging/query"
)

// TraceableSubscriptionQueryResult records the lifecycle of a subscription
// query on a span: the initial result, every update and the cancellation,
// which also finishes the span.
type TraceableSubscriptionQueryResult[I, U any] struct {
	delegate query.SubscriptionQueryResult[I, U]
	span     *spanFinisher
	updates  query.Stream[U]
}

var _ query.SubscriptionQueryResult[any, any] = (*TraceableSubscriptionQueryResult[any, any])(nil)

// NewTraceableSubscriptionQueryResult wraps res, recording on span. The
// caller hands ownership of span over: it is finished by Cancel.
func NewTraceableSubscriptionQueryResult[I, U any](res query.SubscriptionQueryResult[I, U], span opentracing.Span) *TraceableSubscriptionQueryResult[I, U] {
	return newTraceableSubscriptionQueryResult(res, &spanFinisher{span: span})
}

func newTraceableSubscriptionQueryResult[I, U any](res query.SubscriptionQueryResult[I, U], span *spanFinisher) *TraceableSubscriptionQueryResult[I, U] {
	return &TraceableSubscriptionQueryResult[I, U]{
		delegate: res,
		span:     span,
		updates:  &tracedStream[U]{src: res.Updates(), span: span, event: EventUpdateReceived},
	}
}

// InitialResult implements query.SubscriptionQueryResult.
func (r *TraceableSubscriptionQueryResult[I, U]) InitialResult(ctx context.Context) (I, error) {
	r.span.event(EventInitialResultReceived)
	return r.delegate.InitialResult(ctx)
}

// Updates implements query.SubscriptionQueryResult.
func (r *TraceableSubscriptionQueryResult[I, U]) Updates() query.Stream[U] {
	return r.updates
}

// Cancel implements query.SubscriptionQueryResult.
func (r *TraceableSubscriptionQueryResult[I, U]) Cancel() bool {
	r.span.event(EventSubscriptionClosed)
	r.span.finish("", nil)
	return r.delegate.Cancel()
}
