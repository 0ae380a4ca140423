// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package query provides the query bus and the query gateway, supporting
// point-to-point, scatter-gather, streaming and subscription queries.
package query

import (
	"context"
	"time"

	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// Bus dispatches queries to the handlers subscribed for their name.
type Bus interface {
	// Query sends q to a single handler. The future completes with the
	// messaging.ResultMessage of the handler, or with an error when no
	// handler is subscribed.
	Query(ctx context.Context, q messaging.QueryMessage) *messaging.Future
	// ScatterGather sends q to every handler and streams the successful
	// results gathered within timeout.
	ScatterGather(ctx context.Context, q messaging.QueryMessage, timeout time.Duration) Stream[messaging.ResultMessage]
	// StreamingQuery sends q to a single handler and streams its results.
	StreamingQuery(ctx context.Context, q messaging.QueryMessage) Stream[messaging.ResultMessage]
	// SubscriptionQuery sends q to a single handler for the initial result
	// and subscribes to the updates emitted for it afterwards.
	SubscriptionQuery(ctx context.Context, q messaging.QueryMessage, bufferSize int) SubscriptionQueryResult[messaging.ResultMessage, messaging.ResultMessage]
	// Subscribe registers h as a handler of queries named name.
	Subscribe(name string, h messaging.MessageHandler) messaging.Registration
	// UpdateEmitter returns the emitter feeding subscription queries.
	UpdateEmitter() *UpdateEmitter
	RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration
	RegisterHandlerInterceptor(in messaging.HandlerInterceptor) messaging.Registration
}

// Gateway is the convenience interface for sending queries. An empty query
// name defaults to the fully qualified type name of the query payload.
// Results are the payloads of the handlers' result messages.
type Gateway interface {
	Query(ctx context.Context, name string, query any) *messaging.Future
	ScatterGather(ctx context.Context, name string, query any, timeout time.Duration) Stream[any]
	StreamingQuery(ctx context.Context, name string, query any) Stream[any]
	SubscriptionQuery(ctx context.Context, name string, query any, bufferSize int) SubscriptionQueryResult[any, any]
	RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration
}

// PayloadOf returns the payload of r, or its exception.
func PayloadOf(r messaging.ResultMessage) (any, error) {
	if r.IsExceptional() {
		return nil, r.Exception()
	}
	return r.Payload(), nil
}
