// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// DispatchInterceptor propagates the span carried by the dispatching
// context into the metadata of outgoing messages. It never starts spans.
type DispatchInterceptor struct {
	tracer opentracing.Tracer
}

var _ messaging.DispatchInterceptor = (*DispatchInterceptor)(nil)

// NewDispatchInterceptor returns a DispatchInterceptor injecting with tracer.
func NewDispatchInterceptor(tracer opentracing.Tracer) *DispatchInterceptor {
	return &DispatchInterceptor{tracer: tracer}
}

// Handle implements messaging.DispatchInterceptor. Without a span in ctx
// messages pass through unchanged.
func (d *DispatchInterceptor) Handle(ctx context.Context, _ []messaging.Message) func(int, messaging.Message) messaging.Message {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return func(_ int, m messaging.Message) messaging.Message { return m }
	}
	sc := span.Context()
	return func(_ int, m messaging.Message) messaging.Message {
		carrier := NewMetaDataInjector()
		if err := d.tracer.Inject(sc, opentracing.TextMap, carrier); err != nil {
			log.Error("Failed to inject span context into message metadata: %v", err)
			return m
		}
		return m.AndMetaData(carrier.MetaData())
	}
}
