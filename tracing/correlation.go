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

// CorrelationDataProvider adds the span context of the span carried by the
// dispatching context to the correlation data of a unit of work, so messages
// sent from a handler continue its trace.
type CorrelationDataProvider struct {
	tracer opentracing.Tracer
}

var _ messaging.CorrelationDataProvider = (*CorrelationDataProvider)(nil)

// NewCorrelationDataProvider returns a provider injecting with tracer.
func NewCorrelationDataProvider(tracer opentracing.Tracer) *CorrelationDataProvider {
	return &CorrelationDataProvider{tracer: tracer}
}

// CorrelationDataFor implements messaging.CorrelationDataProvider.
func (p *CorrelationDataProvider) CorrelationDataFor(ctx context.Context, _ messaging.Message) map[string]any {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return nil
	}
	carrier := NewMetaDataInjector()
	if err := p.tracer.Inject(span.Context(), opentracing.TextMap, carrier); err != nil {
		log.Error("Failed to inject span context into correlation data: %v", err)
		return nil
	}
	return carrier.MetaData()
}
