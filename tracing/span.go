// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
)

// Events logged on client spans.
const (
	EventResultReceived        = "resultReceived"
	EventInitialResultReceived = "initialResultReceived"
	EventUpdateReceived        = "updateReceived"
	EventSubscriptionClosed    = "subscriptionClosed"
)

// startClientSpan starts a client span for operation, child of the span
// carried by ctx if any. The returned context carries the new span; ctx
// itself is left untouched.
func startClientSpan(ctx context.Context, tracer opentracing.Tracer, operation string, tags opentracing.Tags) (*spanFinisher, context.Context) {
	opts := []opentracing.StartSpanOption{ext.SpanKindRPCClient, tags}
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := tracer.StartSpan(operation, opts...)
	return &spanFinisher{span: span}, opentracing.ContextWithSpan(ctx, span)
}

// spanFinisher finishes a span exactly once and drops the events logged
// after that.
type spanFinisher struct {
	span opentracing.Span

	mu       sync.Mutex
	finished bool
}

func (f *spanFinisher) event(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return
	}
	f.span.LogFields(otlog.String("event", name))
}

// finish logs event unless it is empty, marks the span as failed when err is
// not nil and finishes it. It reports whether this call finished the span.
func (f *spanFinisher) finish(event string, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return false
	}
	f.finished = true
	if event != "" {
		f.span.LogFields(otlog.String("event", event))
	}
	if err != nil {
		ext.LogError(f.span, err)
	}
	f.span.Finish()
	return true
}
