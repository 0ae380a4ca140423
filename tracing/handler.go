// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"errors"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

type config struct {
	tags     *TagService
	prefixes OperationNamePrefix
}

// Option represents an option that can be passed to NewHandlerInterceptor.
type Option func(*config)

func defaults(cfg *config) {
	cfg.tags = NewTagService(DefaultTagConfig())
	cfg.prefixes = DefaultProperties().Handle
}

// WithTagService sets the TagService computing the tags of server spans.
func WithTagService(s *TagService) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.tags = s
		}
	}
}

// WithHandlePrefixes sets the operation name prefixes of server spans.
// Empty prefixes keep their default.
func WithHandlePrefixes(p OperationNamePrefix) Option {
	return func(cfg *config) {
		cfg.prefixes = p.withDefaults()
	}
}

// HandlerInterceptor wraps the handling of every message in a server span,
// child of the span context found in the message metadata. The span is
// active during handling and finished when the unit of work cleans up.
type HandlerInterceptor struct {
	tracer opentracing.Tracer
	cfg    config
}

var _ messaging.HandlerInterceptor = (*HandlerInterceptor)(nil)

// NewHandlerInterceptor returns a HandlerInterceptor starting spans with tracer.
func NewHandlerInterceptor(tracer opentracing.Tracer, opts ...Option) *HandlerInterceptor {
	h := &HandlerInterceptor{tracer: tracer}
	defaults(&h.cfg)
	for _, fn := range opts {
		fn(&h.cfg)
	}
	return h
}

// Handle implements messaging.HandlerInterceptor.
func (h *HandlerInterceptor) Handle(ctx context.Context, uow *messaging.UnitOfWork, chain messaging.InterceptorChain) (any, error) {
	m := uow.Message()
	opts := []opentracing.StartSpanOption{ext.SpanKindRPCServer, h.cfg.tags.Tags(m)}
	if parent := h.extract(m); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent))
	}
	span := h.tracer.StartSpan(h.operationName(m), opts...)

	var once sync.Once
	uow.OnRollback(func(u *messaging.UnitOfWork) {
		if err := u.RollbackCause(); err != nil {
			ext.LogError(span, err)
		}
	})
	uow.OnCleanup(func(*messaging.UnitOfWork) {
		once.Do(span.Finish)
	})
	return chain.Proceed(opentracing.ContextWithSpan(ctx, span))
}

func (h *HandlerInterceptor) extract(m messaging.Message) opentracing.SpanContext {
	sc, err := h.tracer.Extract(opentracing.TextMap, NewMetaDataExtractor(m.MetaData()))
	switch {
	case err == nil:
		return sc
	case errors.Is(err, opentracing.ErrSpanContextNotFound):
		log.Debug("No span context in message %s, starting a new trace", m.Identifier())
	default:
		log.Warn("Invalid span context in message %s, starting a new trace: %v", m.Identifier(), err)
	}
	return nil
}

func (h *HandlerInterceptor) operationName(m messaging.Message) string {
	prefix := h.cfg.prefixes.Command
	switch m.(type) {
	case messaging.QueryMessage:
		prefix = h.cfg.prefixes.Query
	case messaging.EventMessage:
		prefix = h.cfg.prefixes.Event
	}
	return prefix + MessageName(m)
}
