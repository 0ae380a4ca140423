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
	"github.com/AxonFramework/extension-tracing-go/messaging/command"
)

// CommandGatewayConfig assembles a CommandGateway. Tracer and exactly one of
// DelegateBus and DelegateGateway are required.
type CommandGatewayConfig struct {
	Tracer opentracing.Tracer
	// DelegateBus is wrapped in a command.DefaultGateway running
	// DispatchInterceptors.
	DelegateBus          command.Bus
	DelegateGateway      command.Gateway
	DispatchInterceptors []messaging.DispatchInterceptor
	// Dispatch holds the operation name prefixes; empty ones keep their default.
	Dispatch   DispatchPrefixes
	TagService *TagService
}

func (c *CommandGatewayConfig) validate() error {
	if c.Tracer == nil {
		return &messaging.ConfigurationError{Msg: "a tracer is required to build a tracing command gateway"}
	}
	if (c.DelegateBus == nil) == (c.DelegateGateway == nil) {
		return &messaging.ConfigurationError{Msg: "exactly one of a delegate command bus or command gateway is required"}
	}
	if c.DelegateGateway != nil && len(c.DispatchInterceptors) > 0 {
		return &messaging.ConfigurationError{Msg: "dispatch interceptors apply to a delegate command bus only"}
	}
	return nil
}

// CommandGateway is a command.Gateway starting a client span for every
// command it sends. The span is finished once the result is available.
type CommandGateway struct {
	tracer   opentracing.Tracer
	delegate command.Gateway
	prefixes DispatchPrefixes
	tags     *TagService
}

var _ command.Gateway = (*CommandGateway)(nil)

// NewCommandGateway validates cfg and returns the gateway it describes.
func NewCommandGateway(cfg CommandGatewayConfig) (*CommandGateway, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := &CommandGateway{
		tracer:   cfg.Tracer,
		delegate: cfg.DelegateGateway,
		prefixes: cfg.Dispatch.withDefaults(),
		tags:     cfg.TagService,
	}
	if g.delegate == nil {
		g.delegate = command.NewDefaultGateway(cfg.DelegateBus, cfg.DispatchInterceptors...)
	}
	if g.tags == nil {
		g.tags = NewTagService(DefaultTagConfig())
	}
	return g, nil
}

func (g *CommandGateway) start(ctx context.Context, prefix string, cmd messaging.CommandMessage) (*spanFinisher, context.Context) {
	return startClientSpan(ctx, g.tracer, prefix+MessageName(cmd), g.tags.CommandTags(cmd))
}

// RegisterDispatchInterceptor implements command.Gateway.
func (g *CommandGateway) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return g.delegate.RegisterDispatchInterceptor(in)
}

// SendWithCallback implements command.Gateway. The span is finished before
// cb runs, on the goroutine reporting the result.
func (g *CommandGateway) SendWithCallback(ctx context.Context, cmd any, cb command.Callback) {
	msg := messaging.AsCommandMessage(cmd)
	span, ctx := g.start(ctx, g.prefixes.Command, msg)
	g.delegate.SendWithCallback(ctx, msg, finishing(span, cb))
}

// Send implements command.Gateway.
func (g *CommandGateway) Send(ctx context.Context, cmd any) *messaging.Future {
	f := messaging.NewFuture()
	g.SendWithCallback(ctx, cmd, command.FutureCallback(f))
	return f
}

// SendAndWait implements command.Gateway. When ctx is done before the
// result arrives the span is finished with the resulting error.
func (g *CommandGateway) SendAndWait(ctx context.Context, cmd any) (any, error) {
	msg := messaging.AsCommandMessage(cmd)
	span, spanCtx := g.start(ctx, g.prefixes.CommandAndWait, msg)
	f := messaging.NewFuture()
	g.delegate.SendWithCallback(spanCtx, msg, finishing(span, command.FutureCallback(f)))
	v, err := command.Await(ctx, f)
	span.finish("", err)
	return v, err
}

// SendAndWaitTimeout implements command.Gateway.
func (g *CommandGateway) SendAndWaitTimeout(ctx context.Context, cmd any, timeout time.Duration) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return g.SendAndWait(ctx, cmd)
}

func finishing(span *spanFinisher, cb command.Callback) command.Callback {
	if cb == nil {
		cb = command.NoOpCallback
	}
	return command.CallbackFunc(func(cmd messaging.CommandMessage, r messaging.ResultMessage) {
		span.finish(EventResultReceived, r.Exception())
		cb.OnResult(cmd, r)
	})
}
