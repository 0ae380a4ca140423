// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package tracing instruments the command, query and event buses with
// OpenTracing spans.
//
// Gateways start client spans around every dispatch, the DispatchInterceptor
// writes the span context found in the dispatching context.Context into the
// metadata of outgoing messages, and the HandlerInterceptor continues the
// trace on the handling side with a server span that lives as long as the
// unit of work of the message. The active span is always the one carried by
// the context.Context handed down the call chain, so callers observe their
// own span again as soon as a call returns.
//
// Configure wires all of it onto existing buses:
//
//	components, err := tracing.Configure(tracing.Configuration{
//		Tracer:     opentracing.GlobalTracer(),
//		Properties: props,
//		CommandBus: commandBus,
//		QueryBus:   queryBus,
//		EventBus:   eventBus,
//	})
package tracing

import "github.com/AxonFramework/extension-tracing-go/internal/log"

// Logger implementations are able to log given messages that the tracing
// package might output.
type Logger = log.Logger

// UseLogger sets l as the logger of the tracing package and returns a
// function restoring the previous one.
func UseLogger(l Logger) (undo func()) {
	return log.UseLogger(l)
}
