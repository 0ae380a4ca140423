// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AxonFramework/extension-tracing-go/messaging"
	"github.com/AxonFramework/extension-tracing-go/messaging/command"
)

var registerBikeName = messaging.AsCommandMessage(registerBike{}).CommandName()

func newCommandGateway(t *testing.T, tracer opentracing.Tracer, bus command.Bus) *CommandGateway {
	t.Helper()
	bus.RegisterHandlerInterceptor(NewHandlerInterceptor(tracer))
	gw, err := NewCommandGateway(CommandGatewayConfig{
		Tracer:               tracer,
		DelegateBus:          bus,
		DispatchInterceptors: []messaging.DispatchInterceptor{NewDispatchInterceptor(tracer)},
	})
	require.NoError(t, err)
	return gw
}

func registerBikeHandler(context.Context, messaging.Message) (any, error) {
	return "registered", nil
}

func TestCommandGatewaySendAndWait(t *testing.T) {
	for name, opts := range map[string][]command.Option{
		"sync":  nil,
		"async": {command.WithAsyncDispatch()},
	} {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			tracer := mocktracer.New()
			bus := command.NewSimpleBus(opts...)
			bus.Subscribe(registerBikeName, messaging.HandlerFunc(registerBikeHandler))
			gw := newCommandGateway(t, tracer, bus)

			outer := tracer.StartSpan("outer")
			ctx := opentracing.ContextWithSpan(context.Background(), outer)

			v, err := gw.SendAndWait(ctx, registerBike{BikeID: "b1"})
			bus.Wait()
			require.NoError(t, err)
			assert.Equal(t, "registered", v)
			assert.Same(t, outer, opentracing.SpanFromContext(ctx), "caller's active span is unchanged")

			client := spanNamed(t, tracer, "sendAndWait_registerBike")
			assert.NotEmpty(t, client.Logs())
			assert.NotEmpty(t, client.Tags())
			assert.Equal(t, ext.SpanKindRPCClientEnum, client.Tag("span.kind"))
			assert.Equal(t, outer.Context().(mocktracer.MockSpanContext).SpanID, client.ParentID)
			assert.Equal(t, []string{EventResultReceived}, events(client))

			server := spanNamed(t, tracer, "handle_registerBike")
			assert.Equal(t, client.SpanContext.SpanID, server.ParentID)
			assert.Equal(t, client.SpanContext.TraceID, server.SpanContext.TraceID)
			outer.Finish()
		})
	}
}

func TestCommandGatewaySend(t *testing.T) {
	tracer := mocktracer.New()
	bus := command.NewSimpleBus()
	bus.Subscribe(registerBikeName, messaging.HandlerFunc(registerBikeHandler))
	gw := newCommandGateway(t, tracer, bus)

	v, err := gw.Send(context.Background(), registerBike{BikeID: "b2"}).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "registered", v)

	client := spanNamed(t, tracer, "send_registerBike")
	assert.Equal(t, 0, client.ParentID, "no active span: client span is a root")
	assert.Equal(t, "registerBike", client.Tag("axon.message.message-name"))
	server := spanNamed(t, tracer, "handle_registerBike")
	assert.Equal(t, client.SpanContext.SpanID, server.ParentID)
}

func TestCommandGatewaySendWithCallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	tracer := mocktracer.New()
	bus := command.NewSimpleBus(command.WithAsyncDispatch())
	bus.Subscribe(registerBikeName, messaging.HandlerFunc(registerBikeHandler))
	gw := newCommandGateway(t, tracer, bus)

	done := make(chan []string, 1)
	gw.SendWithCallback(context.Background(), registerBike{BikeID: "b3"}, command.CallbackFunc(func(_ messaging.CommandMessage, r messaging.ResultMessage) {
		var finished []string
		for _, s := range tracer.FinishedSpans() {
			finished = append(finished, s.OperationName)
		}
		done <- finished
	}))
	assert.ElementsMatch(t, []string{"handle_registerBike", "send_registerBike"}, <-done, "client span finishes before the callback runs")
	bus.Wait()
}

func TestCommandGatewayHandlerError(t *testing.T) {
	tracer := mocktracer.New()
	bus := command.NewSimpleBus()
	bus.Subscribe(registerBikeName, messaging.HandlerFunc(func(context.Context, messaging.Message) (any, error) {
		return nil, assert.AnError
	}))
	gw := newCommandGateway(t, tracer, bus)

	_, err := gw.SendAndWait(context.Background(), registerBike{BikeID: "b4"})
	assert.Same(t, assert.AnError, err)

	client := spanNamed(t, tracer, "sendAndWait_registerBike")
	assert.Equal(t, true, client.Tag("error"))
	assert.Equal(t, []string{EventResultReceived, "error"}, events(client))
	assert.Equal(t, true, spanNamed(t, tracer, "handle_registerBike").Tag("error"))
}

func TestCommandGatewayTimeout(t *testing.T) {
	tracer := mocktracer.New()
	bus := command.NewSimpleBus(command.WithAsyncDispatch())
	release := make(chan struct{})
	bus.Subscribe(registerBikeName, messaging.HandlerFunc(func(context.Context, messaging.Message) (any, error) {
		<-release
		return "late", nil
	}))
	gw := newCommandGateway(t, tracer, bus)

	_, err := gw.SendAndWaitTimeout(context.Background(), registerBike{BikeID: "b5"}, 10*time.Millisecond)
	var cee *messaging.CommandExecutionError
	require.ErrorAs(t, err, &cee)

	client := spanNamed(t, tracer, "sendAndWait_registerBike")
	assert.Equal(t, true, client.Tag("error"))

	close(release)
	bus.Wait()
	assert.Len(t, tracer.FinishedSpans(), 2, "the late result does not finish the client span again")
}

func TestCommandGatewayDelegateGateway(t *testing.T) {
	tracer := mocktracer.New()
	bus := command.NewSimpleBus()
	bus.Subscribe(registerBikeName, messaging.HandlerFunc(registerBikeHandler))
	bus.RegisterHandlerInterceptor(NewHandlerInterceptor(tracer))
	delegate := command.NewDefaultGateway(bus)

	gw, err := NewCommandGateway(CommandGatewayConfig{
		Tracer:          tracer,
		DelegateGateway: delegate,
		Dispatch:        DispatchPrefixes{CommandAndWait: "fire_"},
	})
	require.NoError(t, err)
	gw.RegisterDispatchInterceptor(NewDispatchInterceptor(tracer))

	_, err = gw.SendAndWait(context.Background(), registerBike{BikeID: "b6"})
	require.NoError(t, err)
	client := spanNamed(t, tracer, "fire_registerBike")
	assert.Equal(t, client.SpanContext.SpanID, spanNamed(t, tracer, "handle_registerBike").ParentID)
}

func TestCommandGatewayConfig(t *testing.T) {
	tracer := mocktracer.New()
	bus := command.NewSimpleBus()
	for name, cfg := range map[string]CommandGatewayConfig{
		"missing tracer":   {DelegateBus: bus},
		"missing delegate": {Tracer: tracer},
		"both delegates":   {Tracer: tracer, DelegateBus: bus, DelegateGateway: command.NewDefaultGateway(bus)},
		"interceptors without bus": {
			Tracer:               tracer,
			DelegateGateway:      command.NewDefaultGateway(bus),
			DispatchInterceptors: []messaging.DispatchInterceptor{NewDispatchInterceptor(tracer)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			gw, err := NewCommandGateway(cfg)
			assert.Nil(t, gw)
			var cerr *messaging.ConfigurationError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}
