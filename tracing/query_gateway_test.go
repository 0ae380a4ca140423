// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AxonFramework/extension-tracing-go/messaging"
	"github.com/AxonFramework/extension-tracing-go/messaging/query"
)

func newQueryGateway(t *testing.T, tracer opentracing.Tracer, bus query.Bus) *QueryGateway {
	t.Helper()
	bus.RegisterHandlerInterceptor(NewHandlerInterceptor(tracer))
	gw, err := NewQueryGateway(QueryGatewayConfig{
		Tracer:               tracer,
		DelegateBus:          bus,
		DispatchInterceptors: []messaging.DispatchInterceptor{NewDispatchInterceptor(tracer)},
	})
	require.NoError(t, err)
	return gw
}

func returning(v any) messaging.MessageHandler {
	return messaging.HandlerFunc(func(context.Context, messaging.Message) (any, error) { return v, nil })
}

func TestQueryGatewayQuery(t *testing.T) {
	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	bus.Subscribe("bikeStatus", returning("available"))
	gw := newQueryGateway(t, tracer, bus)

	v, err := gw.Query(context.Background(), "bikeStatus", findBike{BikeID: "b1"}).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "available", v)

	client := spanNamed(t, tracer, "query_bikeStatus")
	assert.Equal(t, 0, client.ParentID)
	assert.Equal(t, QueryMessageType, client.Tag("axon.message.type"))
	assert.Equal(t, "bikeStatus", client.Tag("axon.message.message-name"))
	assert.Equal(t, []string{EventResultReceived}, events(client))

	server := spanNamed(t, tracer, "serve_bikeStatus")
	assert.Equal(t, client.SpanContext.SpanID, server.ParentID)
}

func TestQueryGatewayQueryTypeName(t *testing.T) {
	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	bus.Subscribe(messaging.TypeName(reflect.TypeOf(findBike{})), returning("available"))
	gw := newQueryGateway(t, tracer, bus)

	_, err := gw.Query(context.Background(), "", findBike{BikeID: "b1"}).Get(context.Background())
	require.NoError(t, err)
	spanNamed(t, tracer, "query_findBike")
	spanNamed(t, tracer, "serve_findBike")
}

func TestQueryGatewayQueryError(t *testing.T) {
	tracer := mocktracer.New()
	gw := newQueryGateway(t, tracer, query.NewSimpleBus())

	_, err := gw.Query(context.Background(), "bikeStatus", "b1").Get(context.Background())
	assert.ErrorIs(t, err, messaging.ErrNoHandler)

	client := spanNamed(t, tracer, "query_bikeStatus")
	assert.Equal(t, true, client.Tag("error"))
	assert.Len(t, tracer.FinishedSpans(), 1)
}

func TestQueryGatewayScatterGather(t *testing.T) {
	defer goleak.VerifyNone(t)

	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	bus.Subscribe("bikes", returning("a"))
	bus.Subscribe("bikes", returning("b"))
	gw := newQueryGateway(t, tracer, bus)

	outer := tracer.StartSpan("outer")
	ctx := opentracing.ContextWithSpan(context.Background(), outer)
	s := gw.ScatterGather(ctx, "bikes", "all", time.Second)
	assert.Same(t, outer, opentracing.SpanFromContext(ctx))

	for range 2 {
		_, err := s.Next(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, tracer.FinishedSpans(), 2, "only the server spans are finished while the stream is open")

	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	client := spanNamed(t, tracer, "scatterGather_bikes")
	assert.Equal(t, []string{EventResultReceived, EventResultReceived}, events(client))
	assert.Equal(t, outer.Context().(mocktracer.MockSpanContext).SpanID, client.ParentID)
	for _, fs := range tracer.FinishedSpans() {
		if fs.OperationName == "serve_bikes" {
			assert.Equal(t, client.SpanContext.SpanID, fs.ParentID)
		}
	}
	require.NoError(t, s.Close())
	assert.Len(t, tracer.FinishedSpans(), 3)
}

func TestQueryGatewayStreamingQuery(t *testing.T) {
	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	bus.Subscribe("list", returning([]string{"a", "b", "c"}))
	gw := newQueryGateway(t, tracer, bus)

	t.Run("closed early", func(t *testing.T) {
		tracer.Reset()
		s := gw.StreamingQuery(context.Background(), "list", nil)
		v, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a", v)
		require.NoError(t, s.Close())

		client := spanNamed(t, tracer, "streamingQuery_list")
		assert.Equal(t, []string{EventResultReceived}, events(client))
	})

	t.Run("drained", func(t *testing.T) {
		tracer.Reset()
		out, err := query.Collect(context.Background(), gw.StreamingQuery(context.Background(), "list", nil))
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "c"}, out)
		assert.Len(t, events(spanNamed(t, tracer, "streamingQuery_list")), 3)
	})

	t.Run("failed", func(t *testing.T) {
		tracer.Reset()
		_, err := query.Collect(context.Background(), gw.StreamingQuery(context.Background(), "missing", nil))
		assert.ErrorIs(t, err, messaging.ErrNoHandler)
		assert.Equal(t, true, spanNamed(t, tracer, "streamingQuery_missing").Tag("error"))
	})

	t.Run("caller gives up", func(t *testing.T) {
		tracer.Reset()
		bus.Subscribe("endless", returning(query.Stream[any](&blockingStream{})))
		s := gw.StreamingQuery(context.Background(), "endless", nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Next(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		for _, fs := range tracer.FinishedSpans() {
			assert.NotEqual(t, "streamingQuery_endless", fs.OperationName)
		}
		require.NoError(t, s.Close())
		spanNamed(t, tracer, "streamingQuery_endless")
	})
}

// blockingStream never yields a value.
type blockingStream struct{}

func (*blockingStream) Next(ctx context.Context) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (*blockingStream) Close() error { return nil }

func TestQueryGatewaySubscriptionQuery(t *testing.T) {
	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	bus.Subscribe("bikeStatus", returning("available"))
	gw := newQueryGateway(t, tracer, bus)

	res := gw.SubscriptionQuery(context.Background(), "bikeStatus", "b1", 8)
	initial, err := res.InitialResult(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "available", initial)

	bus.UpdateEmitter().EmitFor("bikeStatus", "rented")
	bus.UpdateEmitter().EmitFor("bikeStatus", "returned")
	for _, want := range []string{"rented", "returned"} {
		v, err := res.Updates().Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	for _, fs := range tracer.FinishedSpans() {
		assert.NotEqual(t, "subscriptionQuery_bikeStatus", fs.OperationName, "the span stays open until cancelled")
	}

	assert.True(t, res.Cancel())
	client := spanNamed(t, tracer, "subscriptionQuery_bikeStatus")
	assert.Equal(t, []string{EventInitialResultReceived, EventUpdateReceived, EventUpdateReceived, EventSubscriptionClosed}, events(client))
	assert.Equal(t, client.SpanContext.SpanID, spanNamed(t, tracer, "serve_bikeStatus").ParentID)
	assert.Equal(t, 0, bus.UpdateEmitter().ActiveSubscriptions())
}

func TestQueryGatewayDelegateGateway(t *testing.T) {
	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	bus.Subscribe("bikeStatus", returning("available"))

	gw, err := NewQueryGateway(QueryGatewayConfig{
		Tracer:          tracer,
		DelegateGateway: query.NewDefaultGateway(bus),
		Dispatch:        DispatchPrefixes{Query: "ask_"},
	})
	require.NoError(t, err)
	_, err = gw.Query(context.Background(), "bikeStatus", "b1").Get(context.Background())
	require.NoError(t, err)
	spanNamed(t, tracer, "ask_bikeStatus")
}

func TestQueryGatewayConfig(t *testing.T) {
	tracer := mocktracer.New()
	bus := query.NewSimpleBus()
	for name, cfg := range map[string]QueryGatewayConfig{
		"missing tracer":   {DelegateBus: bus},
		"missing delegate": {Tracer: tracer},
		"both delegates":   {Tracer: tracer, DelegateBus: bus, DelegateGateway: query.NewDefaultGateway(bus)},
		"interceptors without bus": {
			Tracer:               tracer,
			DelegateGateway:      query.NewDefaultGateway(bus),
			DispatchInterceptors: []messaging.DispatchInterceptor{NewDispatchInterceptor(tracer)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			gw, err := NewQueryGateway(cfg)
			assert.Nil(t, gw)
			var cerr *messaging.ConfigurationError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}
