// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
	"github.com/AxonFramework/extension-tracing-go/messaging/command"
	"github.com/AxonFramework/extension-tracing-go/messaging/event"
	"github.com/AxonFramework/extension-tracing-go/messaging/query"
)

type rentalBuses struct {
	commands *command.SimpleBus
	queries  *query.SimpleBus
	events   *event.SimpleBus
	seen     []messaging.EventMessage
}

// newRentalBuses wires a command handler publishing a domain event, an event
// handler recording it and a query handler.
func newRentalBuses() *rentalBuses {
	b := &rentalBuses{
		commands: command.NewSimpleBus(),
		queries:  query.NewSimpleBus(),
		events:   event.NewSimpleBus(),
	}
	b.commands.Subscribe(registerBikeName, messaging.HandlerFunc(func(ctx context.Context, m messaging.Message) (any, error) {
		id := m.Payload().(registerBike).BikeID
		b.events.Publish(ctx, messaging.NewDomainEventMessage("Bike", id, 0, bikeRegistered{BikeID: id}, nil))
		return id, nil
	}))
	b.events.Subscribe(messaging.HandlerFunc(func(_ context.Context, m messaging.Message) (any, error) {
		b.seen = append(b.seen, m.(messaging.EventMessage))
		return nil, nil
	}))
	b.queries.Subscribe("bikeStatus", returning("available"))
	return b
}

func enabledProperties() Properties {
	p := DefaultProperties()
	p.Enabled = true
	return p
}

func TestConfigure(t *testing.T) {
	tracer := mocktracer.New()
	buses := newRentalBuses()
	c, err := Configure(Configuration{
		Tracer:     tracer,
		Properties: enabledProperties(),
		CommandBus: buses.commands,
		QueryBus:   buses.queries,
		EventBus:   buses.events,
	})
	require.NoError(t, err)
	defer c.Shutdown()
	require.NotNil(t, c.DispatchInterceptor)
	require.NotNil(t, c.HandlerInterceptor)

	outer := tracer.StartSpan("rental")
	ctx := opentracing.ContextWithSpan(context.Background(), outer)
	v, err := c.CommandGateway.SendAndWait(ctx, registerBike{BikeID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", v)
	status, err := c.QueryGateway.Query(ctx, "bikeStatus", "b1").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "available", status)
	outer.Finish()

	traceID := outer.Context().(mocktracer.MockSpanContext).TraceID
	for _, s := range tracer.FinishedSpans() {
		assert.Equal(t, traceID, s.SpanContext.TraceID, "span %s", s.OperationName)
	}
	client := spanNamed(t, tracer, "sendAndWait_registerBike")
	handler := spanNamed(t, tracer, "handle_registerBike")
	onEvent := spanNamed(t, tracer, "handle_bikeRegistered")
	assert.Equal(t, client.SpanContext.SpanID, handler.ParentID)
	assert.Equal(t, handler.SpanContext.SpanID, onEvent.ParentID, "events published by a handler continue its trace")
	assert.Equal(t, "b1", onEvent.Tag("axon.message.aggregate-identifier"))
	assert.Equal(t, EventMessageType, onEvent.Tag("axon.message.type"))

	q := spanNamed(t, tracer, "query_bikeStatus")
	assert.Equal(t, q.SpanContext.SpanID, spanNamed(t, tracer, "serve_bikeStatus").ParentID)

	require.Len(t, buses.seen, 1)
	assert.Contains(t, buses.seen[0].MetaData(), "mockpfx-ids-spanid")
}

func TestConfigureCustomProperties(t *testing.T) {
	tracer := mocktracer.New()
	buses := newRentalBuses()
	p := enabledProperties()
	p.Dispatch.CommandAndWait = "fire_"
	p.Handle.Command = "on_"
	p.Span.CommandTags = MessageTags{TagPayload}
	c, err := Configure(Configuration{Tracer: tracer, Properties: p, CommandBus: buses.commands, QueryBus: buses.queries})
	require.NoError(t, err)
	defer c.Shutdown()

	_, err = c.CommandGateway.SendAndWait(context.Background(), registerBike{BikeID: "b2"})
	require.NoError(t, err)
	for _, name := range []string{"fire_registerBike", "on_registerBike"} {
		s := spanNamed(t, tracer, name)
		assert.Equal(t, "{BikeID:b2}", s.Tag("axon.message.payload"))
		assert.Nil(t, s.Tag("axon.message.id"))
	}
	assert.Len(t, buses.seen, 1, "the event bus is left untouched")
	for _, s := range tracer.FinishedSpans() {
		assert.NotEqual(t, "handle_bikeRegistered", s.OperationName)
	}
}

func TestConfigureGlobalTracer(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	buses := newRentalBuses()
	c, err := Configure(Configuration{Properties: enabledProperties(), CommandBus: buses.commands, QueryBus: buses.queries})
	require.NoError(t, err)
	defer c.Shutdown()

	_, err = c.QueryGateway.Query(context.Background(), "bikeStatus", "b1").Get(context.Background())
	require.NoError(t, err)
	spanNamed(t, tracer, "query_bikeStatus")
}

func TestConfigureDisabled(t *testing.T) {
	rl := new(log.RecordLogger)
	defer log.UseLogger(rl)()
	log.SetLevel(log.LevelInfo)
	defer log.SetLevel(log.LevelWarn)

	tracer := mocktracer.New()
	buses := newRentalBuses()
	c, err := Configure(Configuration{Tracer: tracer, Properties: DefaultProperties(), CommandBus: buses.commands, QueryBus: buses.queries, EventBus: buses.events})
	require.NoError(t, err)
	assert.Nil(t, c.DispatchInterceptor)
	assert.Nil(t, c.HandlerInterceptor)
	assert.IsType(t, &command.DefaultGateway{}, c.CommandGateway)
	assert.IsType(t, &query.DefaultGateway{}, c.QueryGateway)

	_, err = c.CommandGateway.SendAndWait(context.Background(), registerBike{BikeID: "b3"})
	require.NoError(t, err)
	assert.Empty(t, tracer.FinishedSpans())
	assert.Len(t, buses.seen, 1)
	require.Len(t, rl.Logs(), 1)
	assert.Contains(t, rl.Logs()[0], "Message tracing is disabled")
	c.Shutdown()
}

func TestConfigureRequiresBuses(t *testing.T) {
	var cerr *messaging.ConfigurationError
	_, err := Configure(Configuration{Properties: enabledProperties(), CommandBus: command.NewSimpleBus()})
	assert.ErrorAs(t, err, &cerr)
	_, err = Configure(Configuration{Properties: enabledProperties(), QueryBus: query.NewSimpleBus()})
	assert.ErrorAs(t, err, &cerr)
}

func TestComponentsShutdown(t *testing.T) {
	tracer := mocktracer.New()
	buses := newRentalBuses()
	c, err := Configure(Configuration{Tracer: tracer, Properties: enabledProperties(), CommandBus: buses.commands, QueryBus: buses.queries, EventBus: buses.events})
	require.NoError(t, err)
	c.Shutdown()

	_, err = c.CommandGateway.SendAndWait(context.Background(), registerBike{BikeID: "b4"})
	require.NoError(t, err)
	require.Len(t, tracer.FinishedSpans(), 1, "only the gateway keeps tracing")
	assert.Equal(t, "sendAndWait_registerBike", tracer.FinishedSpans()[0].OperationName)
}
