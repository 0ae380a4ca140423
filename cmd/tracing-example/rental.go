// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/AxonFramework/extension-tracing-go/messaging"
	"github.com/AxonFramework/extension-tracing-go/messaging/command"
	"github.com/AxonFramework/extension-tracing-go/messaging/event"
	"github.com/AxonFramework/extension-tracing-go/messaging/query"
	"github.com/AxonFramework/extension-tracing-go/tracing"
)

type registerBike struct{ BikeID, Location string }

type rentBike struct{ BikeID, Renter string }

type bikeRegistered struct{ BikeID, Location string }

type bikeRented struct{ BikeID, Renter string }

type bikeStatus struct{ BikeID string }

type findAvailable struct{ Location string }

var errBikeUnavailable = errors.New("bike is not available")

// rental is the in-memory state of the application, kept up to date by its
// event handler.
type rental struct {
	events  event.Bus
	updates *query.UpdateEmitter

	mu     sync.Mutex
	status map[string]string
	where  map[string]string
}

func newRental(events event.Bus, updates *query.UpdateEmitter) *rental {
	return &rental{
		events:  events,
		updates: updates,
		status:  make(map[string]string),
		where:   make(map[string]string),
	}
}

func (r *rental) subscribe(commands command.Bus, queries query.Bus) {
	commands.Subscribe(commandName(registerBike{}), messaging.HandlerFunc(r.register))
	commands.Subscribe(commandName(rentBike{}), messaging.HandlerFunc(r.rent))
	r.events.Subscribe(messaging.HandlerFunc(r.on))
	queries.Subscribe("bikeStatus", messaging.HandlerFunc(r.bikeStatus))
	queries.Subscribe("findAvailable", messaging.HandlerFunc(r.findAvailable))
}

func commandName(payload any) string {
	return messaging.AsCommandMessage(payload).CommandName()
}

func (r *rental) register(ctx context.Context, m messaging.Message) (any, error) {
	cmd := m.Payload().(registerBike)
	r.events.Publish(ctx, messaging.NewDomainEventMessage("Bike", cmd.BikeID, 0, bikeRegistered(cmd), nil))
	return cmd.BikeID, nil
}

func (r *rental) rent(ctx context.Context, m messaging.Message) (any, error) {
	cmd := m.Payload().(rentBike)
	r.mu.Lock()
	status := r.status[cmd.BikeID]
	r.mu.Unlock()
	if status != "available" {
		return nil, fmt.Errorf("%w: %s", errBikeUnavailable, cmd.BikeID)
	}
	r.events.Publish(ctx, messaging.NewDomainEventMessage("Bike", cmd.BikeID, 1, bikeRented(cmd), nil))
	return nil, nil
}

func (r *rental) on(_ context.Context, m messaging.Message) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e := m.Payload().(type) {
	case bikeRegistered:
		r.status[e.BikeID] = "available"
		r.where[e.BikeID] = e.Location
	case bikeRented:
		r.status[e.BikeID] = "rented by " + e.Renter
		r.updates.Emit(func(q messaging.QueryMessage) bool {
			s, ok := q.Payload().(bikeStatus)
			return ok && s.BikeID == e.BikeID
		}, r.status[e.BikeID])
	}
	return nil, nil
}

func (r *rental) bikeStatus(_ context.Context, m messaging.Message) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[m.Payload().(bikeStatus).BikeID], nil
}

func (r *rental) findAvailable(_ context.Context, m messaging.Message) (any, error) {
	loc := m.Payload().(findAvailable).Location
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, status := range r.status {
		if status == "available" && r.where[id] == loc {
			out = append(out, id)
		}
	}
	return out, nil
}

// run registers bikes, watches the first one, rents it twice and lists the
// bikes left, all within a single trace.
func run(ctx context.Context, t opentracing.Tracer, props tracing.Properties, bikes int, zl *zap.Logger) error {
	commands := command.NewSimpleBus()
	queries := query.NewSimpleBus()
	events := event.NewSimpleBus()
	newRental(events, queries.UpdateEmitter()).subscribe(commands, queries)

	c, err := tracing.Configure(tracing.Configuration{
		Tracer:     t,
		Properties: props,
		CommandBus: commands,
		QueryBus:   queries,
		EventBus:   events,
	})
	if err != nil {
		return err
	}
	defer c.Shutdown()

	root := t.StartSpan("bike-rental")
	defer root.Finish()
	ctx = opentracing.ContextWithSpan(ctx, root)

	for i := range bikes {
		if _, err := c.CommandGateway.SendAndWaitTimeout(ctx, registerBike{BikeID: fmt.Sprintf("bike-%d", i), Location: "Amsterdam"}, time.Second); err != nil {
			return fmt.Errorf("registering bike %d: %w", i, err)
		}
	}
	if bikes == 0 {
		return nil
	}

	watch := c.QueryGateway.SubscriptionQuery(ctx, "bikeStatus", bikeStatus{BikeID: "bike-0"}, query.DefaultUpdateBufferSize)
	defer watch.Cancel()
	initial, err := watch.InitialResult(ctx)
	if err != nil {
		return err
	}
	zl.Info("watching bike", zap.String("bike", "bike-0"), zap.Any("status", initial))

	if _, err := c.CommandGateway.SendAndWait(ctx, rentBike{BikeID: "bike-0", Renter: "alice"}); err != nil {
		return err
	}
	update, err := watch.Updates().Next(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	zl.Info("bike status changed", zap.Any("status", update))

	_, err = c.CommandGateway.SendAndWait(ctx, rentBike{BikeID: "bike-0", Renter: "bob"})
	if !errors.Is(err, errBikeUnavailable) {
		return fmt.Errorf("renting a rented bike: got %v", err)
	}

	available, err := query.Collect(ctx, c.QueryGateway.StreamingQuery(ctx, "findAvailable", findAvailable{Location: "Amsterdam"}))
	if err != nil {
		return err
	}
	zl.Info("bikes available", zap.Int("count", len(available)))
	return nil
}
