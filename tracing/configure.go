// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"github.com/opentracing/opentracing-go"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
	"github.com/AxonFramework/extension-tracing-go/messaging/command"
	"github.com/AxonFramework/extension-tracing-go/messaging/event"
	"github.com/AxonFramework/extension-tracing-go/messaging/query"
)

// Configuration lists the buses to instrument. The command and query buses
// are required, the event bus is optional. A nil Tracer defaults to
// opentracing.GlobalTracer().
type Configuration struct {
	Tracer     opentracing.Tracer
	Properties Properties
	CommandBus command.Bus
	QueryBus   query.Bus
	EventBus   event.Bus
}

// Components are the gateways to use on top of the configured buses, along
// with the shared tracing collaborators. The interceptors are nil when
// tracing is disabled.
type Components struct {
	CommandGateway      command.Gateway
	QueryGateway        query.Gateway
	TagService          *TagService
	DispatchInterceptor *DispatchInterceptor
	HandlerInterceptor  *HandlerInterceptor

	registrations []messaging.Registration
}

// Configure instruments the buses of cfg and returns the gateways to send
// messages with. When cfg.Properties.Enabled is false the buses are left
// untouched and plain gateways are returned.
func Configure(cfg Configuration) (*Components, error) {
	if cfg.CommandBus == nil || cfg.QueryBus == nil {
		return nil, &messaging.ConfigurationError{Msg: "a command bus and a query bus are required"}
	}
	if !cfg.Properties.Enabled {
		log.Info("Message tracing is disabled")
		return &Components{
			CommandGateway: command.NewDefaultGateway(cfg.CommandBus),
			QueryGateway:   query.NewDefaultGateway(cfg.QueryBus),
		}, nil
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = opentracing.GlobalTracer()
	}
	c := &Components{
		TagService:          NewTagService(cfg.Properties.TagConfig()),
		DispatchInterceptor: NewDispatchInterceptor(tracer),
	}
	c.HandlerInterceptor = NewHandlerInterceptor(tracer, WithTagService(c.TagService), WithHandlePrefixes(cfg.Properties.Handle))
	correlation := messaging.NewCorrelationDataInterceptor(NewCorrelationDataProvider(tracer))

	c.registrations = append(c.registrations,
		cfg.CommandBus.RegisterHandlerInterceptor(c.HandlerInterceptor),
		cfg.CommandBus.RegisterHandlerInterceptor(correlation),
		cfg.QueryBus.RegisterHandlerInterceptor(c.HandlerInterceptor),
		cfg.QueryBus.RegisterHandlerInterceptor(correlation),
	)
	if cfg.EventBus != nil {
		c.registrations = append(c.registrations,
			cfg.EventBus.RegisterDispatchInterceptor(c.DispatchInterceptor),
			cfg.EventBus.RegisterHandlerInterceptor(c.HandlerInterceptor),
			cfg.EventBus.RegisterHandlerInterceptor(correlation),
		)
	}

	commands, err := NewCommandGateway(CommandGatewayConfig{
		Tracer:               tracer,
		DelegateBus:          cfg.CommandBus,
		DispatchInterceptors: []messaging.DispatchInterceptor{c.DispatchInterceptor},
		Dispatch:             cfg.Properties.Dispatch,
		TagService:           c.TagService,
	})
	if err != nil {
		c.Shutdown()
		return nil, err
	}
	queries, err := NewQueryGateway(QueryGatewayConfig{
		Tracer:               tracer,
		DelegateBus:          cfg.QueryBus,
		DispatchInterceptors: []messaging.DispatchInterceptor{c.DispatchInterceptor},
		Dispatch:             cfg.Properties.Dispatch,
		TagService:           c.TagService,
	})
	if err != nil {
		c.Shutdown()
		return nil, err
	}
	c.CommandGateway, c.QueryGateway = commands, queries
	log.Debug("Message tracing configured")
	return c, nil
}

// Shutdown removes the interceptors Configure registered on the buses.
func (c *Components) Shutdown() {
	for _, r := range c.registrations {
		r.Cancel()
	}
	c.registrations = nil
}
