// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package command

import (
	"context"
	"time"

	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// DefaultGateway is a Gateway sending commands on a Bus.
type DefaultGateway struct {
	bus          Bus
	interceptors messaging.Registry[messaging.DispatchInterceptor]
}

var _ Gateway = (*DefaultGateway)(nil)

// NewDefaultGateway returns a gateway dispatching on bus. The interceptors
// run, in order, on every command before it reaches the bus.
func NewDefaultGateway(bus Bus, interceptors ...messaging.DispatchInterceptor) *DefaultGateway {
	g := &DefaultGateway{bus: bus}
	for _, in := range interceptors {
		g.interceptors.Register(in)
	}
	return g
}

// RegisterDispatchInterceptor implements Gateway.
func (g *DefaultGateway) RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration {
	return g.interceptors.Register(in)
}

// SendWithCallback implements Gateway.
func (g *DefaultGateway) SendWithCallback(ctx context.Context, command any, cb Callback) {
	cmd := messaging.ApplyCorrelationData(ctx, messaging.AsCommandMessage(command))
	if out, ok := messaging.InterceptDispatch(ctx, g.interceptors.Snapshot(), cmd).(messaging.CommandMessage); ok {
		cmd = out
	}
	g.bus.Dispatch(ctx, cmd, cb)
}

// Send implements Gateway.
func (g *DefaultGateway) Send(ctx context.Context, command any) *messaging.Future {
	f := messaging.NewFuture()
	g.SendWithCallback(ctx, command, FutureCallback(f))
	return f
}

// SendAndWait implements Gateway.
func (g *DefaultGateway) SendAndWait(ctx context.Context, command any) (any, error) {
	return Await(ctx, g.Send(ctx, command))
}

// SendAndWaitTimeout implements Gateway.
func (g *DefaultGateway) SendAndWaitTimeout(ctx context.Context, command any, timeout time.Duration) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return g.SendAndWait(ctx, command)
}
