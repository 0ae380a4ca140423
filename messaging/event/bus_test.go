// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

type bikeRegistered struct{ BikeID string }

func TestPublish(t *testing.T) {
	rl := new(log.RecordLogger)
	defer log.UseLogger(rl)()

	bus := NewSimpleBus()
	var batchSize int
	bus.RegisterDispatchInterceptor(messaging.DispatchInterceptorFunc(func(_ context.Context, ms []messaging.Message) func(int, messaging.Message) messaging.Message {
		batchSize = len(ms)
		return func(i int, m messaging.Message) messaging.Message {
			return m.AndMetaData(map[string]any{"position": i})
		}
	}))
	var seen []messaging.EventMessage
	bus.Subscribe(messaging.HandlerFunc(func(_ context.Context, m messaging.Message) (any, error) {
		return nil, assert.AnError
	}))
	reg := bus.Subscribe(messaging.HandlerFunc(func(_ context.Context, m messaging.Message) (any, error) {
		seen = append(seen, m.(messaging.EventMessage))
		return nil, nil
	}))

	domain := messaging.NewDomainEventMessage("Bike", "b1", 0, bikeRegistered{BikeID: "b1"}, nil)
	bus.Publish(context.Background(), bikeRegistered{BikeID: "b0"}, domain)

	assert.Equal(t, 2, batchSize)
	require.Len(t, seen, 2)
	assert.Equal(t, 0, seen[0].MetaData().Get("position"))
	assert.Equal(t, 1, seen[1].MetaData().Get("position"))
	assert.Equal(t, "b1", seen[1].(messaging.DomainEventMessage).AggregateIdentifier())
	assert.Len(t, rl.Logs(), 2, "one warning per failed delivery")

	reg.Cancel()
	bus.Publish(context.Background(), bikeRegistered{BikeID: "b2"})
	assert.Len(t, seen, 2)
}
