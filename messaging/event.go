// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "time"

// EventMessage is a message notifying that something happened.
type EventMessage interface {
	Message
	// Timestamp returns the moment the event was created.
	Timestamp() time.Time
}

// DomainEventMessage is an event published by an aggregate.
type DomainEventMessage interface {
	EventMessage
	AggregateType() string
	AggregateIdentifier() string
	SequenceNumber() int64
}

// GenericEventMessage is the default EventMessage implementation.
type GenericEventMessage struct {
	*GenericMessage
	timestamp time.Time
}

var _ EventMessage = (*GenericEventMessage)(nil)

// NewEventMessage returns an event message carrying payload.
func NewEventMessage(payload any, md map[string]any) *GenericEventMessage {
	return &GenericEventMessage{GenericMessage: NewMessage(payload, md), timestamp: time.Now()}
}

// AsEventMessage returns v when it already is an EventMessage, otherwise it
// builds one around v.
func AsEventMessage(v any) EventMessage {
	switch m := v.(type) {
	case EventMessage:
		return m
	case Message:
		return &GenericEventMessage{
			GenericMessage: &GenericMessage{id: m.Identifier(), payload: m.Payload(), metaData: m.MetaData()},
			timestamp:      time.Now(),
		}
	default:
		return NewEventMessage(v, nil)
	}
}

// Timestamp implements EventMessage.
func (m *GenericEventMessage) Timestamp() time.Time { return m.timestamp }

// WithMetaData implements Message.
func (m *GenericEventMessage) WithMetaData(md map[string]any) Message {
	return &GenericEventMessage{GenericMessage: m.GenericMessage.withMetaData(copyOf(md)), timestamp: m.timestamp}
}

// AndMetaData implements Message.
func (m *GenericEventMessage) AndMetaData(md map[string]any) Message {
	if len(md) == 0 {
		return m
	}
	return &GenericEventMessage{GenericMessage: m.GenericMessage.withMetaData(m.metaData.MergedWith(md)), timestamp: m.timestamp}
}

// GenericDomainEventMessage is the default DomainEventMessage implementation.
type GenericDomainEventMessage struct {
	*GenericEventMessage
	aggregateType string
	aggregateID   string
	sequence      int64
}

var _ DomainEventMessage = (*GenericDomainEventMessage)(nil)

// NewDomainEventMessage returns an event published by the aggregate of the
// given type and identifier at position seq of its event stream.
func NewDomainEventMessage(aggregateType, aggregateID string, seq int64, payload any, md map[string]any) *GenericDomainEventMessage {
	return &GenericDomainEventMessage{
		GenericEventMessage: NewEventMessage(payload, md),
		aggregateType:       aggregateType,
		aggregateID:         aggregateID,
		sequence:            seq,
	}
}

// AggregateType implements DomainEventMessage.
func (m *GenericDomainEventMessage) AggregateType() string { return m.aggregateType }

// AggregateIdentifier implements DomainEventMessage.
func (m *GenericDomainEventMessage) AggregateIdentifier() string { return m.aggregateID }

// SequenceNumber implements DomainEventMessage.
func (m *GenericDomainEventMessage) SequenceNumber() int64 { return m.sequence }

// WithMetaData implements Message.
func (m *GenericDomainEventMessage) WithMetaData(md map[string]any) Message {
	cp := *m
	cp.GenericEventMessage = m.GenericEventMessage.WithMetaData(md).(*GenericEventMessage)
	return &cp
}

// AndMetaData implements Message.
func (m *GenericDomainEventMessage) AndMetaData(md map[string]any) Message {
	if len(md) == 0 {
		return m
	}
	cp := *m
	cp.GenericEventMessage = m.GenericEventMessage.AndMetaData(md).(*GenericEventMessage)
	return &cp
}
