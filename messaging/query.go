// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "reflect"

// QueryMessage is a message requesting information.
type QueryMessage interface {
	Message
	// QueryName returns the name handlers subscribe to.
	QueryName() string
}

// GenericQueryMessage is the default QueryMessage implementation.
type GenericQueryMessage struct {
	*GenericMessage
	queryName string
}

var _ QueryMessage = (*GenericQueryMessage)(nil)

// NewQueryMessage returns a query message carrying payload. An empty name
// defaults to the fully qualified type name of the payload.
func NewQueryMessage(name string, payload any, md map[string]any) *GenericQueryMessage {
	if name == "" {
		name = TypeName(reflect.TypeOf(payload))
	}
	return &GenericQueryMessage{
		GenericMessage: NewMessage(payload, md),
		queryName:      name,
	}
}

// AsQueryMessage returns v when it already is a QueryMessage, otherwise it
// builds one named name around v.
func AsQueryMessage(name string, v any) QueryMessage {
	switch m := v.(type) {
	case QueryMessage:
		return m
	case Message:
		if name == "" {
			name = TypeName(m.PayloadType())
		}
		return &GenericQueryMessage{
			GenericMessage: &GenericMessage{id: m.Identifier(), payload: m.Payload(), metaData: m.MetaData()},
			queryName:      name,
		}
	default:
		return NewQueryMessage(name, v, nil)
	}
}

// QueryName implements QueryMessage.
func (m *GenericQueryMessage) QueryName() string { return m.queryName }

// WithMetaData implements Message.
func (m *GenericQueryMessage) WithMetaData(md map[string]any) Message {
	return &GenericQueryMessage{GenericMessage: m.GenericMessage.withMetaData(copyOf(md)), queryName: m.queryName}
}

// AndMetaData implements Message.
func (m *GenericQueryMessage) AndMetaData(md map[string]any) Message {
	if len(md) == 0 {
		return m
	}
	return &GenericQueryMessage{GenericMessage: m.GenericMessage.withMetaData(m.metaData.MergedWith(md)), queryName: m.queryName}
}
