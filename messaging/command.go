// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "reflect"

// CommandMessage is a message expressing the intent to change state.
type CommandMessage interface {
	Message
	// CommandName returns the name handlers subscribe to.
	CommandName() string
}

// GenericCommandMessage is the default CommandMessage implementation.
type GenericCommandMessage struct {
	*GenericMessage
	commandName string
}

var _ CommandMessage = (*GenericCommandMessage)(nil)

// NewCommandMessage returns a command message carrying payload. The command
// name is the fully qualified type name of the payload.
func NewCommandMessage(payload any, md map[string]any) *GenericCommandMessage {
	return NewNamedCommandMessage(TypeName(reflect.TypeOf(payload)), payload, md)
}

// NewNamedCommandMessage returns a command message with an explicit command name.
func NewNamedCommandMessage(name string, payload any, md map[string]any) *GenericCommandMessage {
	return &GenericCommandMessage{
		GenericMessage: NewMessage(payload, md),
		commandName:    name,
	}
}

// AsCommandMessage returns v when it already is a CommandMessage. Any other
// Message keeps its identifier, payload and metadata. Plain values become the
// payload of a new command message.
func AsCommandMessage(v any) CommandMessage {
	switch m := v.(type) {
	case CommandMessage:
		return m
	case Message:
		return &GenericCommandMessage{
			GenericMessage: &GenericMessage{id: m.Identifier(), payload: m.Payload(), metaData: m.MetaData()},
			commandName:    TypeName(m.PayloadType()),
		}
	default:
		return NewCommandMessage(v, nil)
	}
}

// CommandName implements CommandMessage.
func (m *GenericCommandMessage) CommandName() string { return m.commandName }

// WithMetaData implements Message.
func (m *GenericCommandMessage) WithMetaData(md map[string]any) Message {
	return &GenericCommandMessage{GenericMessage: m.GenericMessage.withMetaData(copyOf(md)), commandName: m.commandName}
}

// AndMetaData implements Message.
func (m *GenericCommandMessage) AndMetaData(md map[string]any) Message {
	if len(md) == 0 {
		return m
	}
	return &GenericCommandMessage{GenericMessage: m.GenericMessage.withMetaData(m.metaData.MergedWith(md)), commandName: m.commandName}
}
