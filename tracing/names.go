// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import "github.com/AxonFramework/extension-tracing-go/messaging"

// Message categories reported by MessageType.
const (
	QueryMessageType   = "QueryMessage"
	CommandMessageType = "CommandMessage"
	EventMessageType   = "EventMessage"
	MessageType        = "Message"
)

// MessageTypeOf returns the category of m.
func MessageTypeOf(m messaging.Message) string {
	switch m.(type) {
	case messaging.QueryMessage:
		return QueryMessageType
	case messaging.CommandMessage:
		return CommandMessageType
	case messaging.EventMessage:
		return EventMessageType
	default:
		return MessageType
	}
}

// MessageName returns the name spans use for m. Commands and queries with a
// name of their own report it; otherwise the simple type name of the payload
// is used.
func MessageName(m messaging.Message) string {
	var name string
	switch mm := m.(type) {
	case messaging.CommandMessage:
		name = mm.CommandName()
	case messaging.QueryMessage:
		name = mm.QueryName()
	}
	if name != "" && name != messaging.TypeName(m.PayloadType()) {
		return name
	}
	return messaging.SimpleTypeName(m.PayloadType())
}
