// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package messaging holds the message model and the dispatch and handling
// contracts shared by the command, query and event buses.
//
// Messages are immutable: WithMetaData and AndMetaData return a new message
// of the same category and leave the receiver untouched.
package messaging

import (
	"reflect"

	"github.com/google/uuid"
)

// Message is the unit exchanged on every bus.
type Message interface {
	// Identifier returns the unique identifier of the message.
	Identifier() string
	// Payload returns the application data carried by the message.
	Payload() any
	// PayloadType returns the dynamic type of the payload, nil for a nil payload.
	PayloadType() reflect.Type
	// MetaData returns the metadata attached to the message.
	MetaData() MetaData
	// WithMetaData returns a copy of the message with its metadata replaced by md.
	WithMetaData(md map[string]any) Message
	// AndMetaData returns a copy of the message with md merged into its metadata.
	AndMetaData(md map[string]any) Message
}

// GenericMessage is the default Message implementation.
type GenericMessage struct {
	id       string
	payload  any
	metaData MetaData
}

var _ Message = (*GenericMessage)(nil)

// NewMessage returns a message carrying payload and a copy of md under a
// random identifier.
func NewMessage(payload any, md map[string]any) *GenericMessage {
	return &GenericMessage{
		id:       uuid.NewString(),
		payload:  payload,
		metaData: copyOf(md),
	}
}

// AsMessage returns v when it already is a Message, otherwise wraps it as the
// payload of a new message.
func AsMessage(v any) Message {
	if m, ok := v.(Message); ok {
		return m
	}
	return NewMessage(v, nil)
}

// Identifier implements Message.
func (m *GenericMessage) Identifier() string { return m.id }

// Payload implements Message.
func (m *GenericMessage) Payload() any { return m.payload }

// PayloadType implements Message.
func (m *GenericMessage) PayloadType() reflect.Type { return reflect.TypeOf(m.payload) }

// MetaData implements Message.
func (m *GenericMessage) MetaData() MetaData { return m.metaData }

// WithMetaData implements Message.
func (m *GenericMessage) WithMetaData(md map[string]any) Message {
	return m.withMetaData(copyOf(md))
}

// AndMetaData implements Message.
func (m *GenericMessage) AndMetaData(md map[string]any) Message {
	if len(md) == 0 {
		return m
	}
	return m.withMetaData(m.metaData.MergedWith(md))
}

func (m *GenericMessage) withMetaData(md MetaData) *GenericMessage {
	cp := *m
	cp.metaData = md
	return &cp
}

// TypeName returns the fully qualified name of t: its package path and name
// joined by a dot. Pointer types are reported by their element type and
// predeclared types by their bare name.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// SimpleTypeName returns the unqualified name of t.
func SimpleTypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
