// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

// ResultMessage carries the outcome of handling a message.
type ResultMessage interface {
	Message
	// IsExceptional reports whether handling failed.
	IsExceptional() bool
	// Exception returns the failure, nil unless IsExceptional.
	Exception() error
}

// GenericResultMessage is the default ResultMessage implementation.
type GenericResultMessage struct {
	*GenericMessage
	err error
}

var _ ResultMessage = (*GenericResultMessage)(nil)

// NewResultMessage returns a successful result carrying payload.
func NewResultMessage(payload any, md map[string]any) *GenericResultMessage {
	return &GenericResultMessage{GenericMessage: NewMessage(payload, md)}
}

// NewExceptionalResultMessage returns a failed result carrying err.
func NewExceptionalResultMessage(err error, md map[string]any) *GenericResultMessage {
	return &GenericResultMessage{GenericMessage: NewMessage(nil, md), err: err}
}

// AsResultMessage converts v into a result message. Result messages are
// returned as is, errors become exceptional results and any other value the
// payload of a successful one.
func AsResultMessage(v any) ResultMessage {
	switch r := v.(type) {
	case ResultMessage:
		return r
	case error:
		return NewExceptionalResultMessage(r, nil)
	case Message:
		return &GenericResultMessage{GenericMessage: &GenericMessage{id: r.Identifier(), payload: r.Payload(), metaData: r.MetaData()}}
	default:
		return NewResultMessage(v, nil)
	}
}

// IsExceptional implements ResultMessage.
func (m *GenericResultMessage) IsExceptional() bool { return m.err != nil }

// Exception implements ResultMessage.
func (m *GenericResultMessage) Exception() error { return m.err }

// WithMetaData implements Message.
func (m *GenericResultMessage) WithMetaData(md map[string]any) Message {
	return &GenericResultMessage{GenericMessage: m.GenericMessage.withMetaData(copyOf(md)), err: m.err}
}

// AndMetaData implements Message.
func (m *GenericResultMessage) AndMetaData(md map[string]any) Message {
	if len(md) == 0 {
		return m
	}
	return &GenericResultMessage{GenericMessage: m.GenericMessage.withMetaData(m.metaData.MergedWith(md)), err: m.err}
}
