// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPropertiesDefaults(t *testing.T) {
	p, err := LoadProperties()
	require.NoError(t, err)
	assert.Equal(t, DefaultProperties(), p)
	assert.False(t, p.Enabled)
	assert.Equal(t, DefaultTagConfig(), p.TagConfig())
}

func TestLoadPropertiesFromEnv(t *testing.T) {
	t.Setenv("AXON_EXTENSION_TRACING_ENABLED", "true")
	t.Setenv("AXON_EXTENSION_TRACING_DISPATCH_COMMAND", "fire_")
	t.Setenv("AXON_EXTENSION_TRACING_HANDLE_QUERY", "answer_")
	t.Setenv("AXON_EXTENSION_TRACING_SPAN_COMMAND_TAGS", "message-id, payload")

	p, err := LoadProperties()
	require.NoError(t, err)
	assert.True(t, p.Enabled)
	assert.Equal(t, "fire_", p.Dispatch.Command)
	assert.Equal(t, "sendAndWait_", p.Dispatch.CommandAndWait)
	assert.Equal(t, "answer_", p.Handle.Query)
	assert.Equal(t, "handle_", p.Handle.Command)
	assert.Equal(t, MessageTags{TagMessageID, TagPayload}, p.Span.CommandTags)
	assert.Equal(t, DefaultTagConfig().QueryTags, p.Span.QueryTags)
}

func TestLoadPropertiesInvalid(t *testing.T) {
	t.Setenv("AXON_EXTENSION_TRACING_ENABLED", "maybe")
	_, err := LoadProperties()
	assert.Error(t, err)
}

func TestParseProperties(t *testing.T) {
	p, err := ParseProperties([]byte(`
enabled: true
dispatch:
  query: ask_
handle:
  event: on_
span:
  eventTags: [MESSAGE_ID, aggregate-id]
  queryTags: MESSAGE_NAME,PAYLOAD
`))
	require.NoError(t, err)
	assert.True(t, p.Enabled)
	assert.Equal(t, "ask_", p.Dispatch.Query)
	assert.Equal(t, "send_", p.Dispatch.Command)
	assert.Equal(t, "on_", p.Handle.Event)
	assert.Equal(t, "serve_", p.Handle.Query)
	assert.Equal(t, MessageTags{TagMessageID, TagAggregateID}, p.Span.EventTags)
	assert.Equal(t, MessageTags{TagMessageName, TagPayload}, p.Span.QueryTags)
	assert.Equal(t, DefaultTagConfig().CommandTags, p.Span.CommandTags)

	_, err = ParseProperties([]byte("span: {commandTags: {a: b}}"))
	assert.Error(t, err)
}

func TestPrefixDefaults(t *testing.T) {
	assert.Equal(t, DefaultProperties().Dispatch, DispatchPrefixes{}.withDefaults())
	assert.Equal(t, DefaultProperties().Handle, OperationNamePrefix{}.withDefaults())
	assert.Equal(t, "x_", OperationNamePrefix{Event: "x_"}.withDefaults().Event)
}
