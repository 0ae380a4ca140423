// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes the environment variables read by LoadProperties, as in
// AXON_EXTENSION_TRACING_ENABLED or AXON_EXTENSION_TRACING_SPAN_COMMAND_TAGS.
const EnvPrefix = "AXON_EXTENSION_TRACING"

// Properties configure the tracing extension.
type Properties struct {
	// Enabled turns the instrumentation on. Configure leaves the buses
	// untouched when it is false.
	Enabled  bool                `envconfig:"ENABLED" default:"false" yaml:"enabled"`
	Dispatch DispatchPrefixes    `envconfig:"DISPATCH" yaml:"dispatch"`
	Handle   OperationNamePrefix `envconfig:"HANDLE" yaml:"handle"`
	Span     SpanProperties      `envconfig:"SPAN" yaml:"span"`
}

// DispatchPrefixes are the operation name prefixes of the client spans
// started by the gateways, one per gateway method.
type DispatchPrefixes struct {
	Command           string `envconfig:"COMMAND" default:"send_" yaml:"command"`
	CommandAndWait    string `envconfig:"COMMAND_AND_WAIT" default:"sendAndWait_" yaml:"commandAndWait"`
	Query             string `envconfig:"QUERY" default:"query_" yaml:"query"`
	ScatterGather     string `envconfig:"SCATTER_GATHER" default:"scatterGather_" yaml:"scatterGather"`
	StreamingQuery    string `envconfig:"STREAMING_QUERY" default:"streamingQuery_" yaml:"streamingQuery"`
	SubscriptionQuery string `envconfig:"SUBSCRIPTION_QUERY" default:"subscriptionQuery_" yaml:"subscriptionQuery"`
}

// OperationNamePrefix holds the operation name prefixes of the server spans
// started by the HandlerInterceptor, per message category. Messages of any
// other category use the Command prefix.
type OperationNamePrefix struct {
	Command string `envconfig:"COMMAND" default:"handle_" yaml:"command"`
	Query   string `envconfig:"QUERY" default:"serve_" yaml:"query"`
	Event   string `envconfig:"EVENT" default:"handle_" yaml:"event"`
}

// SpanProperties select the tags recorded per message category.
type SpanProperties struct {
	CommandTags MessageTags `envconfig:"COMMAND_TAGS" default:"MESSAGE_ID,MESSAGE_TYPE,PAYLOAD_TYPE,MESSAGE_NAME" yaml:"commandTags"`
	EventTags   MessageTags `envconfig:"EVENT_TAGS" default:"MESSAGE_ID,AGGREGATE_ID,MESSAGE_TYPE,PAYLOAD_TYPE" yaml:"eventTags"`
	QueryTags   MessageTags `envconfig:"QUERY_TAGS" default:"MESSAGE_ID,MESSAGE_TYPE,PAYLOAD_TYPE,MESSAGE_NAME" yaml:"queryTags"`
}

// DefaultProperties returns the properties used when nothing is configured.
func DefaultProperties() Properties {
	tags := DefaultTagConfig()
	return Properties{
		Dispatch: DispatchPrefixes{
			Command:           "send_",
			CommandAndWait:    "sendAndWait_",
			Query:             "query_",
			ScatterGather:     "scatterGather_",
			StreamingQuery:    "streamingQuery_",
			SubscriptionQuery: "subscriptionQuery_",
		},
		Handle: OperationNamePrefix{
			Command: "handle_",
			Query:   "serve_",
			Event:   "handle_",
		},
		Span: SpanProperties{
			CommandTags: tags.CommandTags,
			EventTags:   tags.EventTags,
			QueryTags:   tags.QueryTags,
		},
	}
}

// LoadProperties reads the properties from the environment, see EnvPrefix.
func LoadProperties() (Properties, error) {
	var p Properties
	if err := envconfig.Process(EnvPrefix, &p); err != nil {
		return Properties{}, fmt.Errorf("tracing: loading properties from environment: %w", err)
	}
	return p, nil
}

// ParseProperties reads YAML encoded properties. Keys missing from data keep
// their default value.
func ParseProperties(data []byte) (Properties, error) {
	p := DefaultProperties()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Properties{}, fmt.Errorf("tracing: parsing properties: %w", err)
	}
	return p, nil
}

// TagConfig returns the tag configuration selected by p.
func (p Properties) TagConfig() TagConfig {
	return TagConfig{
		CommandTags: p.Span.CommandTags,
		EventTags:   p.Span.EventTags,
		QueryTags:   p.Span.QueryTags,
	}
}

func (d DispatchPrefixes) withDefaults() DispatchPrefixes {
	def := DefaultProperties().Dispatch
	return DispatchPrefixes{
		Command:           orDefault(d.Command, def.Command),
		CommandAndWait:    orDefault(d.CommandAndWait, def.CommandAndWait),
		Query:             orDefault(d.Query, def.Query),
		ScatterGather:     orDefault(d.ScatterGather, def.ScatterGather),
		StreamingQuery:    orDefault(d.StreamingQuery, def.StreamingQuery),
		SubscriptionQuery: orDefault(d.SubscriptionQuery, def.SubscriptionQuery),
	}
}

func (o OperationNamePrefix) withDefaults() OperationNamePrefix {
	def := DefaultProperties().Handle
	return OperationNamePrefix{
		Command: orDefault(o.Command, def.Command),
		Query:   orDefault(o.Query, def.Query),
		Event:   orDefault(o.Event, def.Event),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
