// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/opentracing/opentracing-go"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// MessageTag identifies a piece of message information recorded on spans.
type MessageTag string

// Supported message tags.
const (
	TagMessageID   MessageTag = "MESSAGE_ID"
	TagAggregateID MessageTag = "AGGREGATE_ID"
	TagMessageType MessageTag = "MESSAGE_TYPE"
	TagPayloadType MessageTag = "PAYLOAD_TYPE"
	TagMessageName MessageTag = "MESSAGE_NAME"
	TagPayload     MessageTag = "PAYLOAD"
)

var tagKeys = map[MessageTag]string{
	TagMessageID:   "axon.message.id",
	TagAggregateID: "axon.message.aggregate-identifier",
	TagMessageType: "axon.message.type",
	TagPayloadType: "axon.message.payload-type",
	TagMessageName: "axon.message.message-name",
	TagPayload:     "axon.message.payload",
}

// Key returns the span tag key t is recorded under, or "" for an unknown tag.
func (t MessageTag) Key() string { return tagKeys[t] }

// Valid reports whether t is a known tag.
func (t MessageTag) Valid() bool { return t.Key() != "" }

// MessageTags is an ordered list of tags. It can be decoded from a
// comma-separated string, from the environment or YAML.
type MessageTags []MessageTag

// ParseMessageTags parses a comma or space separated list of tag names.
// Names are case-insensitive and may use dashes instead of underscores.
// Unknown names are logged and skipped.
func ParseMessageTags(s string) MessageTags {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return parseTagNames(fields)
}

func parseTagNames(names []string) MessageTags {
	tags := make(MessageTags, 0, len(names))
	for _, n := range names {
		tag := MessageTag(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(n)), "-", "_"))
		if tag == "" {
			continue
		}
		if !tag.Valid() {
			log.Warn("Unknown message tag %q, ignoring it", n)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// Decode implements envconfig.Decoder.
func (ts *MessageTags) Decode(value string) error {
	*ts = ParseMessageTags(value)
	return nil
}

// UnmarshalYAML accepts either a sequence of tag names or a single
// comma-separated string.
func (ts *MessageTags) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var names []string
	if err := unmarshal(&names); err == nil {
		*ts = parseTagNames(names)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("message tags must be a list or a comma-separated string: %w", err)
	}
	*ts = ParseMessageTags(s)
	return nil
}

// String implements fmt.Stringer.
func (ts MessageTags) String() string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = string(t)
	}
	return strings.Join(names, ",")
}

// TagConfig lists the tags recorded for each message category.
type TagConfig struct {
	CommandTags MessageTags
	EventTags   MessageTags
	QueryTags   MessageTags
}

// DefaultTagConfig returns the tags recorded when nothing else is configured.
func DefaultTagConfig() TagConfig {
	return TagConfig{
		CommandTags: MessageTags{TagMessageID, TagMessageType, TagPayloadType, TagMessageName},
		EventTags:   MessageTags{TagMessageID, TagAggregateID, TagMessageType, TagPayloadType},
		QueryTags:   MessageTags{TagMessageID, TagMessageType, TagPayloadType, TagMessageName},
	}
}

type tagFunc func(opentracing.Tags, messaging.Message)

var taggers = map[MessageTag]tagFunc{
	TagMessageID: func(tags opentracing.Tags, m messaging.Message) {
		tags[TagMessageID.Key()] = m.Identifier()
	},
	TagAggregateID: func(tags opentracing.Tags, m messaging.Message) {
		// only domain events belong to an aggregate
		if dm, ok := m.(messaging.DomainEventMessage); ok {
			tags[TagAggregateID.Key()] = dm.AggregateIdentifier()
		}
	},
	TagMessageType: func(tags opentracing.Tags, m messaging.Message) {
		tags[TagMessageType.Key()] = MessageTypeOf(m)
	},
	TagPayloadType: func(tags opentracing.Tags, m messaging.Message) {
		tags[TagPayloadType.Key()] = messaging.TypeName(m.PayloadType())
	},
	TagMessageName: func(tags opentracing.Tags, m messaging.Message) {
		tags[TagMessageName.Key()] = MessageName(m)
	},
	TagPayload: func(tags opentracing.Tags, m messaging.Message) {
		tags[TagPayload.Key()] = fmt.Sprintf("%+v", m.Payload())
	},
}

// TagService computes the span tags of messages.
type TagService struct {
	command []tagFunc
	event   []tagFunc
	query   []tagFunc
}

// NewTagService returns a TagService recording the tags of cfg, in order.
func NewTagService(cfg TagConfig) *TagService {
	return &TagService{
		command: compileTags("command", cfg.CommandTags),
		event:   compileTags("event", cfg.EventTags),
		query:   compileTags("query", cfg.QueryTags),
	}
}

func compileTags(category string, tags MessageTags) []tagFunc {
	fns := make([]tagFunc, 0, len(tags))
	for _, t := range tags {
		fn, ok := taggers[t]
		if !ok {
			log.Warn("Unknown tag %q configured for %s messages, ignoring it", t, category)
			continue
		}
		fns = append(fns, fn)
	}
	return fns
}

// Tags returns the tags of m according to its category. Messages of an
// unsupported category get no tags.
func (s *TagService) Tags(m messaging.Message) opentracing.Tags {
	switch mm := m.(type) {
	case messaging.CommandMessage:
		return s.CommandTags(mm)
	case messaging.QueryMessage:
		return s.QueryTags(mm)
	case messaging.EventMessage:
		return s.EventTags(mm)
	default:
		log.Warn("Message of type [%T] cannot be tagged", m)
		return opentracing.Tags{}
	}
}

// CommandTags returns the configured command tags of m.
func (s *TagService) CommandTags(m messaging.CommandMessage) opentracing.Tags {
	return apply(s.command, m)
}

// EventTags returns the configured event tags of m.
func (s *TagService) EventTags(m messaging.EventMessage) opentracing.Tags {
	return apply(s.event, m)
}

// QueryTags returns the configured query tags of m.
func (s *TagService) QueryTags(m messaging.QueryMessage) opentracing.Tags {
	return apply(s.query, m)
}

func apply(fns []tagFunc, m messaging.Message) opentracing.Tags {
	tags := make(opentracing.Tags, len(fns))
	for _, fn := range fns {
		fn(tags, m)
	}
	return tags
}
