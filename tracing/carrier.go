// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"errors"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// ErrUnsupportedOperation is the panic value raised when a carrier is used
// in the direction it does not support.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// MetaDataExtractor is a read-only opentracing.TextMap carrier over the
// string-valued entries of message metadata.
type MetaDataExtractor struct {
	entries map[string]string
}

var (
	_ opentracing.TextMapReader = (*MetaDataExtractor)(nil)
	_ opentracing.TextMapWriter = (*MetaDataExtractor)(nil)
)

// NewMetaDataExtractor copies the string-valued entries of md. Other entries
// cannot hold propagation data and are skipped.
func NewMetaDataExtractor(md messaging.MetaData) *MetaDataExtractor {
	entries := make(map[string]string, len(md))
	for k, v := range md {
		if s, ok := v.(string); ok {
			entries[k] = s
		}
	}
	return &MetaDataExtractor{entries: entries}
}

// ForeachKey implements opentracing.TextMapReader.
func (c *MetaDataExtractor) ForeachKey(handler func(key, val string) error) error {
	for k, v := range c.entries {
		if err := handler(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Set always panics: an extractor is read-only.
func (c *MetaDataExtractor) Set(key, _ string) {
	panic(fmt.Errorf("%w: cannot set %q on a metadata extractor", ErrUnsupportedOperation, key))
}

// MetaDataInjector is a write-only opentracing.TextMap carrier collecting
// the entries a tracer injects.
type MetaDataInjector struct {
	md messaging.MetaData
}

var (
	_ opentracing.TextMapWriter = (*MetaDataInjector)(nil)
	_ opentracing.TextMapReader = (*MetaDataInjector)(nil)
)

// NewMetaDataInjector returns an empty injector.
func NewMetaDataInjector() *MetaDataInjector {
	return &MetaDataInjector{md: messaging.MetaData{}}
}

// Set implements opentracing.TextMapWriter.
func (c *MetaDataInjector) Set(key, val string) {
	log.Debug("Adding %s to message metadata", key)
	c.md[key] = val
}

// MetaData returns the entries set so far.
func (c *MetaDataInjector) MetaData() messaging.MetaData {
	return c.md
}

// ForeachKey always panics: an injector is write-only.
func (c *MetaDataInjector) ForeachKey(func(key, val string) error) error {
	panic(fmt.Errorf("%w: cannot iterate over a metadata injector", ErrUnsupportedOperation))
}
