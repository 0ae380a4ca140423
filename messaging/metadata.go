// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

// MetaData holds the key/value pairs attached to a message. A MetaData value
// must not be modified once it is attached to a message; use MergedWith to
// derive a new one.
type MetaData map[string]any

// Get returns the value stored under key, or nil.
func (md MetaData) Get(key string) any {
	return md[key]
}

// MergedWith returns a new MetaData holding the entries of md overridden by
// the entries of other. Neither md nor other are modified.
func (md MetaData) MergedWith(other map[string]any) MetaData {
	merged := make(MetaData, len(md)+len(other))
	for k, v := range md {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// copyOf returns a shallow copy of m, never nil.
func copyOf(m map[string]any) MetaData {
	return MetaData(nil).MergedWith(m)
}
