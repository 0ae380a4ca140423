// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "sync"

// Registry is a concurrency-safe ordered list of subscribed values, such as
// interceptors or handlers.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries []*registryEntry[T]
}

type registryEntry[T any] struct{ v T }

// Register appends v and returns a Registration removing it again.
func (r *Registry[T]) Register(v T) Registration {
	e := &registryEntry[T]{v: v}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return RegistrationFunc(func() { r.remove(e) })
}

func (r *Registry[T]) remove(e *registryEntry[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.entries {
		if cur == e {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// Snapshot returns the registered values in registration order.
func (r *Registry[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vals := make([]T, len(r.entries))
	for i, e := range r.entries {
		vals[i] = e.v
	}
	return vals
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
