// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "sync"

// Registration is returned for every subscription so it can be undone.
type Registration interface {
	// Cancel removes the subscription. It reports whether the subscription
	// was still active.
	Cancel() bool
}

// RegistrationFunc adapts a function to a Registration which runs at most once.
func RegistrationFunc(fn func()) Registration {
	return &funcRegistration{fn: fn}
}

type funcRegistration struct {
	once sync.Once
	fn   func()
}

func (r *funcRegistration) Cancel() bool {
	canceled := false
	r.once.Do(func() {
		r.fn()
		canceled = true
	})
	return canceled
}
