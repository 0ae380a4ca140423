// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import (
	"errors"
	"fmt"
)

// ErrNoHandler is returned when no handler is subscribed for a message.
var ErrNoHandler = errors.New("no handler subscribed")

// ConfigurationError reports a component that was assembled with missing or
// conflicting collaborators.
type ConfigurationError struct {
	Msg string
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// CommandExecutionError reports a command whose execution could not be
// awaited, typically because the caller's context was canceled or timed out.
type CommandExecutionError struct {
	Msg   string
	Cause error
}

// Error implements error.
func (e *CommandExecutionError) Error() string {
	if e.Cause == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
}

// Unwrap returns the cause.
func (e *CommandExecutionError) Unwrap() error { return e.Cause }

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Unwrap returns the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
