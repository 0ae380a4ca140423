// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package command provides the command bus and the command gateway.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// Callback is notified with the outcome of a dispatched command.
type Callback interface {
	OnResult(cmd messaging.CommandMessage, result messaging.ResultMessage)
}

// CallbackFunc adapts a function to a Callback.
type CallbackFunc func(cmd messaging.CommandMessage, result messaging.ResultMessage)

// OnResult implements Callback.
func (f CallbackFunc) OnResult(cmd messaging.CommandMessage, result messaging.ResultMessage) {
	f(cmd, result)
}

// NoOpCallback ignores every result.
var NoOpCallback Callback = CallbackFunc(func(messaging.CommandMessage, messaging.ResultMessage) {})

// FutureCallback returns a callback completing f with the payload of the
// result, or with its exception.
func FutureCallback(f *messaging.Future) Callback {
	return CallbackFunc(func(_ messaging.CommandMessage, r messaging.ResultMessage) {
		if r.IsExceptional() {
			f.Complete(nil, r.Exception())
			return
		}
		f.Complete(r.Payload(), nil)
	})
}

// Bus dispatches commands to the single handler subscribed for their name.
type Bus interface {
	// Dispatch sends cmd to its handler and reports the outcome to cb, which
	// may be invoked on another goroutine.
	Dispatch(ctx context.Context, cmd messaging.CommandMessage, cb Callback)
	// Subscribe registers h as the handler of commands named name.
	Subscribe(name string, h messaging.MessageHandler) messaging.Registration
	RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration
	RegisterHandlerInterceptor(in messaging.HandlerInterceptor) messaging.Registration
}

// Gateway is the convenience interface for sending commands.
type Gateway interface {
	// Send dispatches command and returns a future completed with the result.
	Send(ctx context.Context, command any) *messaging.Future
	// SendWithCallback dispatches command and reports the outcome to cb.
	SendWithCallback(ctx context.Context, command any, cb Callback)
	// SendAndWait dispatches command and blocks until a result is available
	// or ctx is done.
	SendAndWait(ctx context.Context, command any) (any, error)
	// SendAndWaitTimeout is SendAndWait bounded by timeout.
	SendAndWaitTimeout(ctx context.Context, command any, timeout time.Duration) (any, error)
	RegisterDispatchInterceptor(in messaging.DispatchInterceptor) messaging.Registration
}

// Await waits for f. Failures reported by the handler are returned as is,
// while giving up on the wait because ctx is done yields a
// *messaging.CommandExecutionError.
func Await(ctx context.Context, f *messaging.Future) (any, error) {
	v, err := f.Get(ctx)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		var cee *messaging.CommandExecutionError
		if errors.As(err, &cee) {
			return nil, err
		}
		return nil, &messaging.CommandExecutionError{Msg: "command execution was not awaited", Cause: err}
	}
	return nil, err
}
