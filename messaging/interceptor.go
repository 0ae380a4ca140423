// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import "context"

// DispatchInterceptor is invoked before messages are handed to a bus. It
// returns a function transforming the message at a given position of the
// batch; the function may return a new message but never mutates its input.
type DispatchInterceptor interface {
	Handle(ctx context.Context, messages []Message) func(i int, m Message) Message
}

// DispatchInterceptorFunc adapts a function to a DispatchInterceptor.
type DispatchInterceptorFunc func(ctx context.Context, messages []Message) func(int, Message) Message

// Handle implements DispatchInterceptor.
func (f DispatchInterceptorFunc) Handle(ctx context.Context, messages []Message) func(int, Message) Message {
	return f(ctx, messages)
}

// InterceptDispatch runs m through interceptors in order and returns the
// resulting message.
func InterceptDispatch(ctx context.Context, interceptors []DispatchInterceptor, m Message) Message {
	for _, in := range interceptors {
		m = in.Handle(ctx, []Message{m})(0, m)
	}
	return m
}

// MessageHandler handles a single message.
type MessageHandler interface {
	Handle(ctx context.Context, m Message) (any, error)
}

// HandlerFunc adapts a function to a MessageHandler.
type HandlerFunc func(ctx context.Context, m Message) (any, error)

// Handle implements MessageHandler.
func (f HandlerFunc) Handle(ctx context.Context, m Message) (any, error) {
	return f(ctx, m)
}

// InterceptorChain hands control to the next interceptor, or to the handler
// once every interceptor proceeded.
type InterceptorChain interface {
	// Proceed continues handling with ctx as the context of the remaining
	// interceptors and of the handler.
	Proceed(ctx context.Context) (any, error)
}

// HandlerInterceptor wraps the handling of a message within a unit of work.
type HandlerInterceptor interface {
	Handle(ctx context.Context, uow *UnitOfWork, chain InterceptorChain) (any, error)
}

// HandlerInterceptorFunc adapts a function to a HandlerInterceptor.
type HandlerInterceptorFunc func(ctx context.Context, uow *UnitOfWork, chain InterceptorChain) (any, error)

// Handle implements HandlerInterceptor.
func (f HandlerInterceptorFunc) Handle(ctx context.Context, uow *UnitOfWork, chain InterceptorChain) (any, error) {
	return f(ctx, uow, chain)
}

// NewInterceptorChain returns a chain running interceptors in order before
// handing the message of uow to handler.
func NewInterceptorChain(uow *UnitOfWork, interceptors []HandlerInterceptor, handler MessageHandler) InterceptorChain {
	return &interceptorChain{uow: uow, interceptors: interceptors, handler: handler}
}

type interceptorChain struct {
	uow          *UnitOfWork
	interceptors []HandlerInterceptor
	handler      MessageHandler
	pos          int
}

func (c *interceptorChain) Proceed(ctx context.Context) (any, error) {
	if c.pos < len(c.interceptors) {
		next := *c
		next.pos++
		return c.interceptors[c.pos].Handle(ctx, c.uow, &next)
	}
	return c.handler.Handle(ctx, c.uow.Message())
}
