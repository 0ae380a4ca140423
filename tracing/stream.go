// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"context"
	"errors"
	"io"

	"github.com/AxonFramework/extension-tracing-go/messaging/query"
)

// tracedStream logs an event on its span for every value read. When
// finishOnEnd is set the span is finished once the stream ends, fails or is
// closed, whichever happens first.
type tracedStream[T any] struct {
	src         query.Stream[T]
	span        *spanFinisher
	event       string
	finishOnEnd bool
}

func (s *tracedStream[T]) Next(ctx context.Context) (T, error) {
	v, err := s.src.Next(ctx)
	switch {
	case err == nil:
		s.span.event(s.event)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// the caller stopped waiting, the stream itself is still open
	case !s.finishOnEnd:
	case errors.Is(err, io.EOF):
		s.span.finish("", nil)
	default:
		s.span.finish("", err)
	}
	return v, err
}

func (s *tracedStream[T]) Close() error {
	if s.finishOnEnd {
		s.span.finish("", nil)
	}
	return s.src.Close()
}
