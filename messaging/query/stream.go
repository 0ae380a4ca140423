// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package query

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Stream is a pull-based sequence of values. Next returns io.EOF once the
// stream is exhausted; any other error terminates the stream. Close releases
// the stream early and may be called more than once.
type Stream[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = errors.New("stream closed")

// SliceStream returns a stream yielding items in order.
func SliceStream[T any](items ...T) Stream[T] {
	return &sliceStream[T]{items: items}
}

type sliceStream[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
}

func (s *sliceStream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return zero, ErrStreamClosed
	}
	if len(s.items) == 0 {
		return zero, io.EOF
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v, nil
}

func (s *sliceStream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}

// ErrorStream returns a stream failing with err on the first Next.
func ErrorStream[T any](err error) Stream[T] {
	return &errorStream[T]{err: err}
}

type errorStream[T any] struct{ err error }

func (s *errorStream[T]) Next(context.Context) (T, error) {
	var zero T
	return zero, s.err
}

func (s *errorStream[T]) Close() error { return nil }

// MapStream returns a stream applying fn to every value of s. An error from
// fn terminates the mapped stream.
func MapStream[T, U any](s Stream[T], fn func(T) (U, error)) Stream[U] {
	return &mapStream[T, U]{src: s, fn: fn}
}

type mapStream[T, U any] struct {
	src Stream[T]
	fn  func(T) (U, error)
}

func (s *mapStream[T, U]) Next(ctx context.Context) (U, error) {
	v, err := s.src.Next(ctx)
	if err != nil {
		var zero U
		return zero, err
	}
	return s.fn(v)
}

func (s *mapStream[T, U]) Close() error { return s.src.Close() }

// Collect drains s and closes it. It returns the values read before the
// stream ended, along with the terminating error unless it was io.EOF.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	defer s.Close()
	var out []T
	for {
		v, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}
