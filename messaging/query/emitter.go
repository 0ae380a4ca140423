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

	"github.com/eapache/queue/v2"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/messaging"
)

// ErrUpdateBufferOverflow terminates an update stream whose subscriber did
// not keep up with the emitted updates.
var ErrUpdateBufferOverflow = errors.New("subscription query update buffer overflow")

// DefaultUpdateBufferSize is used when a subscription query asks for a
// buffer size lower than one.
const DefaultUpdateBufferSize = 256

// UpdateEmitter delivers updates to active subscription queries.
type UpdateEmitter struct {
	mu   sync.RWMutex // guards subs
	subs map[*updateSubscription]struct{}
}

// NewUpdateEmitter returns an emitter without subscriptions.
func NewUpdateEmitter() *UpdateEmitter {
	return &UpdateEmitter{subs: make(map[*updateSubscription]struct{})}
}

// Emit sends update to every subscription whose query satisfies filter.
func (e *UpdateEmitter) Emit(filter func(messaging.QueryMessage) bool, update any) {
	msg := messaging.AsResultMessage(update)
	for _, s := range e.matching(filter) {
		s.push(msg)
	}
}

// EmitFor sends update to every subscription for queries named name.
func (e *UpdateEmitter) EmitFor(name string, update any) {
	e.Emit(byName(name), update)
}

// Complete ends the update streams of the subscriptions matching filter.
func (e *UpdateEmitter) Complete(filter func(messaging.QueryMessage) bool) {
	for _, s := range e.matching(filter) {
		s.close(nil)
	}
}

// CompleteExceptionally terminates the update streams of the subscriptions
// matching filter with err.
func (e *UpdateEmitter) CompleteExceptionally(filter func(messaging.QueryMessage) bool, err error) {
	for _, s := range e.matching(filter) {
		s.close(err)
	}
}

// ActiveSubscriptions returns the number of open subscriptions.
func (e *UpdateEmitter) ActiveSubscriptions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

func byName(name string) func(messaging.QueryMessage) bool {
	return func(q messaging.QueryMessage) bool { return q.QueryName() == name }
}

func (e *UpdateEmitter) matching(filter func(messaging.QueryMessage) bool) []*updateSubscription {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []*updateSubscription
	for s := range e.subs {
		if filter(s.query) {
			out = append(out, s)
		}
	}
	return out
}

func (e *UpdateEmitter) subscribe(q messaging.QueryMessage, bufferSize int) *updateSubscription {
	if bufferSize < 1 {
		bufferSize = DefaultUpdateBufferSize
	}
	s := &updateSubscription{
		emitter: e,
		query:   q,
		limit:   bufferSize,
		buf:     queue.New[messaging.ResultMessage](),
		signal:  make(chan struct{}, 1),
	}
	e.mu.Lock()
	e.subs[s] = struct{}{}
	e.mu.Unlock()
	return s
}

func (e *UpdateEmitter) unsubscribe(s *updateSubscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, s)
}

// updateSubscription buffers the updates of one subscription query and
// exposes them as a Stream.
type updateSubscription struct {
	emitter *UpdateEmitter
	query   messaging.QueryMessage
	limit   int
	signal  chan struct{}

	mu     sync.Mutex // guards below fields
	buf    *queue.Queue[messaging.ResultMessage]
	closed bool
	err    error
}

var _ Stream[messaging.ResultMessage] = (*updateSubscription)(nil)

func (s *updateSubscription) push(m messaging.ResultMessage) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.buf.Length() >= s.limit {
		s.mu.Unlock()
		log.Warn("Update buffer of subscription query [%s] is full, terminating the subscription", s.query.QueryName())
		s.close(ErrUpdateBufferOverflow)
		return
	}
	s.buf.Add(m)
	s.mu.Unlock()
	s.notify()
}

func (s *updateSubscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// close stops accepting updates. Buffered updates remain readable.
func (s *updateSubscription) close(err error) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed, s.err = true, err
	s.mu.Unlock()
	s.emitter.unsubscribe(s)
	s.notify()
	return true
}

// Next implements Stream.
func (s *updateSubscription) Next(ctx context.Context) (messaging.ResultMessage, error) {
	for {
		s.mu.Lock()
		if s.buf.Length() > 0 {
			m := s.buf.Remove()
			s.mu.Unlock()
			return m, nil
		}
		if s.closed {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		s.mu.Unlock()
		select {
		case <-s.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close implements Stream. Pending updates are discarded.
func (s *updateSubscription) Close() error {
	s.close(nil)
	s.mu.Lock()
	for s.buf.Length() > 0 {
		s.buf.Remove()
	}
	s.mu.Unlock()
	return nil
}

func (s *updateSubscription) cancel() bool {
	canceled := s.close(nil)
	_ = s.Close()
	return canceled
}
