// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package messaging

import (
	"context"
	"fmt"
	"sync"
)

// Phase is a stage in the lifecycle of a UnitOfWork.
type Phase int

const (
	// NotStarted is the phase of a new unit of work.
	NotStarted Phase = iota
	// Started is entered by Start.
	Started
	// PrepareCommit is the first stage of Commit.
	PrepareCommit
	// Commit is the stage in which commit handlers run.
	Commit
	// Rollback is entered by Rollback.
	Rollback
	// AfterCommit runs after a successful commit.
	AfterCommit
	// Cleanup runs after commit or rollback, exactly once.
	Cleanup
	// Closed is the final phase.
	Closed
)

var phaseNames = [...]string{"NotStarted", "Started", "PrepareCommit", "Commit", "Rollback", "AfterCommit", "Cleanup", "Closed"}

// String implements fmt.Stringer.
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// UnitOfWork coordinates the handling of a single message. Handlers
// registered for a phase run when the unit of work enters it. Commit-side
// handlers run in registration order, rollback and cleanup handlers in
// reverse order.
type UnitOfWork struct {
	mu            sync.Mutex
	message       Message
	phase         Phase
	handlers      map[Phase][]func(*UnitOfWork)
	providers     []CorrelationDataProvider
	rollbackCause error
}

// NewUnitOfWork returns a unit of work for m in the NotStarted phase.
func NewUnitOfWork(m Message) *UnitOfWork {
	return &UnitOfWork{
		message:  m,
		handlers: make(map[Phase][]func(*UnitOfWork)),
	}
}

type uowKey struct{}

// WithUnitOfWork returns a copy of ctx carrying uow.
func WithUnitOfWork(ctx context.Context, uow *UnitOfWork) context.Context {
	return context.WithValue(ctx, uowKey{}, uow)
}

// CurrentUnitOfWork returns the unit of work carried by ctx, if any.
func CurrentUnitOfWork(ctx context.Context) (*UnitOfWork, bool) {
	uow, ok := ctx.Value(uowKey{}).(*UnitOfWork)
	return uow, ok && uow != nil
}

// Message returns the message being handled.
func (u *UnitOfWork) Message() Message {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.message
}

// TransformMessage replaces the message being handled with fn's result.
func (u *UnitOfWork) TransformMessage(fn func(Message) Message) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.message = fn(u.message)
}

// Phase returns the current phase.
func (u *UnitOfWork) Phase() Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase
}

// RollbackCause returns the error passed to Rollback, if any.
func (u *UnitOfWork) RollbackCause() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rollbackCause
}

// OnPrepareCommit registers fn to run before commit.
func (u *UnitOfWork) OnPrepareCommit(fn func(*UnitOfWork)) { u.on(PrepareCommit, fn) }

// OnCommit registers fn to run on commit.
func (u *UnitOfWork) OnCommit(fn func(*UnitOfWork)) { u.on(Commit, fn) }

// AfterCommit registers fn to run after a successful commit.
func (u *UnitOfWork) AfterCommit(fn func(*UnitOfWork)) { u.on(AfterCommit, fn) }

// OnRollback registers fn to run on rollback.
func (u *UnitOfWork) OnRollback(fn func(*UnitOfWork)) { u.on(Rollback, fn) }

// OnCleanup registers fn to run once the unit of work committed or rolled back.
func (u *UnitOfWork) OnCleanup(fn func(*UnitOfWork)) { u.on(Cleanup, fn) }

func (u *UnitOfWork) on(p Phase, fn func(*UnitOfWork)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.handlers[p] = append(u.handlers[p], fn)
}

// Start moves the unit of work to the Started phase.
func (u *UnitOfWork) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.phase != NotStarted {
		return fmt.Errorf("unit of work already started, phase %s", u.phase)
	}
	u.phase = Started
	return nil
}

// Commit runs the commit handlers followed by the cleanup handlers.
func (u *UnitOfWork) Commit() error {
	if err := u.expect(Started); err != nil {
		return err
	}
	u.enter(PrepareCommit, false)
	u.enter(Commit, false)
	u.enter(AfterCommit, true)
	u.enter(Cleanup, true)
	u.setPhase(Closed)
	return nil
}

// Rollback runs the rollback handlers followed by the cleanup handlers.
func (u *UnitOfWork) Rollback(cause error) error {
	if err := u.expect(Started); err != nil {
		return err
	}
	u.mu.Lock()
	u.rollbackCause = cause
	u.mu.Unlock()
	u.enter(Rollback, true)
	u.enter(Cleanup, true)
	u.setPhase(Closed)
	return nil
}

// ExecuteWithResult runs fn within the unit of work, starting it if needed.
// The unit of work commits when fn succeeds and rolls back when it returns
// an error or panics.
func (u *UnitOfWork) ExecuteWithResult(ctx context.Context, fn func(ctx context.Context) (any, error)) ResultMessage {
	if u.Phase() == NotStarted {
		if err := u.Start(); err != nil {
			return NewExceptionalResultMessage(err, nil)
		}
	}
	res, err := invoke(WithUnitOfWork(ctx, u), fn)
	if err != nil {
		if rerr := u.Rollback(err); rerr != nil {
			return NewExceptionalResultMessage(rerr, nil)
		}
		return NewExceptionalResultMessage(err, nil)
	}
	if cerr := u.Commit(); cerr != nil {
		return NewExceptionalResultMessage(cerr, nil)
	}
	if r, ok := res.(ResultMessage); ok {
		return r
	}
	return NewResultMessage(res, nil)
}

func invoke(ctx context.Context, fn func(ctx context.Context) (any, error)) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx)
}

func (u *UnitOfWork) expect(p Phase) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.phase != p {
		return fmt.Errorf("unit of work in phase %s, expected %s", u.phase, p)
	}
	return nil
}

func (u *UnitOfWork) setPhase(p Phase) {
	u.mu.Lock()
	u.phase = p
	u.mu.Unlock()
}

func (u *UnitOfWork) enter(p Phase, reverse bool) {
	u.mu.Lock()
	u.phase = p
	handlers := u.handlers[p]
	u.handlers[p] = nil
	u.mu.Unlock()
	if reverse {
		for i := len(handlers) - 1; i >= 0; i-- {
			handlers[i](u)
		}
		return
	}
	for _, fn := range handlers {
		fn(u)
	}
}

// RegisterCorrelationDataProvider adds p to the providers consulted by
// CorrelationData.
func (u *UnitOfWork) RegisterCorrelationDataProvider(p CorrelationDataProvider) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.providers = append(u.providers, p)
}

// CorrelationData returns the metadata every message created while handling
// this unit of work should carry.
func (u *UnitOfWork) CorrelationData(ctx context.Context) MetaData {
	u.mu.Lock()
	providers := append([]CorrelationDataProvider(nil), u.providers...)
	m := u.message
	u.mu.Unlock()
	md := MetaData{}
	for _, p := range providers {
		for k, v := range p.CorrelationDataFor(ctx, m) {
			md[k] = v
		}
	}
	return md
}
