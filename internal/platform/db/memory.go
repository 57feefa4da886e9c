package db

import (
	"context"
	"sync"
)

// Snapshot is implemented by in-memory state that can be copied for rollback.
type Snapshot[S any] interface {
	Clone() S
}

type memoryTxKey struct {
	owner any
}

// Memory gives in-memory adapters the same transaction semantics as
// Transactor: one writer at a time, and a failed WithinTx restores the state
// that existed before it started.
type Memory[S Snapshot[S]] struct {
	mu    sync.Mutex
	state S
}

func NewMemory[S Snapshot[S]](initial S) *Memory[S] {
	return &Memory[S]{state: initial}
}

func (m *Memory[S]) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.state.Clone()
	if err := fn(context.WithValue(ctx, memoryTxKey{owner: m}, true)); err != nil {
		m.state = before
		return err
	}
	return nil
}

// Read runs fn against the current state; it joins an open transaction.
func (m *Memory[S]) Read(ctx context.Context, fn func(state *S)) {
	if m.inTx(ctx) {
		fn(&m.state)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
}

// Write mutates state atomically; outside a transaction it opens one.
func (m *Memory[S]) Write(ctx context.Context, fn func(state *S) error) error {
	return m.WithinTx(ctx, func(context.Context) error {
		return fn(&m.state)
	})
}

func (m *Memory[S]) inTx(ctx context.Context) bool {
	held, _ := ctx.Value(memoryTxKey{owner: m}).(bool)
	return held
}
