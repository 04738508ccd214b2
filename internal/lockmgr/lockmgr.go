// Package lockmgr provides per-key mutual exclusion for write operations.
//
// Locks are created lazily on first use and kept for the lifetime of the
// Manager. Keys are logical resource names, so the registry is bounded by the
// static resource table. The registry mutex only guards lookup and creation;
// it is never held while a caller is inside a critical section.
package lockmgr

import (
	"context"
	"sync"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// ErrCodeLockCancelled is returned when a caller's context ends while it is
// waiting for a key that another caller holds.
const ErrCodeLockCancelled types.ErrorCode = "LOCK_ACQUIRE_CANCELLED"

// keyLock is a one-slot semaphore. A channel is used instead of sync.Mutex so
// that waiting can be abandoned when the caller's context is done.
type keyLock chan struct{}

// Manager hands out exclusive access per key.
type Manager struct {
	mu    sync.Mutex
	locks map[string]keyLock
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		locks: make(map[string]keyLock),
	}
}

func (m *Manager) lockFor(key string) keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = make(keyLock, 1)
		m.locks[key] = l
	}
	return l
}

// Acquire blocks until the caller holds key or ctx is done. The returned
// release function must be called exactly once; extra calls are ignored.
func (m *Manager) Acquire(ctx context.Context, key string) (func(), error) {
	l := m.lockFor(key)

	// Prefer the lock over an already-cancelled context only when it is free.
	select {
	case l <- struct{}{}:
	default:
		select {
		case l <- struct{}{}:
		case <-ctx.Done():
			return nil, types.WrapError(ErrCodeLockCancelled,
				"gave up waiting for lock on "+key, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l })
	}, nil
}

// Len returns the number of keys that have ever been locked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// WithLock runs fn while holding key and returns its result. fn is not run if
// the lock could not be acquired.
func WithLock[T any](ctx context.Context, m *Manager, key string, fn func() T) (T, error) {
	release, err := m.Acquire(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()

	return fn(), nil
}
