package pipeline

import "sync/atomic"

// RebuildLock provides non-blocking lock semantics using atomic operations.
// A rebuild that finds the lock held reports failure immediately instead of
// queueing behind the running one.
type RebuildLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *RebuildLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *RebuildLock) Release() {
	l.state.Store(0)
}
