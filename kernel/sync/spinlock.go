// Package sync provides the busy-wait mutual exclusion primitives shared by
// normal kernel code and interrupt handlers.
package sync

import "sync/atomic"

var (
	// yieldFn, when set, runs between two failed acquisition attempts. The
	// kernel leaves it nil and spins; host tests plug in runtime.Gosched.
	yieldFn func()
)

// Spinlock implements a lock where each context trying to acquire it
// busy-waits till the lock becomes available.
//
// A Spinlock is not reentrant: acquiring a lock already held by the current
// context spins forever. Locks that are also taken by interrupt handlers must
// be acquired with interrupts disabled (see cpu.WithoutInterrupts).
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired.
func (l *Spinlock) Acquire() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		if yieldFn != nil {
			yieldFn()
		}
	}
}

// TryToAcquire makes a single attempt to acquire the lock and returns true
// if it succeeded. A failed attempt leaves the lock state untouched.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock allowing other contexts to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// IsHeld reports whether the lock is currently held by anyone.
func (l *Spinlock) IsHeld() bool {
	return atomic.LoadUint32(&l.state) == 1
}
