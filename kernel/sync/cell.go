package sync

// Cell couples a value with the Spinlock guarding it. The value can only be
// reached through With or TryWith, which hold the lock for the duration of
// the supplied callback. The zero value is an unlocked cell holding the zero
// value of T.
type Cell[T any] struct {
	lock  Spinlock
	value T
}

// NewCell returns a cell that owns v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// With acquires the cell lock, invokes fn with a pointer to the guarded value
// and releases the lock when fn returns or panics. fn must not retain the
// pointer.
func (c *Cell[T]) With(fn func(*T)) {
	c.lock.Acquire()
	defer c.lock.Release()

	fn(&c.value)
}

// TryWith behaves like With but gives up immediately if the lock is held,
// in which case fn is not invoked and TryWith returns false.
func (c *Cell[T]) TryWith(fn func(*T)) bool {
	if !c.lock.TryToAcquire() {
		return false
	}
	defer c.lock.Release()

	fn(&c.value)
	return true
}

// IsLocked reports whether some context is inside With or TryWith.
func (c *Cell[T]) IsLocked() bool {
	return c.lock.IsHeld()
}
