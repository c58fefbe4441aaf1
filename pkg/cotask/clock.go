package cotask

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic time source. Now returns the time elapsed since an
// arbitrary fixed origin.
type Clock interface {
	Now() time.Duration
}

// SystemClock reads the monotonic reading of the host clock.
type SystemClock struct {
	origin time.Time
}

// NewSystemClock creates a SystemClock with its origin at the current time.
func NewSystemClock() *SystemClock {
	return &SystemClock{origin: time.Now()}
}

// Now implements Clock.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.origin)
}

// ManualClock only moves when told to. It is meant for deterministic tests
// and simulations.
type ManualClock struct {
	now atomic.Int64
}

// Now implements Clock.
func (c *ManualClock) Now() time.Duration {
	return time.Duration(c.now.Load())
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) time.Duration {
	return time.Duration(c.now.Add(int64(d)))
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Duration) {
	c.now.Store(int64(t))
}

// SteppingClock advances by a fixed amount on every read, so the time spent
// in a step is never zero. Useful for exercising profiling in tests.
type SteppingClock struct {
	ManualClock
	Step time.Duration
}

// Now implements Clock.
func (c *SteppingClock) Now() time.Duration {
	return c.Advance(c.Step)
}
