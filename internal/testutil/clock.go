package testutil

import (
	"sync"
	"time"
)

// TickingClock provides a thread-safe deterministic time source for tests.
//
// Each call to Now advances the clock by a fixed step, so persisted
// timestamps are distinct, ordered, and reproducible. Plug it into the
// store with SetNowFunc:
//
//	clock := testutil.NewTickingClock()
//	st.SetNowFunc(clock.Now)
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type TickingClock struct {
	mu    sync.Mutex
	epoch time.Time
	now   time.Time
	step  time.Duration
}

// NewTickingClock creates a clock starting at a fixed epoch, advancing
// one second per Now call.
func NewTickingClock() *TickingClock {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &TickingClock{epoch: epoch, now: epoch, step: time.Second}
}

// Now advances the clock by one step and returns the new time.
func (c *TickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Current returns the current time without advancing.
func (c *TickingClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its epoch for test reuse.
func (c *TickingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.epoch
}
