// Package testutil holds helpers shared across package tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic replacement for time.Now in tests.
//
// Each call to Now returns the current instant and advances by a fixed step,
// so records created in sequence get strictly increasing, reproducible
// timestamps. That keeps store listing order and canonical export bytes
// stable across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewClock creates a clock starting at start, advancing by step per Now call.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start, now: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will produce, without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start instant so a scenario can replay with
// identical timestamps.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
