// Package timeutil supplies the clock used to stamp stored grids and carve
// runs, so tests can pin or step time.
package timeutil

import (
	"sync"
	"time"
)

// Clock reports wall-clock time.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time                  { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// ManualClock only moves when told to, or by a fixed step after every Now
// when created with NewSteppingClock.
type ManualClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

// NewManualClock returns a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{t: start}
}

// NewSteppingClock returns a clock that reads start first and then moves
// forward by step after each read. Successive stamps are strictly ordered.
func NewSteppingClock(start time.Time, step time.Duration) *ManualClock {
	return &ManualClock{t: start, step: step}
}

// Now returns the current reading and applies the step, if any.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

// Peek returns the next reading without stepping.
func (c *ManualClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Since measures from t to the next reading without stepping.
func (c *ManualClock) Since(t time.Time) time.Duration {
	return c.Peek().Sub(t)
}
