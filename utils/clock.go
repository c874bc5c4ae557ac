package utils

import (
	"sync"
	"time"
)

// Clock abstracts the time operations used by the settings cache and the
// browser print stagger so tests can control them deterministically.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the production Clock backed by the time package
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// FakeClock is a manually driven Clock for tests.
// After never blocks: it records the requested delay and fires at once.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waits   []time.Duration
}

// NewFakeClock returns a FakeClock frozen at the given time
func NewFakeClock(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the fake time forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// After records d and returns a channel that has already fired
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	ch <- c.current.Add(d)
	return ch
}

// Waits returns every delay passed to After, in call order
func (c *FakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}
