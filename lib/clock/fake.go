// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock pinned at initial. Nothing fires until
// Advance moves time past a deadline. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.registered = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock for tests. Timers, tickers, and
// sleeps park as pending events and fire, in deadline order, when
// Advance crosses their deadline.
//
// AfterFunc callbacks run synchronously inside Advance; calling Sleep
// or Advance from such a callback deadlocks.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	pending    []*pendingEvent
	registered *sync.Cond
}

// pendingEvent is one parked timer, ticker cycle, or sleep.
type pendingEvent struct {
	deadline time.Time

	// Exactly one of ch and fn is set: ch receives the fire time for
	// After/Sleep/Ticker events, fn runs synchronously for AfterFunc.
	ch chan time.Time
	fn func()

	// every is the ticker period; zero for one-shot events.
	every time.Duration

	stopped bool
	fired   bool
}

// Now returns the frozen current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After parks a one-shot event. Non-positive durations deliver
// immediately without registering anything.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.park(&pendingEvent{deadline: c.now.Add(d), ch: ch})
	return ch
}

// Sleep blocks until Advance crosses the deadline. Non-positive
// durations return immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// AfterFunc parks a callback event. Non-positive durations invoke f
// synchronously before returning; the resulting Timer is inert.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	event := &pendingEvent{deadline: c.now.Add(d), fn: f}
	c.park(event)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if event.stopped || event.fired {
				return false
			}
			event.stopped = true
			return true
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			active := !event.stopped && !event.fired
			event.stopped = false
			event.fired = false
			event.deadline = c.now.Add(d)
			if !active {
				// The event was dropped from the pending list when it
				// fired (or will be skipped as stopped); re-park it.
				c.park(event)
			}
			return active
		},
	}
}

// NewTicker parks a repeating event. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker interval must be positive")
	}

	c.mu.Lock()
	ch := make(chan time.Time, 1)
	event := &pendingEvent{deadline: c.now.Add(d), ch: ch, every: d}
	c.park(event)
	c.mu.Unlock()

	return &Ticker{
		C: ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			event.stopped = true
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			event.every = d
			event.deadline = c.now.Add(d)
			event.stopped = false
		},
	}
}

// park appends an event and wakes WaitForTimers. Caller holds c.mu.
func (c *FakeClock) park(event *pendingEvent) {
	c.pending = append(c.pending, event)
	c.registered.Broadcast()
}

// Advance moves time forward by d and fires every event whose deadline
// falls within the new time, in deadline order. Channel deliveries are
// non-blocking (a full buffer drops the tick, matching time.Ticker);
// callbacks run synchronously in the calling goroutine. Tickers whose
// period fits multiple times into d fire once per period.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	// Loop because firing a ticker reschedules it, possibly still
	// within the target window.
	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, event := range due {
			switch {
			case event.fn != nil:
				event.fn()
			case event.ch != nil:
				select {
				case event.ch <- target:
				default:
				}
			}
		}
	}
}

// takeDue removes events due at or before target from the pending
// list, rescheduling tickers for their next period.
func (c *FakeClock) takeDue(target time.Time) []*pendingEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, keep []*pendingEvent
	for _, event := range c.pending {
		switch {
		case event.stopped:
			// Dropped entirely.
		case event.deadline.After(target):
			keep = append(keep, event)
		default:
			due = append(due, event)
		}
	}
	for _, event := range due {
		if event.every > 0 {
			event.deadline = event.deadline.Add(event.every)
			keep = append(keep, event)
		} else {
			event.fired = true
		}
	}
	c.pending = keep
	return due
}

// WaitForTimers blocks until at least n events are pending. This is
// the synchronization point between a goroutine registering a timer
// and the test advancing the clock past it.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.registered.Wait()
	}
}

// PendingCount reports the number of live pending events.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *FakeClock) activeLocked() int {
	n := 0
	for _, event := range c.pending {
		if !event.stopped {
			n++
		}
	}
	return n
}
