// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into everything that schedules,
// sleeps, or stamps dates. Real() backs it with the time package;
// Fake() gives tests full control.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc schedules f to run after d. The returned Timer cancels
	// the pending call via Stop; its C field is nil, matching
	// time.AfterFunc.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering on C every d. Panics if
	// d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C. The channel has capacity 1;
// ticks a slow consumer misses are dropped, matching time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop ends tick delivery. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the interval and restarts the cycle; the next tick
// arrives after the new duration.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }

// Timer is a single scheduled event. Timers from AfterFunc have a nil
// C field.
type Timer struct {
	C <-chan time.Time

	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the timer. Returns false if it already fired or was
// already stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Reset re-arms the timer to fire after d. Returns whether the timer
// was still active.
func (t *Timer) Reset(d time.Duration) bool { return t.reset(d) }
