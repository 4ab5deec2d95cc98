// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var start = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNowTracksAdvance(t *testing.T) {
	fake := Fake(start)
	if got := fake.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
	fake.Advance(90 * time.Second)
	if got, want := fake.Now(), start.Add(90*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestAfterFiresAtDeadline(t *testing.T) {
	fake := Fake(start)
	ch := fake.After(3 * time.Second)

	select {
	case <-ch:
		t.Fatal("After delivered before Advance")
	default:
	}

	fake.Advance(2 * time.Second)
	select {
	case <-ch:
		t.Fatal("After delivered before its deadline")
	default:
	}

	fake.Advance(time.Second)
	select {
	case <-ch:
	default:
		t.Fatal("After did not deliver at its deadline")
	}
}

func TestAfterNonPositiveDeliversImmediately(t *testing.T) {
	fake := Fake(start)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-fake.After(d):
		default:
			t.Fatalf("After(%v) did not deliver immediately", d)
		}
	}
	if got := fake.PendingCount(); got != 0 {
		t.Fatalf("immediate delivery registered %d pending events, want 0", got)
	}
}

func TestAfterFuncRunsOnce(t *testing.T) {
	fake := Fake(start)
	var calls atomic.Int32
	fake.AfterFunc(time.Second, func() { calls.Add(1) })

	fake.Advance(time.Second)
	fake.Advance(time.Second)
	fake.Advance(time.Second)

	if got := calls.Load(); got != 1 {
		t.Fatalf("AfterFunc ran %d times, want 1", got)
	}
}

func TestAfterFuncZeroRunsSynchronously(t *testing.T) {
	fake := Fake(start)
	ran := false
	fake.AfterFunc(0, func() { ran = true })
	if !ran {
		t.Fatal("AfterFunc(0) did not run before returning")
	}
}

func TestAfterFuncStop(t *testing.T) {
	fake := Fake(start)
	var ran atomic.Bool
	timer := fake.AfterFunc(2*time.Second, func() { ran.Store(true) })

	if !timer.Stop() {
		t.Fatal("Stop on a pending timer returned false")
	}
	if timer.Stop() {
		t.Fatal("second Stop returned true")
	}

	fake.Advance(time.Minute)
	if ran.Load() {
		t.Fatal("stopped callback still ran")
	}
}

func TestAfterFuncStopAfterFire(t *testing.T) {
	fake := Fake(start)
	timer := fake.AfterFunc(time.Second, func() {})
	fake.Advance(time.Second)
	if timer.Stop() {
		t.Fatal("Stop on a fired timer returned true")
	}
}

func TestAfterFuncReset(t *testing.T) {
	fake := Fake(start)
	var ran atomic.Bool
	timer := fake.AfterFunc(time.Hour, func() { ran.Store(true) })

	if !timer.Reset(2 * time.Second) {
		t.Fatal("Reset on an active timer returned false")
	}
	fake.Advance(2 * time.Second)
	if !ran.Load() {
		t.Fatal("callback did not run at the reset deadline")
	}
}

func TestTickerDeliversPerInterval(t *testing.T) {
	fake := Fake(start)
	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		fake.Advance(time.Second)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("no tick after interval %d", i+1)
		}
	}
}

func TestTickerDropsWhenBufferFull(t *testing.T) {
	fake := Fake(start)
	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	// Five intervals with nobody reading: capacity 1, rest dropped.
	fake.Advance(5 * time.Second)

	select {
	case <-ticker.C:
	default:
		t.Fatal("expected one buffered tick")
	}
	select {
	case <-ticker.C:
		t.Fatal("expected overflow ticks to be dropped")
	default:
	}
}

func TestTickerStop(t *testing.T) {
	fake := Fake(start)
	ticker := fake.NewTicker(time.Second)
	ticker.Stop()
	fake.Advance(time.Minute)

	select {
	case <-ticker.C:
		t.Fatal("tick delivered after Stop")
	default:
	}
}

func TestTickerReset(t *testing.T) {
	fake := Fake(start)
	ticker := fake.NewTicker(time.Hour)
	defer ticker.Stop()

	ticker.Reset(time.Second)
	fake.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after Reset to a shorter interval")
	}
}

func TestTickerPanicsOnNonPositiveInterval(t *testing.T) {
	fake := Fake(start)
	defer func() {
		if recover() == nil {
			t.Fatal("NewTicker(0) did not panic")
		}
	}()
	fake.NewTicker(0)
}

func TestSleepBlocksUntilAdvance(t *testing.T) {
	fake := Fake(start)
	done := make(chan struct{})
	go func() {
		fake.Sleep(5 * time.Second)
		close(done)
	}()

	fake.WaitForTimers(1)
	fake.Advance(5 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestSleepNonPositiveReturns(t *testing.T) {
	fake := Fake(start)
	fake.Sleep(0)
	fake.Sleep(-time.Minute)
}

func TestCallbacksFireInDeadlineOrder(t *testing.T) {
	fake := Fake(start)

	var mu sync.Mutex
	var order []int
	record := func(n int) func() {
		return func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}
	fake.AfterFunc(3*time.Second, record(3))
	fake.AfterFunc(1*time.Second, record(1))
	fake.AfterFunc(2*time.Second, record(2))

	fake.Advance(time.Minute)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("fire order = %v, want [1 2 3]", order)
	}
}

func TestWaitForTimersSeesConcurrentRegistrations(t *testing.T) {
	fake := Fake(start)
	for i := 0; i < 4; i++ {
		go fake.Sleep(time.Minute)
	}
	fake.WaitForTimers(4)
	if got := fake.PendingCount(); got != 4 {
		t.Fatalf("PendingCount() = %d, want 4", got)
	}
}

func TestPendingCountExcludesStoppedAndFired(t *testing.T) {
	fake := Fake(start)
	ticker := fake.NewTicker(time.Second)
	fake.After(time.Second)
	fake.After(time.Hour)

	if got := fake.PendingCount(); got != 3 {
		t.Fatalf("PendingCount() = %d, want 3", got)
	}

	ticker.Stop()
	fake.Advance(time.Second)
	if got := fake.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() after stop and fire = %d, want 1", got)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	fake := Fake(start)
	const n = 16

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			fake.After(time.Second)
			fake.Now()
		}()
	}
	wg.Wait()

	fake.WaitForTimers(n)
	fake.Advance(time.Second)
}

func TestInterfaceSatisfaction(t *testing.T) {
	var _ Clock = (*FakeClock)(nil)
	var _ Clock = Real()
}
