// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock operations behind an injectable
// interface so that timeout and scheduling behavior is testable.
//
// Production code takes a Clock (usually as a config field defaulting
// to Real()) instead of calling time.Now, time.After, time.AfterFunc,
// time.NewTicker, or time.Sleep directly. Tests inject Fake(), a
// deterministic clock whose time moves only under Advance.
//
// # Testing timers deterministically
//
// A goroutine that registers a timer races against the test that wants
// to fire it. Rather than sleeping, block on WaitForTimers until the
// registration has happened, then advance:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	registry := worker.NewRegistry(worker.RegistryConfig{Clock: fake})
//	go registry.RunTimeoutSweep(ctx, time.Minute, time.Hour)
//	fake.WaitForTimers(1) // sweep ticker is now registered
//	fake.Advance(time.Hour)
package clock
