// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for adjutant package tests.
//
// [RequireReceive], [RequireSend], [RequireClosed], and
// [RequireNoReceive] wrap channel operations in a select with a real
// wall-clock timeout so a broken test hangs for a bounded time instead
// of forever. They are the only place the test suite touches real
// time; everything else drives a clock.FakeClock.
//
// [UniqueID] hands out monotonically increasing identifiers for tests
// that need distinguishable task or conversation ids without reaching
// for time.Now().
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since a failed test setup is not recoverable.
package testutil
