// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch implements the background-job engine: intake of
// job submissions, pipeline execution, and end-to-end lifecycle
// bookkeeping across the ledger, the worker registry, and the
// Director's notification channel.
//
// [Engine.Submit] validates the job, writes the initial Active ledger
// entry, spawns the pipeline goroutine, and returns an acknowledgment
// without waiting for any of the pipeline's work. Every later outcome
// reaches the caller only through the ledger file and exactly one
// Director notification per job.
//
// # Pipelines
//
// The standard pipeline is a single Execute call: the result (capped
// at 500 runes) completes the ledger entry, or the error fails it in
// place.
//
// The verified pipeline runs two bounded phases. Research instructs
// the session to write a structured claims report to the job's outbox
// artifact; verification instructs it to rate each claim CONFIRMED,
// CONFLICTING, or UNVERIFIED into a second artifact. Research aborts
// the job on a raised error, a phase timeout, or a missing or empty
// artifact, without attempting verification. Both artifacts are
// removed before the job's goroutine exits, on every path including
// cancellation; with an archiver configured, the combined report is
// archived first and its reference lands on the Done entry.
//
// # Failure containment
//
// Pipeline errors never escape their goroutine. They are translated
// into a failed ledger status and a FAILED notification, then handed
// to the registry purely for outcome logging. Cancellation is not a
// failure: the ledger entry is left as-is and the notification says
// cancelled.
package dispatch
