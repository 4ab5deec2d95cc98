// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package assistant defines the session boundary the dispatch engine
// consumes: running a prompt inside a conversation and posting a
// notification line. The engine imposes its own timeouts around
// Execute; implementations should run until told to stop.
//
// lib/llm provides the production Runner. Tests substitute in-memory
// fakes; nothing in this package performs I/O.
package assistant

import "context"

// Runner executes a prompt in the named conversation of a model
// instance and returns the assistant's final text. Implementations
// must honor ctx cancellation promptly; the dispatch engine cancels
// mid-call on phase timeout and job cancellation.
type Runner interface {
	Execute(ctx context.Context, instance, conversationID, prompt string) (string, error)
}

// Notifier posts a line into a conversation. Delivery is best-effort:
// callers log a returned error and move on, so implementations should
// not retry indefinitely.
type Notifier interface {
	Notify(ctx context.Context, instance, conversationID, text string) error
}
