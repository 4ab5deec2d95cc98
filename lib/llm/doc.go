// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm is the production session backend: an HTTP client for
// Anthropic-style messages APIs plus a conversation layer that
// implements assistant.Runner and assistant.Notifier.
//
// The Client speaks the wire format; the Session keeps per-conversation
// transcripts so consecutive Execute calls in one conversation share
// context, which is what lets the verified pipeline's verification
// phase see its own research phase. Notifications are folded into the
// target conversation's transcript as bracketed notes.
//
// The API token is borrowed as a secret.Buffer and read at request
// time; it never lands in a heap string that outlives the request.
package llm
