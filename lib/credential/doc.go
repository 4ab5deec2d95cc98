// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential manages Adjutant's on-disk secrets: the API
// token, sealed with age to a local x25519 identity, and the archive
// sealing key, a raw 32-byte key stored as hex.
//
// The token never exists on disk in plaintext. `adjutant credential
// seal` encrypts it to the identity in the credentials directory;
// the engine decrypts it at startup into a secret.Buffer (mmap-backed,
// locked against swap, zeroed on close) and hands that buffer to the
// LLM client. Decrypted material lives outside the Go heap for its
// whole lifetime.
//
// Credential files are written with 0600 permissions via temp file and
// atomic rename, the same write discipline as the task ledger.
package credential
