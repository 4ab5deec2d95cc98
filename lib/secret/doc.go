// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive material
// such as API credentials and archive sealing keys.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, so the secret does not linger in freed heap pages after release.
//
// Constructors:
//
//   - [New] allocates a zero-filled buffer of a given size
//   - [NewFromBytes] copies into protected memory and zeros the source
//   - [ReadFromPath] loads a secret from a file or stdin
//
// Access the contents via [Buffer.Bytes] (a slice into the mmap
// region) or [Buffer.String] (a heap copy for API boundaries that
// insist on strings). [Buffer.Equal] compares in constant time. After
// Close, any access panics. Close is idempotent.
//
// Depends on golang.org/x/sys/unix. Imported by lib/credential for
// the completion API token and by lib/archive for the sealing key.
package secret
