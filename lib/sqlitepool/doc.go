// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides Adjutant's standard SQLite connection
// pool. It wraps zombiezen.com/go/sqlite with the defaults the job
// history store needs: WAL journal mode so the CLI can read while the
// engine writes, NORMAL synchronous for process-crash durability
// without fsync-per-commit overhead, and a busy timeout so contending
// writers wait instead of failing.
//
// The pool is built on zombiezen's sqlitex.Pool. Callers [Pool.Take] a
// connection, perform work, and [Pool.Put] it back. Connections are
// not safe for concurrent use; each goroutine holds its own for the
// duration of its work.
//
// The package is intentionally thin: standard pragmas, nothing else.
// Callers write SQL directly with sqlitex.Execute; there is no query
// builder and no abstraction over SQLite's connection model.
package sqlitepool
