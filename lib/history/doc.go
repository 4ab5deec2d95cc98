// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package history is the append-only job outcome log. The dispatch
// engine writes one row per job that reaches a terminal state; the
// ledger shows current state, history shows everything that ever ran,
// including jobs whose ledger entries were pruned long ago.
//
// Rows live in a single SQLite table behind a sqlitepool connection
// pool. There are no updates and no deletes; `adjutant history` reads
// the most recent rows.
package history
