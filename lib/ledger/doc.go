// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger implements the sectioned task ledger: a plain-text,
// human-readable record of background jobs across their lifecycle.
//
// A [Ledger] is a pure in-memory document with no locking and no I/O.
// [Store] layers persistence on top: every mutation re-reads the file,
// applies the change, and atomically replaces the file, serialized by
// one mutex per store so concurrent mutations never lose updates.
//
// # File format
//
// UTF-8 text. A title line, then the four canonical sections in fixed
// order (Active, Waiting, Parked, Done; headings rendered even when
// empty), then any non-canonical sections encountered in a loaded
// document. Entries open with a dash line and carry two-space-indented
// fields; a blank line closes the entry:
//
//	# Task Ledger
//
//	## Active
//
//	- id: research-gc-latency
//	  description: Compare GC pause behavior across runtimes
//	  started: 2026-03-14
//	  status: worker dispatched
//
//	## Waiting
//
//	## Parked
//
//	## Done
//
// The parser is deliberately tolerant: a "Done" heading with a suffix
// annotation still lands in Done, unknown sections and fields survive
// a round trip, and a non-blank line that is neither heading, entry,
// nor field is space-joined onto the entry's most recent field rather
// than discarded. Round-trip property: Parse(Render(Parse(x))) equals
// Parse(x) for any document x.
//
// # Concurrency
//
// Ledger and Entry are not safe for concurrent use. Store mutations
// are; [Store.ReadAll] takes a lock-free snapshot and may trail an
// in-flight mutation by one write.
//
// # Duplicate ids
//
// Lookups scan sections in order and take the first id match. The
// store does not enforce id uniqueness; callers own that contract and
// a duplicate id shadows its later twins until the first is removed.
package ledger
