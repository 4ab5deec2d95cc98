// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledgerui is a full-screen terminal viewer for the task
// ledger. It shows one tab per ledger section, a fuzzy-filterable
// entry list, and a detail pane that renders an entry's fields plus
// its archived report (when the entry carries an archive reference)
// as styled terminal markdown.
//
// The viewer is read-only: it never takes the ledger mutation lock
// and never writes. With watching enabled it follows ledger writes
// via inotify on the parent directory, which catches both in-place
// writes and the atomic temp-and-rename the ledger store performs.
package ledgerui
