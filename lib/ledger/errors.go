// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import "fmt"

// PersistenceError reports a failed atomic ledger write. The on-disk
// file is intact: writes land in a temporary file that is removed on
// any failure, so the ledger is never left partial or missing.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting ledger %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
