// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var counter atomic.Uint64

// UniqueID returns "prefix-N" with N monotonically increasing across
// the process. Gives tests distinguishable task ids, conversation ids,
// and summaries without involving the clock.
//
//	id := testutil.UniqueID("task") // "task-1", "task-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, counter.Add(1))
}
