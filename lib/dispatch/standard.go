// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"fmt"
)

// runStandard is the single-phase pipeline: one Execute call whose
// result completes the ledger entry and whose error fails it in place.
// The returned error exists only for the registry's outcome log; every
// user-visible consequence is already recorded before returning.
func (e *Engine) runStandard(ctx context.Context, job jobState) error {
	result, err := e.runner.Execute(ctx, e.instance, JobConversation(job.id), job.task)
	if isCancelled(ctx, err) {
		e.cancelJob(job)
		return context.Canceled
	}
	if err != nil {
		e.failJob(job, err.Error())
		return err
	}

	summary := truncateResult(result)
	e.completeJob(job, summary, fmt.Sprintf("[task %s] completed: %s", job.id, summary), "")
	return nil
}
