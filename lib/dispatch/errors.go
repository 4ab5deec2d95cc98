// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "errors"

// Pipeline phase names, as they appear in [PhaseError] and in failed
// ledger statuses.
const (
	PhaseResearch     = "research"
	PhaseVerification = "verification"
)

// ValidationError reports a job submission rejected before any state
// was touched. The caller can resubmit a corrected job; nothing was
// written to the ledger and no goroutine was spawned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PhaseError reports a verified-pipeline phase that did not produce a
// usable artifact. Reason is the operator-facing text recorded in the
// ledger status and the FAILED notification; Err carries the
// underlying cause when one exists.
type PhaseError struct {
	Phase  string
	Reason string
	Err    error
}

func (e *PhaseError) Error() string {
	return e.Reason
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// errPhaseTimedOut marks a phase that lost the race against its
// deadline. The pipeline translates it into a phase-specific reason
// before anything user-visible is written.
var errPhaseTimedOut = errors.New("phase timed out")
