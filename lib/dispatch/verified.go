// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// outboxDir is the directory under the engine's work directory that
// pipeline artifacts are exchanged through.
const outboxDir = ".outbox"

// ResearchArtifactPath returns the file the research phase instructs
// the session to write its claims report to.
func ResearchArtifactPath(workDir, taskID string) string {
	return filepath.Join(workDir, outboxDir, taskID+"-research.md")
}

// VerificationArtifactPath returns the file the verification phase
// writes its claim ratings to.
func VerificationArtifactPath(workDir, taskID string) string {
	return filepath.Join(workDir, outboxDir, taskID+"-verification.md")
}

// runVerified is the two-phase pipeline: research writes a structured
// claims report to the outbox, verification rates each claim, and the
// combined report completes the job. Research failures abort before
// verification is attempted. Both artifacts are removed on every exit
// path; archiving happens inside the pipeline body, before the cleanup
// defer fires.
func (e *Engine) runVerified(ctx context.Context, job jobState) error {
	researchPath := ResearchArtifactPath(e.workDir, job.id)
	verificationPath := VerificationArtifactPath(e.workDir, job.id)
	defer func() {
		e.removeArtifact(researchPath)
		e.removeArtifact(verificationPath)
	}()

	if err := os.MkdirAll(filepath.Dir(researchPath), 0755); err != nil {
		phaseErr := &PhaseError{
			Phase:  PhaseResearch,
			Reason: fmt.Sprintf("research error: creating outbox: %v", err),
			Err:    err,
		}
		e.failJob(job, phaseErr.Reason)
		return phaseErr
	}

	conversation := JobConversation(job.id)

	_, err := e.runPhase(ctx, conversation, researchPrompt(job.task, researchPath), e.researchTimeout)
	if isCancelled(ctx, err) {
		e.cancelJob(job)
		return context.Canceled
	}
	if err != nil {
		phaseErr := researchPhaseError(err, e.researchTimeout)
		e.failJob(job, phaseErr.Reason)
		return phaseErr
	}
	research, phaseErr := readResearchArtifact(researchPath)
	if phaseErr != nil {
		e.failJob(job, phaseErr.Reason)
		return phaseErr
	}

	_, err = e.runPhase(ctx, conversation, verificationPrompt(researchPath, verificationPath), e.verificationTimeout)
	if isCancelled(ctx, err) {
		e.cancelJob(job)
		return context.Canceled
	}
	if err != nil {
		phaseErr := verificationPhaseError(err, e.verificationTimeout)
		e.failJob(job, phaseErr.Reason)
		return phaseErr
	}
	verification, phaseErr := readVerificationArtifact(verificationPath)
	if phaseErr != nil {
		e.failJob(job, phaseErr.Reason)
		return phaseErr
	}

	tally := TallyVerdicts(verification)
	archiveRef := e.archiveReport(job, research, verification, tally)
	summary := fmt.Sprintf("research verified: %s", tally)
	notification := fmt.Sprintf("[task %s] completed with verification: %s", job.id, tally)
	e.completeJob(job, summary, notification, archiveRef)
	return nil
}

// phaseResult carries one Execute return across the timeout race.
type phaseResult struct {
	text string
	err  error
}

// runPhase races one Execute call against the phase deadline and the
// job's context. An Execute that outlives a lost race keeps the job's
// context, so the registry's teardown cancel still reaches it; its
// late result lands in the buffered channel and is dropped.
func (e *Engine) runPhase(ctx context.Context, conversationID, prompt string, timeout time.Duration) (string, error) {
	results := make(chan phaseResult, 1)
	go func() {
		text, err := e.runner.Execute(ctx, e.instance, conversationID, prompt)
		results <- phaseResult{text: text, err: err}
	}()

	select {
	case result := <-results:
		return result.text, result.err
	case <-e.clock.After(timeout):
		return "", errPhaseTimedOut
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// researchPhaseError translates a research-phase failure into its
// operator-facing reason.
func researchPhaseError(err error, timeout time.Duration) *PhaseError {
	if errors.Is(err, errPhaseTimedOut) {
		return &PhaseError{
			Phase:  PhaseResearch,
			Reason: fmt.Sprintf("research timed out after %s", timeout),
		}
	}
	return &PhaseError{
		Phase:  PhaseResearch,
		Reason: fmt.Sprintf("research error: %v", err),
		Err:    err,
	}
}

// verificationPhaseError translates a verification-phase failure. All
// reasons start with "verification failed" so the Director can filter
// on it.
func verificationPhaseError(err error, timeout time.Duration) *PhaseError {
	if errors.Is(err, errPhaseTimedOut) {
		return &PhaseError{
			Phase:  PhaseVerification,
			Reason: fmt.Sprintf("verification failed: timed out after %s", timeout),
		}
	}
	return &PhaseError{
		Phase:  PhaseVerification,
		Reason: fmt.Sprintf("verification failed: %v", err),
		Err:    err,
	}
}

// readResearchArtifact loads the research report, distinguishing a
// session that never wrote the artifact from one that wrote nothing
// usable.
func readResearchArtifact(path string) (string, *PhaseError) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", &PhaseError{Phase: PhaseResearch, Reason: "research did not produce structured output"}
	}
	if err != nil {
		return "", &PhaseError{
			Phase:  PhaseResearch,
			Reason: fmt.Sprintf("research error: reading structured output: %v", err),
			Err:    err,
		}
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", &PhaseError{Phase: PhaseResearch, Reason: "research structured output was empty"}
	}
	return content, nil
}

// readVerificationArtifact loads the claim ratings, with the same
// missing-versus-empty distinction as the research side.
func readVerificationArtifact(path string) (string, *PhaseError) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", &PhaseError{Phase: PhaseVerification, Reason: "verification failed: no structured output written"}
	}
	if err != nil {
		return "", &PhaseError{
			Phase:  PhaseVerification,
			Reason: fmt.Sprintf("verification failed: reading structured output: %v", err),
			Err:    err,
		}
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", &PhaseError{Phase: PhaseVerification, Reason: "verification failed: structured output was empty"}
	}
	return content, nil
}

// archiveReport stores the combined report when an archiver is
// configured, returning its reference. A storage failure downgrades to
// a log line and an unannotated Done entry.
func (e *Engine) archiveReport(job jobState, research, verification string, tally Tally) string {
	if e.archiver == nil {
		return ""
	}
	ref, err := e.archiver.Put(CombinedReport(job.id, job.task, research, verification, tally), job.id)
	if err != nil {
		e.log.Warn("archiving verification report", "task", job.id, "error", err)
		return ""
	}
	return ref
}

// removeArtifact deletes one outbox artifact, logging anything other
// than absence.
func (e *Engine) removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.log.Warn("removing pipeline artifact", "path", path, "error", err)
	}
}
