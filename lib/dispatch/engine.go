// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adjutant-works/adjutant/lib/assistant"
	"github.com/adjutant-works/adjutant/lib/clock"
	"github.com/adjutant-works/adjutant/lib/ledger"
	"github.com/adjutant-works/adjutant/lib/worker"
)

// Default per-phase deadlines for the verified pipeline. The standard
// pipeline has no internal deadline; the registry's timeout sweep is
// its backstop.
const (
	DefaultResearchTimeout     = 10 * time.Minute
	DefaultVerificationTimeout = 10 * time.Minute
)

// notifyTimeout bounds the detached contexts used for Director
// notifications and history rows after a job reaches a terminal state.
const notifyTimeout = 30 * time.Second

// Standard-pipeline results are capped before completion so a chatty
// session cannot bloat the ledger.
const (
	maxResultRunes   = 500
	truncationMarker = " [truncated]"
)

// Job kinds and outcomes, as recorded on history rows.
const (
	KindStandard = "standard"
	KindVerified = "verified"

	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Job is one submission. Task and TaskID are required; Verification
// selects the two-phase research pipeline over the standard one.
type Job struct {
	TaskID       string
	Task         string
	Verification bool
}

// Ack acknowledges a submission. It is returned before the pipeline
// has done any work; Message is operator-facing text for the
// submitting surface.
type Ack struct {
	TaskID  string
	Message string
}

// JobRecord is one terminal-state history row.
type JobRecord struct {
	TaskID     string
	Kind       string
	Outcome    string
	Detail     string
	ArchiveRef string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ReportArchiver stores a combined verification report and returns an
// opaque reference for the ledger entry and the history row.
type ReportArchiver interface {
	Put(data []byte, label string) (string, error)
}

// HistoryRecorder appends one row per job that reaches a terminal
// state. Append failures are logged and swallowed.
type HistoryRecorder interface {
	Append(ctx context.Context, record JobRecord) error
}

// Config configures an Engine.
type Config struct {
	// WorkDir hosts the .outbox directory that verified-pipeline
	// artifacts are written under.
	WorkDir string

	// Instance identifies this assistant on the Runner and Notifier.
	Instance string

	// DirectorConversation is the conversation id that receives the
	// per-job outcome notifications.
	DirectorConversation string

	// Ledger records job state. Required.
	Ledger *ledger.Store

	// Registry tracks in-flight pipelines. Required.
	Registry *worker.Registry

	// Runner executes pipeline phases. Required.
	Runner assistant.Runner

	// Notifier delivers Director notifications. Required.
	Notifier assistant.Notifier

	// Archiver, when set, receives the combined report of every
	// verified job that completes.
	Archiver ReportArchiver

	// History, when set, receives one row per terminal job state.
	History HistoryRecorder

	// ResearchTimeout and VerificationTimeout bound the verified
	// pipeline's phases. Both default to ten minutes.
	ResearchTimeout     time.Duration
	VerificationTimeout time.Duration

	// Clock drives phase deadlines and history timestamps. Defaults
	// to clock.Real().
	Clock clock.Clock

	// Logger receives pipeline progress and swallowed errors.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine turns submissions into tracked background pipelines. One
// engine owns one ledger, one registry, and one Director conversation;
// Close cancels everything it started.
type Engine struct {
	workDir             string
	instance            string
	director            string
	ledger              *ledger.Store
	registry            *worker.Registry
	runner              assistant.Runner
	notifier            assistant.Notifier
	archiver            ReportArchiver
	history             HistoryRecorder
	researchTimeout     time.Duration
	verificationTimeout time.Duration
	clock               clock.Clock
	log                 *slog.Logger

	// background parents every pipeline context; stop cancels it.
	background context.Context
	stop       context.CancelFunc
}

// NewEngine validates the config and returns an Engine ready to accept
// submissions.
func NewEngine(cfg Config) (*Engine, error) {
	switch {
	case cfg.WorkDir == "":
		return nil, fmt.Errorf("dispatch engine requires a work directory")
	case cfg.Instance == "":
		return nil, fmt.Errorf("dispatch engine requires an instance name")
	case cfg.DirectorConversation == "":
		return nil, fmt.Errorf("dispatch engine requires a director conversation")
	case cfg.Ledger == nil:
		return nil, fmt.Errorf("dispatch engine requires a ledger store")
	case cfg.Registry == nil:
		return nil, fmt.Errorf("dispatch engine requires a worker registry")
	case cfg.Runner == nil:
		return nil, fmt.Errorf("dispatch engine requires a runner")
	case cfg.Notifier == nil:
		return nil, fmt.Errorf("dispatch engine requires a notifier")
	}
	if cfg.ResearchTimeout <= 0 {
		cfg.ResearchTimeout = DefaultResearchTimeout
	}
	if cfg.VerificationTimeout <= 0 {
		cfg.VerificationTimeout = DefaultVerificationTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	background, stop := context.WithCancel(context.Background())
	return &Engine{
		workDir:             cfg.WorkDir,
		instance:            cfg.Instance,
		director:            cfg.DirectorConversation,
		ledger:              cfg.Ledger,
		registry:            cfg.Registry,
		runner:              cfg.Runner,
		notifier:            cfg.Notifier,
		archiver:            cfg.Archiver,
		history:             cfg.History,
		researchTimeout:     cfg.ResearchTimeout,
		verificationTimeout: cfg.VerificationTimeout,
		clock:               cfg.Clock,
		log:                 cfg.Logger,
		background:          background,
		stop:                stop,
	}, nil
}

// jobState is the identity a pipeline carries through its terminal
// bookkeeping.
type jobState struct {
	id        string
	task      string
	kind      string
	startedAt time.Time
}

// Submit validates the job, records it in the ledger, and spawns its
// pipeline. It returns as soon as the Active entry is written; the
// returned Ack never waits on the pipeline. An empty or
// whitespace-only task or task id is rejected with a ValidationError
// before anything is touched.
func (e *Engine) Submit(ctx context.Context, job Job) (Ack, error) {
	if err := ctx.Err(); err != nil {
		return Ack{}, err
	}

	id := strings.TrimSpace(job.TaskID)
	task := strings.TrimSpace(job.Task)
	if task == "" {
		return Ack{}, &ValidationError{Reason: "job has no task text"}
	}
	if id == "" {
		return Ack{}, &ValidationError{Reason: "job has no task id"}
	}

	if err := e.ledger.AddActive(id, task); err != nil {
		return Ack{}, fmt.Errorf("recording job in ledger: %w", err)
	}

	state := jobState{id: id, task: task, kind: KindStandard, startedAt: e.clock.Now()}
	run := e.runStandard
	if job.Verification {
		state.kind = KindVerified
		run = e.runVerified
	}
	e.registry.Register(e.background, id, task, func(ctx context.Context) error {
		return run(ctx, state)
	})

	e.log.Info("job dispatched", "task", id, "kind", state.kind)
	message := fmt.Sprintf("task %s dispatched", id)
	if job.Verification {
		message = fmt.Sprintf("task %s dispatched with verification", id)
	}
	return Ack{TaskID: id, Message: message}, nil
}

// Cancel requests cancellation of one in-flight job. It reports
// whether the job was found; the pipeline's own cleanup and
// notification follow asynchronously.
func (e *Engine) Cancel(id string) bool {
	return e.registry.Cancel(id)
}

// Close cancels every job registered through this engine's registry
// and waits for their pipelines to finish their cleanup and
// notifications.
func (e *Engine) Close() {
	e.stop()
	e.registry.CancelAll()
}

// JobConversation is the conversation id a job's Runner traffic is
// scoped to, so pipeline phases share session state with each other
// and nothing else. Exposed for callers that manage session
// transcripts around the engine.
func JobConversation(id string) string {
	return "job-" + id
}

// notify delivers one Director notification on a context detached
// from the job, so a cancelled pipeline can still report its own
// cancellation. Delivery failures are logged, never propagated.
func (e *Engine) notify(text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(e.background), notifyTimeout)
	defer cancel()
	if err := e.notifier.Notify(ctx, e.instance, e.director, text); err != nil {
		e.log.Warn("notifying director", "error", err)
	}
}

// completeJob records a successful terminal state: Done ledger entry,
// completion notification, history row.
func (e *Engine) completeJob(job jobState, summary, notification, archiveRef string) {
	if err := e.ledger.CompleteWithArtifact(job.id, summary, archiveRef); err != nil {
		e.log.Error("recording job completion", "task", job.id, "error", err)
	}
	e.notify(notification)
	e.record(job, OutcomeCompleted, summary, archiveRef)
}

// failJob records a failed terminal state: in-place ledger status,
// FAILED notification, history row. Persistence problems are logged
// and swallowed; the pipeline goroutine has nowhere to return them.
func (e *Engine) failJob(job jobState, reason string) {
	if err := e.ledger.Fail(job.id, reason); err != nil {
		e.log.Error("recording job failure", "task", job.id, "error", err)
	}
	e.notify(fmt.Sprintf("[task %s] FAILED: %s", job.id, reason))
	e.record(job, OutcomeFailed, reason, "")
}

// cancelJob reports a cancellation. The ledger entry is deliberately
// left as-is; its dispatched status is the visible evidence of where
// the job stopped.
func (e *Engine) cancelJob(job jobState) {
	e.notify(fmt.Sprintf("[task %s] cancelled before completion", job.id))
	e.record(job, OutcomeCancelled, "", "")
}

// isCancelled reports whether a phase ended because the job was
// cancelled, whether the context fired first or the runner surfaced
// the cancellation itself.
func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// record appends the job's history row when a recorder is configured.
func (e *Engine) record(job jobState, outcome, detail, archiveRef string) {
	if e.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(e.background), notifyTimeout)
	defer cancel()
	err := e.history.Append(ctx, JobRecord{
		TaskID:     job.id,
		Kind:       job.kind,
		Outcome:    outcome,
		Detail:     detail,
		ArchiveRef: archiveRef,
		StartedAt:  job.startedAt,
		FinishedAt: e.clock.Now(),
	})
	if err != nil {
		e.log.Warn("recording job history", "task", job.id, "error", err)
	}
}

// truncateResult caps a pipeline result for the ledger summary,
// marking the cut.
func truncateResult(s string) string {
	if utf8.RuneCountInString(s) <= maxResultRunes {
		return s
	}
	return string([]rune(s)[:maxResultRunes]) + truncationMarker
}
