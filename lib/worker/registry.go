// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package worker tracks in-flight background jobs. Each registered
// job runs in its own goroutine under a cancellable context; the
// registry keeps a handle for the job's lifetime, supports targeted
// and wholesale cancellation, and runs a timeout sweep that reaps
// jobs exceeding a global age limit.
//
// The registry knows nothing about pipelines or ledgers. The dispatch
// engine registers its pipeline bodies here and owns everything they
// do; the registry owns only liveness, cancellation, and outcome
// logging.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adjutant-works/adjutant/lib/clock"
)

// Handle is one live background job. Its fields are immutable after
// registration; the handle disappears from the registry when the
// job's goroutine terminates, whatever the outcome.
type Handle struct {
	ID          string
	Description string
	StartedAt   time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed once the job has fully terminated and left the
// registry.
func (h *Handle) Done() <-chan struct{} { return h.done }

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Clock drives StartedAt stamps and the timeout sweep. Defaults
	// to clock.Real().
	Clock clock.Clock

	// Logger receives one record per job outcome. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Registry is a concurrency-safe map of live jobs.
type Registry struct {
	clock clock.Clock
	log   *slog.Logger

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		clock:   cfg.Clock,
		log:     cfg.Logger,
		handles: make(map[string]*Handle),
	}
}

// Register spawns run in a goroutine under a context derived from
// ctx and tracks it until it returns. The outcome category (finished,
// cancelled, failed) is logged; the error itself stays with run,
// which is expected to have handled it before returning.
//
// Reusing a live id is a caller contract violation; the newer handle
// shadows the older in the registry, though both goroutines run to
// completion.
func (r *Registry) Register(ctx context.Context, id, description string, run func(context.Context) error) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	handle := &Handle{
		ID:          id,
		Description: description,
		StartedAt:   r.clock.Now(),
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	r.mu.Lock()
	r.handles[id] = handle
	r.mu.Unlock()

	go func() {
		err := run(runCtx)
		cancel()
		r.remove(id, handle)
		switch {
		case err == nil:
			r.log.Info("worker finished", "id", id)
		case errors.Is(err, context.Canceled):
			r.log.Info("worker cancelled", "id", id)
		default:
			r.log.Warn("worker failed", "id", id, "error", err)
		}
		close(handle.done)
	}()

	return handle
}

// remove drops the handle, but only if it still owns its id. A
// shadowed handle must not evict its replacement.
func (r *Registry) remove(id string, handle *Handle) {
	r.mu.Lock()
	if r.handles[id] == handle {
		delete(r.handles, id)
	}
	r.mu.Unlock()
}

// Active returns the live handles, oldest first.
func (r *Registry) Active() []*Handle {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, handle := range r.handles {
		handles = append(handles, handle)
	}
	r.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool {
		if handles[i].StartedAt.Equal(handles[j].StartedAt) {
			return handles[i].ID < handles[j].ID
		}
		return handles[i].StartedAt.Before(handles[j].StartedAt)
	})
	return handles
}

// Cancel requests cancellation of the named job. Returns false when
// the id is unknown or the job already terminated.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	handle, ok := r.handles[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	handle.cancel()
	return true
}

// CancelAll cancels every live job and blocks until each has fully
// terminated. For graceful shutdown: no job is left orphaned mid
// pipeline.
func (r *Registry) CancelAll() {
	handles := r.Active()
	for _, handle := range handles {
		handle.cancel()
	}
	for _, handle := range handles {
		<-handle.done
	}
}

// RunTimeoutSweep cancels any job older than timeout, checking every
// interval, until ctx is done. This is a coarse safety net behind the
// per-phase timeouts the dispatch engine applies itself; a job caught
// here is one whose own timeouts failed to fire.
func (r *Registry) RunTimeoutSweep(ctx context.Context, interval, timeout time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.clock.Now()
			for _, handle := range r.Active() {
				age := now.Sub(handle.StartedAt)
				if age > timeout {
					r.log.Warn("worker exceeded the global timeout, cancelling",
						"id", handle.ID, "age", age, "timeout", timeout)
					handle.cancel()
				}
			}
		}
	}
}
