// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/adjutant-works/adjutant/lib/archive"
	"github.com/adjutant-works/adjutant/lib/config"
	"github.com/adjutant-works/adjutant/lib/credential"
	"github.com/adjutant-works/adjutant/lib/dispatch"
	"github.com/adjutant-works/adjutant/lib/history"
	"github.com/adjutant-works/adjutant/lib/ledger"
	"github.com/adjutant-works/adjutant/lib/llm"
	"github.com/adjutant-works/adjutant/lib/secret"
	"github.com/adjutant-works/adjutant/lib/worker"
)

// systemPrompt frames every session the engine drives. Kept short;
// the per-phase prompts carry the real instructions.
const systemPrompt = "You are Adjutant, a background research assistant. " +
	"You work on one task at a time and follow output instructions exactly."

// loadConfig resolves the configuration: an explicit --config path
// wins, otherwise the ADJUTANT_CONFIG environment variable.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runtime is the assembled engine and its supporting stores. Close
// tears everything down in dependency order.
type runtime struct {
	Config   *config.Config
	Ledger   *ledger.Store
	Registry *worker.Registry
	Session  *llm.Session
	Archive  *archive.Store
	History  *history.Store
	Engine   *dispatch.Engine

	token      *secret.Buffer
	archiveKey *secret.Buffer
	sweepStop  context.CancelFunc
}

// historyRecorder adapts the history store to the engine's recorder
// interface.
type historyRecorder struct {
	store *history.Store
}

func (r historyRecorder) Append(ctx context.Context, record dispatch.JobRecord) error {
	return r.store.Append(ctx, history.Record{
		TaskID:     record.TaskID,
		Kind:       record.Kind,
		Outcome:    record.Outcome,
		Detail:     record.Detail,
		ArchiveRef: record.ArchiveRef,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
	})
}

// buildRuntime assembles the full dispatch stack from configuration:
// ledger store, worker registry with its timeout sweep, LLM session,
// report archive, history store, and the engine wiring them together.
func buildRuntime(cfg *config.Config, log *slog.Logger) (*runtime, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	timing := cfg.Timing()

	ledgerStore, err := ledger.NewStore(ledger.StoreConfig{
		Path:   cfg.Paths.Ledger,
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	registry := worker.NewRegistry(worker.RegistryConfig{Logger: log})

	token, err := credential.OpenToken(cfg.Assistant.CredentialFile, cfg.Assistant.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("opening API token (run 'adjutant credential seal' first?): %w", err)
	}

	client, err := llm.NewClient(llm.ClientConfig{
		BaseURL:    cfg.Assistant.BaseURL,
		Model:      cfg.Assistant.Model,
		MaxTokens:  cfg.Assistant.MaxTokens,
		Token:      token,
		HTTPClient: &http.Client{Timeout: timing.RequestTimeout},
	})
	if err != nil {
		token.Close()
		return nil, err
	}
	session, err := llm.NewSession(llm.SessionConfig{
		Client: client,
		System: systemPrompt,
		Logger: log,
	})
	if err != nil {
		token.Close()
		return nil, err
	}

	// The archive key is optional unless sealing is on; without it,
	// reports are archived in the clear.
	var archiveKey *secret.Buffer
	if _, err := os.Stat(cfg.Archive.KeyFile); err == nil {
		archiveKey, err = credential.LoadArchiveKey(cfg.Archive.KeyFile)
		if err != nil {
			token.Close()
			return nil, err
		}
	} else if cfg.Archive.Sealed {
		token.Close()
		return nil, fmt.Errorf("archive.sealed is set but key file %s is missing", cfg.Archive.KeyFile)
	}

	archiveStore, err := archive.NewStore(archive.Config{
		Dir:         cfg.Paths.Archive,
		Compression: cfg.Archive.Compression,
		Key:         archiveKey,
		Logger:      log,
	})
	if err != nil {
		token.Close()
		closeBuffer(archiveKey)
		return nil, err
	}

	historyStore, err := history.Open(history.Config{
		Path:   cfg.Paths.History,
		Logger: log,
	})
	if err != nil {
		token.Close()
		closeBuffer(archiveKey)
		return nil, err
	}

	engine, err := dispatch.NewEngine(dispatch.Config{
		WorkDir:              cfg.Paths.Work,
		Instance:             cfg.Assistant.Instance,
		DirectorConversation: cfg.Assistant.DirectorConversation,
		Ledger:               ledgerStore,
		Registry:             registry,
		Runner:               session,
		Notifier:             session,
		Archiver:             archiveStore,
		History:              historyRecorder{store: historyStore},
		ResearchTimeout:      timing.ResearchTimeout,
		VerificationTimeout:  timing.VerificationTimeout,
		Logger:               log,
	})
	if err != nil {
		token.Close()
		closeBuffer(archiveKey)
		historyStore.Close()
		return nil, err
	}

	sweepCtx, sweepStop := context.WithCancel(context.Background())
	go registry.RunTimeoutSweep(sweepCtx, timing.SweepInterval, timing.JobTimeout)

	return &runtime{
		Config:     cfg,
		Ledger:     ledgerStore,
		Registry:   registry,
		Session:    session,
		Archive:    archiveStore,
		History:    historyStore,
		Engine:     engine,
		token:      token,
		archiveKey: archiveKey,
		sweepStop:  sweepStop,
	}, nil
}

// Close cancels in-flight jobs, waits for their cleanup, and releases
// every store and secret.
func (rt *runtime) Close() {
	rt.sweepStop()
	rt.Engine.Close()
	if err := rt.History.Close(); err != nil {
		slog.Warn("closing history store", "error", err)
	}
	rt.token.Close()
	closeBuffer(rt.archiveKey)
}

func closeBuffer(buffer *secret.Buffer) {
	if buffer != nil {
		buffer.Close()
	}
}
