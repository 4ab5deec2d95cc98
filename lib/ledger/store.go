// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/adjutant-works/adjutant/lib/clock"
)

// StatusDispatched is the status stamped on a freshly added Active
// entry. The dispatch engine's tests assert this exact string.
const StatusDispatched = "worker dispatched"

// failedStatusPrefix introduces the failure reason in a Fail update.
const failedStatusPrefix = "failed -- "

// Descriptions and failure reasons are capped before sanitizing so a
// pathological caller cannot bloat the ledger.
const (
	maxDescriptionRunes = 200
	maxReasonRunes      = 200
)

const dateLayout = "2006-01-02"

// StoreConfig configures a Store.
type StoreConfig struct {
	// Path is the ledger file. A missing file reads as an empty
	// ledger; the first mutation creates it.
	Path string

	// Clock stamps the started and completed dates. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives debug-level mutation records. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Store persists a Ledger to one file. Every mutation re-reads the
// file, applies the change in memory, and atomically replaces the
// file, all under a single mutex, so concurrent mutations interleave
// without losing updates.
type Store struct {
	path  string
	clock clock.Clock
	log   *slog.Logger

	// mu serializes the read-modify-write cycle of every mutation.
	mu sync.Mutex
}

// NewStore validates the config and returns a Store. The ledger file
// itself is not touched until the first mutation.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger store requires a file path")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{path: cfg.Path, clock: cfg.Clock, log: cfg.Logger}, nil
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// ReadAll returns a snapshot of the current ledger without taking the
// mutation lock. The snapshot may trail an in-flight mutation by one
// write; status displays tolerate that.
func (s *Store) ReadAll() (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger file: %w", err)
	}
	return Parse(data), nil
}

// AddActive inserts a new entry at the head of Active with the
// description (capped at 200 runes), today's date, and the dispatched
// status. Id uniqueness is the caller's contract; the store inserts
// unconditionally.
func (s *Store) AddActive(id, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ReadAll()
	if err != nil {
		return err
	}

	entry := &Entry{ID: id}
	entry.Set("description", Sanitize(truncateRunes(description, maxDescriptionRunes)))
	entry.Set("started", s.clock.Now().Format(dateLayout))
	entry.Set("status", StatusDispatched)
	l.insertHead(SectionActive, entry)

	if err := s.replace(l); err != nil {
		return err
	}
	s.log.Debug("ledger entry added", "id", id)
	return nil
}

// Complete moves the entry to the head of Done, replacing its fields
// with the completion date and the sanitized summary. An artifacts
// field on the removed entry survives the move. When the id is absent
// (the entry was hand-pruned mid-flight) the Done entry is still
// written, so a finished job is always visible in the ledger.
func (s *Store) Complete(id, summary string) error {
	return s.CompleteWithArtifact(id, summary, "")
}

// CompleteWithArtifact is Complete with an archive reference appended
// to the Done entry's artifacts field. A reference already present on
// the removed entry is kept in front of the new one.
func (s *Store) CompleteWithArtifact(id, summary, artifact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ReadAll()
	if err != nil {
		return err
	}

	removed, _ := l.remove(id)

	entry := &Entry{ID: id}
	entry.Set("completed", s.clock.Now().Format(dateLayout))
	entry.Set("summary", Sanitize(summary))
	artifacts := ""
	if removed != nil {
		if existing, ok := removed.Get("artifacts"); ok {
			artifacts = existing
		}
	}
	if artifact != "" {
		if artifacts != "" {
			artifacts += ", " + artifact
		} else {
			artifacts = artifact
		}
	}
	if artifacts != "" {
		entry.Set("artifacts", artifacts)
	}
	l.insertHead(SectionDone, entry)

	if err := s.replace(l); err != nil {
		return err
	}
	s.log.Debug("ledger entry completed", "id", id)
	return nil
}

// Fail records a failure reason on the entry's status field, in place,
// leaving the entry in whatever section holds it. The reason is capped
// at 200 runes. A missing id is a no-op: the notification channel
// already carries the failure, and inventing an entry for a job the
// ledger never saw would be noise.
func (s *Store) Fail(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ReadAll()
	if err != nil {
		return err
	}

	entry := l.Find(id)
	if entry == nil {
		return nil
	}
	entry.Set("status", Sanitize(failedStatusPrefix+truncateRunes(reason, maxReasonRunes)))

	if err := s.replace(l); err != nil {
		return err
	}
	s.log.Debug("ledger entry failed", "id", id)
	return nil
}

// replace renders the ledger and atomically swaps it into place,
// wrapping any failure as a PersistenceError.
func (s *Store) replace(l *Ledger) error {
	if err := writeFileAtomic(s.path, l.Render()); err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target's
// directory, syncs it, and renames it over the target. On any failure
// the temporary file is removed and the target is untouched. The
// parent directory is synced after the rename so the swap survives
// power loss.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary ledger file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary ledger file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary ledger file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary ledger file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming ledger file into place: %w", err)
	}

	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// truncateRunes caps s at max runes, never splitting a rune.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
