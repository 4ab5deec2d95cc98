// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/adjutant-works/adjutant/lib/sqlitepool"
)

// schema creates the job table. Times are unix milliseconds UTC.
const schema = `
CREATE TABLE IF NOT EXISTS job_history (
	id          INTEGER PRIMARY KEY,
	task_id     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	archive_ref TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS job_history_task ON job_history(task_id);
CREATE INDEX IF NOT EXISTS job_history_finished ON job_history(finished_at);
`

// Record is one terminal job state.
type Record struct {
	// TaskID is the ledger entry id the job ran under.
	TaskID string

	// Kind is the pipeline that ran, "standard" or "verified".
	Kind string

	// Outcome is "completed", "failed", or "cancelled".
	Outcome string

	// Detail is the summary on completion or the reason on failure.
	Detail string

	// ArchiveRef is the archived report's reference, when one was
	// stored.
	ArchiveRef string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Config configures a Store.
type Config struct {
	// Path is the database file. Required.
	Path string

	// Logger receives store activity. Defaults to discard.
	Logger *slog.Logger
}

// Store owns the history database. Safe for concurrent use.
type Store struct {
	pool *sqlitepool.Pool
}

// Open opens (or creates) the history database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Logger: cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Append inserts one record.
func (s *Store) Append(ctx context.Context, record Record) error {
	if record.TaskID == "" {
		return fmt.Errorf("history: record has no task id")
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO job_history
			(task_id, kind, outcome, detail, archive_ref, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.TaskID,
				record.Kind,
				record.Outcome,
				record.Detail,
				record.ArchiveRef,
				record.StartedAt.UTC().UnixMilli(),
				record.FinishedAt.UTC().UnixMilli(),
			},
		})
	if err != nil {
		return fmt.Errorf("history: inserting record for %s: %w", record.TaskID, err)
	}
	return nil
}

// Recent returns up to limit records, most recently finished first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var records []Record
	err = sqlitex.Execute(conn, `
		SELECT task_id, kind, outcome, detail, archive_ref, started_at, finished_at
		FROM job_history
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`,
		&sqlitex.ExecOptions{
			Args:       []any{limit},
			ResultFunc: scanRecord(&records),
		})
	if err != nil {
		return nil, fmt.Errorf("history: querying recent records: %w", err)
	}
	return records, nil
}

// ForTask returns every record for one task id, oldest first. A task
// id can appear more than once when a caller reuses ids; history
// keeps them all.
func (s *Store) ForTask(ctx context.Context, taskID string) ([]Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var records []Record
	err = sqlitex.Execute(conn, `
		SELECT task_id, kind, outcome, detail, archive_ref, started_at, finished_at
		FROM job_history
		WHERE task_id = ?
		ORDER BY id ASC`,
		&sqlitex.ExecOptions{
			Args:       []any{taskID},
			ResultFunc: scanRecord(&records),
		})
	if err != nil {
		return nil, fmt.Errorf("history: querying records for %s: %w", taskID, err)
	}
	return records, nil
}

// scanRecord appends one row per call to records.
func scanRecord(records *[]Record) func(stmt *sqlite.Stmt) error {
	return func(stmt *sqlite.Stmt) error {
		*records = append(*records, Record{
			TaskID:     stmt.ColumnText(0),
			Kind:       stmt.ColumnText(1),
			Outcome:    stmt.ColumnText(2),
			Detail:     stmt.ColumnText(3),
			ArchiveRef: stmt.ColumnText(4),
			StartedAt:  time.UnixMilli(stmt.ColumnInt64(5)).UTC(),
			FinishedAt: time.UnixMilli(stmt.ColumnInt64(6)).UTC(),
		})
		return nil
	}
}
