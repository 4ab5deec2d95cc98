// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// defaultPoolSize suits Adjutant's workloads: one writer (the dispatch
// engine appending history rows) plus the occasional CLI reader.
const defaultPoolSize = 4

// Config holds the parameters for opening a connection pool. Path is
// required; everything else has defaults.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist; the file is created on first open. ":memory:" works for
	// tests but requires PoolSize 1, since every in-memory connection
	// is its own database.
	Path string

	// PoolSize is the number of connections. Zero or negative means
	// the default. SQLite serializes writes regardless, so extra
	// connections only help concurrent readers.
	PoolSize int

	// Logger receives open/close messages. Nil means discard.
	Logger *slog.Logger

	// OnConnect runs once per connection after the standard pragmas,
	// for schema creation and per-connection setup. An error discards
	// the connection and surfaces from Take.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size pool of SQLite connections with Adjutant's
// standard pragmas applied. It wraps sqlitex.Pool and exposes the same
// Take/Put shape.
//
// The pool is safe for concurrent use; individual connections are not.
// Each goroutine must Take its own connection and Put it back.
type Pool struct {
	inner *sqlitex.Pool
	log   *slog.Logger
	path  string
}

// Open creates the pool. Connections are initialized lazily on first
// Take. The caller must Close the pool when done.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	size := cfg.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}

	log.Info("sqlite pool opened", "path", cfg.Path, "pool_size", size)
	return &Pool{inner: inner, log: log, path: cfg.Path}, nil
}

// Take borrows a connection, blocking until one is free or ctx is
// cancelled. The caller must Put it back, typically via defer.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Nil is a no-op.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Close closes every connection, blocking until all borrowed
// connections come back. Take errors after Close.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.log.Error("sqlite pool close", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.log.Info("sqlite pool closed", "path", p.path)
	return nil
}

// prepareConnection applies the standard pragmas, then the optional
// OnConnect callback. Runs once per pooled connection, on first use.
func prepareConnection(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	// WAL lets the CLI read history while the engine appends.
	// synchronous=NORMAL survives process crashes, the same
	// durability class as the ledger's rename-based writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}

	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlitepool: OnConnect: %w", err)
		}
	}
	return nil
}
