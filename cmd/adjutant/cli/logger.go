// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the logger for CLI command operations. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output; when piped or redirected (scripts, CI) it switches to
// slog.JSONHandler so the output stays machine-parseable.
//
// Callers scope the logger with command context via With():
//
//	logger := cli.NewLogger(verbose).With("command", "submit")
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
