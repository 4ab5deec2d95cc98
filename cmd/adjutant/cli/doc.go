// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the adjutant
// binary: a nested Command tree with pflag flag sets, structured help
// output, typo suggestions for unknown subcommands, and a TTY-aware
// slog logger.
package cli
