// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
)

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "adjutant",
		Summary: "durable background-job orchestrator",
		Description: "Adjutant dispatches long-running background jobs, tracks them in a\n" +
			"file-backed task ledger, and reports outcomes to the Director\n" +
			"conversation. Verified jobs run a two-phase research-then-verify\n" +
			"pipeline with archived reports.",
		Subcommands: []*cli.Command{
			submitCommand(),
			statusCommand(),
			ledgerCommand(),
			viewCommand(),
			historyCommand(),
			credentialCommand(),
			versionCommand(),
		},
	}
}
