// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/ledger"
)

func statusCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "status",
		Summary: "summarize the task ledger",
		Usage:   "adjutant status [flags]",
		Description: "Status prints per-section entry counts and the current Active\n" +
			"entries with their status fields. It reads the ledger file directly\n" +
			"and never takes the mutation lock.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := ledger.NewStore(ledger.StoreConfig{
				Path:   cfg.Paths.Ledger,
				Logger: cli.NewLogger(false),
			})
			if err != nil {
				return err
			}
			snapshot, err := store.ReadAll()
			if err != nil {
				return err
			}
			printStatus(os.Stdout, snapshot)
			return nil
		},
	}
}

// printStatus writes the section counts and the Active entries.
func printStatus(w io.Writer, snapshot *ledger.Ledger) {
	counts := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, name := range []string{ledger.SectionActive, ledger.SectionWaiting, ledger.SectionParked, ledger.SectionDone} {
		n := 0
		if section := snapshot.Section(name); section != nil {
			n = len(section.Entries)
		}
		fmt.Fprintf(counts, "%s\t%d\n", name, n)
	}
	counts.Flush()

	active := snapshot.Section(ledger.SectionActive)
	if active == nil || len(active.Entries) == 0 {
		return
	}

	fmt.Fprintln(w)
	entries := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, entry := range active.Entries {
		status, _ := entry.Get("status")
		description, _ := entry.Get("description")
		fmt.Fprintf(entries, "%s\t%s\t%s\n", entry.ID, status, description)
	}
	entries.Flush()
}
