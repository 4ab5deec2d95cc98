// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/ledger"
)

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:    "ledger",
		Summary: "inspect the task ledger file",
		Subcommands: []*cli.Command{
			ledgerShowCommand(),
			ledgerPathCommand(),
		},
	}
}

func ledgerShowCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "show",
		Summary: "print the ledger, optionally one section",
		Usage:   "adjutant ledger show [section]",
		Description: "Show prints the canonical rendering of the ledger. With a section\n" +
			"name argument (Active, Waiting, Parked, Done, or any non-canonical\n" +
			"section present in the file) only that section's entries print.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
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

			if len(args) == 0 {
				os.Stdout.Write(snapshot.Render())
				return nil
			}

			name := args[0]
			section := snapshot.Section(name)
			if section == nil {
				// Tolerate case-insensitive names from the shell.
				for _, candidate := range snapshot.Sections {
					if strings.EqualFold(candidate.Name, name) {
						section = candidate
						break
					}
				}
			}
			if section == nil {
				return fmt.Errorf("no section %q in ledger", name)
			}
			for _, entry := range section.Entries {
				fmt.Printf("- id: %s\n", entry.ID)
				for _, field := range entry.Fields {
					fmt.Printf("  %s: %s\n", field.Key, field.Value)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func ledgerPathCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "path",
		Summary: "print the ledger file path",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("path", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			fmt.Println(cfg.Paths.Ledger)
			return nil
		},
	}
}
