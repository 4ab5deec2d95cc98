// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/archive"
	"github.com/adjutant-works/adjutant/lib/credential"
	"github.com/adjutant-works/adjutant/lib/ledgerui"
	"github.com/adjutant-works/adjutant/lib/secret"
)

func viewCommand() *cli.Command {
	var configPath string
	var noWatch bool

	return &cli.Command{
		Name:    "view",
		Summary: "interactive ledger viewer",
		Usage:   "adjutant view [flags]",
		Description: "View opens a full-screen terminal viewer over the task ledger:\n" +
			"section tabs, fuzzy filtering, and rendered archived reports for\n" +
			"entries that carry an archive reference. The view follows ledger\n" +
			"writes live unless --no-watch is set.",
		Examples: []cli.Example{
			{Command: "adjutant view"},
			{Description: "static snapshot", Command: "adjutant view --no-watch"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("view", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			flags.BoolVar(&noWatch, "no-watch", false, "do not follow ledger writes")
			return flags
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			log := cli.NewLogger(false)

			var archiveKey *secret.Buffer
			if _, err := os.Stat(cfg.Archive.KeyFile); err == nil {
				archiveKey, err = credential.LoadArchiveKey(cfg.Archive.KeyFile)
				if err != nil {
					return err
				}
				defer archiveKey.Close()
			}
			archiveStore, err := archive.NewStore(archive.Config{
				Dir:         cfg.Paths.Archive,
				Compression: cfg.Archive.Compression,
				Key:         archiveKey,
				Logger:      log,
			})
			if err != nil {
				return err
			}

			return ledgerui.Run(ledgerui.Config{
				LedgerPath: cfg.Paths.Ledger,
				Archive:    archiveStore,
				Watch:      !noWatch,
			})
		},
	}
}
