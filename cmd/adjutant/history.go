// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/history"
)

func historyCommand() *cli.Command {
	var configPath string
	var limit int
	var taskID string

	return &cli.Command{
		Name:    "history",
		Summary: "list past job outcomes",
		Usage:   "adjutant history [flags]",
		Description: "History lists terminal job states from the sqlite history store:\n" +
			"every job that ever completed, failed, or was cancelled, with its\n" +
			"archive reference when a verified report was stored.",
		Examples: []cli.Example{
			{Command: "adjutant history --limit 20"},
			{Command: "adjutant history --task deps-audit"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			flags.IntVar(&limit, "limit", 50, "maximum rows to print")
			flags.StringVar(&taskID, "task", "", "only rows for this task id")
			return flags
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := history.Open(history.Config{
				Path:   cfg.Paths.History,
				Logger: cli.NewLogger(false),
			})
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			var records []history.Record
			if taskID != "" {
				records, err = store.ForTask(ctx, taskID)
			} else {
				records, err = store.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no history")
				return nil
			}

			table := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(table, "FINISHED\tTASK\tKIND\tOUTCOME\tREF\tDETAIL")
			for _, record := range records {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\n",
					record.FinishedAt.Format("2006-01-02 15:04"),
					record.TaskID,
					record.Kind,
					record.Outcome,
					record.ArchiveRef,
					truncateDetail(record.Detail))
			}
			return table.Flush()
		},
	}
}

// truncateDetail keeps table rows on one line of a normal terminal.
func truncateDetail(detail string) string {
	const limit = 60
	runes := []rune(detail)
	if len(runes) <= limit {
		return detail
	}
	return string(runes[:limit-1]) + "…"
}
