// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/dispatch"
	"github.com/adjutant-works/adjutant/lib/jobfile"
)

func submitCommand() *cli.Command {
	var configPath string
	var verify bool
	var filePath string
	var verbose bool

	return &cli.Command{
		Name:    "submit",
		Summary: "dispatch a background job",
		Usage:   "adjutant submit [flags] <task-id> <task...>",
		Description: "Submit dispatches a job, then runs the engine until every submitted\n" +
			"pipeline reaches a terminal state. The ledger and the Director\n" +
			"conversation record the outcome; Ctrl-C cancels in-flight jobs after\n" +
			"their cleanup has run.",
		Examples: []cli.Example{
			{
				Description: "one standard job",
				Command:     `adjutant submit triage-448 "Summarize open triage issues"`,
			},
			{
				Description: "verified research from a job file",
				Command:     "adjutant submit --file nightly.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("submit", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			flags.BoolVar(&verify, "verify", false, "run the two-phase verified pipeline")
			flags.StringVar(&filePath, "file", "", "submit jobs from a JSONC job file")
			flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
			return flags
		},
		Run: func(args []string) error {
			log := cli.NewLogger(verbose).With("command", "submit")

			var jobs []dispatch.Job
			switch {
			case filePath != "":
				if len(args) > 0 {
					return fmt.Errorf("--file and positional task arguments are mutually exclusive")
				}
				fileJobs, err := jobfile.ReadFile(filePath)
				if err != nil {
					return err
				}
				for _, job := range fileJobs {
					jobs = append(jobs, dispatch.Job{
						TaskID:       job.TaskID,
						Task:         job.Task,
						Verification: job.Verification,
					})
				}
			case len(args) >= 2:
				jobs = []dispatch.Job{{
					TaskID:       args[0],
					Task:         strings.Join(args[1:], " "),
					Verification: verify,
				}}
			default:
				return fmt.Errorf("usage: adjutant submit <task-id> <task...> (or --file)")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, job := range jobs {
				ack, err := rt.Engine.Submit(ctx, job)
				if err != nil {
					return err
				}
				fmt.Println(ack.Message)
			}

			// Submit returns before the pipelines progress; wait for
			// every registered worker to finish. An interrupt cancels
			// them, and their cleanup still runs before Done closes.
			handles := rt.Registry.Active()
			interrupted := false
			for _, handle := range handles {
				select {
				case <-handle.Done():
				case <-ctx.Done():
					if !interrupted {
						interrupted = true
						fmt.Fprintln(os.Stderr, "interrupt: cancelling in-flight jobs")
						rt.Engine.Close()
					}
					<-handle.Done()
				}
			}

			for _, job := range jobs {
				rt.Session.Forget(cfg.Assistant.Instance, dispatch.JobConversation(job.TaskID))
			}

			// Echo the Director's transcript so the outcome is visible
			// on the submitting terminal too.
			for _, message := range rt.Session.Transcript(cfg.Assistant.Instance, cfg.Assistant.DirectorConversation) {
				fmt.Println(message.Content)
			}
			return nil
		},
	}
}
