// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/version"
)

func versionCommand() *cli.Command {
	var short bool

	return &cli.Command{
		Name:    "version",
		Summary: "print the adjutant version",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flags.BoolVar(&short, "short", false, "version number only")
			return flags
		},
		Run: func(args []string) error {
			if short {
				fmt.Println(version.Short())
				return nil
			}
			fmt.Println(version.Full())
			return nil
		},
	}
}
