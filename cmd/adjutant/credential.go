// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/adjutant-works/adjutant/cmd/adjutant/cli"
	"github.com/adjutant-works/adjutant/lib/credential"
	"github.com/adjutant-works/adjutant/lib/secret"
)

func credentialCommand() *cli.Command {
	return &cli.Command{
		Name:    "credential",
		Summary: "manage sealed credentials",
		Subcommands: []*cli.Command{
			credentialInitCommand(),
			credentialSealCommand(),
		},
	}
}

func credentialInitCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "init",
		Summary: "generate the age identity and archive key",
		Description: "Init creates the local age identity the API token is sealed to and\n" +
			"a fresh archive sealing key. Existing files are never overwritten.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.Assistant.IdentityFile); err == nil {
				return fmt.Errorf("identity file %s already exists", cfg.Assistant.IdentityFile)
			}
			publicKey, err := credential.GenerateIdentity(cfg.Assistant.IdentityFile)
			if err != nil {
				return err
			}
			fmt.Printf("identity written to %s\npublic key: %s\n", cfg.Assistant.IdentityFile, publicKey)

			if _, err := os.Stat(cfg.Archive.KeyFile); err == nil {
				fmt.Printf("archive key %s already exists, kept\n", cfg.Archive.KeyFile)
				return nil
			}
			if err := credential.GenerateArchiveKey(cfg.Archive.KeyFile); err != nil {
				return err
			}
			fmt.Printf("archive key written to %s\n", cfg.Archive.KeyFile)
			return nil
		},
	}
}

func credentialSealCommand() *cli.Command {
	var configPath string
	var tokenPath string

	return &cli.Command{
		Name:    "seal",
		Summary: "seal the API token to the local identity",
		Usage:   "adjutant credential seal [flags]",
		Description: "Seal reads the API token (from --token-file, or the first line of\n" +
			"stdin with --token-file -) and encrypts it to the local age identity.\n" +
			"The plaintext never touches disk.",
		Examples: []cli.Example{
			{Command: "adjutant credential seal --token-file -"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("seal", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file (default $ADJUTANT_CONFIG)")
			flags.StringVar(&tokenPath, "token-file", "-", "token source file, - for stdin")
			return flags
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			identity, err := credential.LoadIdentity(cfg.Assistant.IdentityFile)
			if err != nil {
				return fmt.Errorf("loading identity (run 'adjutant credential init' first?): %w", err)
			}

			token, err := secret.ReadFromPath(tokenPath)
			if err != nil {
				return err
			}
			defer token.Close()

			if err := credential.SealToken(cfg.Assistant.CredentialFile, token.Bytes(), identity.Recipient().String()); err != nil {
				return err
			}
			fmt.Printf("token sealed to %s\n", cfg.Assistant.CredentialFile)
			return nil
		},
	}
}
