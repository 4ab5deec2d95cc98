// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Adjutant.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory and file locations.
	Paths PathsConfig `yaml:"paths"`

	// Assistant configures the session backend the engine drives.
	Assistant AssistantConfig `yaml:"assistant"`

	// Dispatch configures the background-job engine.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Archive configures the verification-report archive.
	Archive ArchiveConfig `yaml:"archive"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Assistant *AssistantConfig `yaml:"assistant,omitempty"`
	Dispatch  *DispatchConfig  `yaml:"dispatch,omitempty"`
	Archive   *ArchiveConfig   `yaml:"archive,omitempty"`
}

// PathsConfig configures directory and file locations.
type PathsConfig struct {
	// Root is the base directory for Adjutant data.
	Root string `yaml:"root"`

	// Work is the pipeline working directory. Verified-pipeline
	// artifacts are exchanged under its .outbox subdirectory.
	Work string `yaml:"work"`

	// Ledger is the task ledger file.
	Ledger string `yaml:"ledger"`

	// Archive is where verification reports are archived.
	Archive string `yaml:"archive"`

	// History is the sqlite job-history database.
	History string `yaml:"history"`

	// Credentials is the directory holding sealed credential files.
	Credentials string `yaml:"credentials"`
}

// AssistantConfig configures the session backend.
type AssistantConfig struct {
	// Instance names this assistant on the session backend.
	// Default: assistant-main
	Instance string `yaml:"instance"`

	// DirectorConversation receives job outcome notifications.
	// Default: director
	DirectorConversation string `yaml:"director_conversation"`

	// BaseURL is the completion API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model is the model identifier sent with each completion request.
	Model string `yaml:"model"`

	// MaxTokens caps each completion response.
	// Default: 4096
	MaxTokens int `yaml:"max_tokens"`

	// CredentialFile is the age-sealed API token file.
	// Default: <credentials>/api-token.age
	CredentialFile string `yaml:"credential_file"`

	// IdentityFile is the age identity that opens CredentialFile.
	// Default: <credentials>/identity.txt
	IdentityFile string `yaml:"identity_file"`

	// RequestTimeout bounds one completion round trip. Go duration
	// syntax. Default: 2m
	RequestTimeout string `yaml:"request_timeout"`
}

// DispatchConfig configures the background-job engine.
type DispatchConfig struct {
	// ResearchTimeout bounds the research phase of a verified job.
	// Go duration syntax. Default: 10m
	ResearchTimeout string `yaml:"research_timeout"`

	// VerificationTimeout bounds the verification phase.
	// Default: 10m
	VerificationTimeout string `yaml:"verification_timeout"`

	// SweepInterval is how often the registry sweeps for overdue
	// jobs. Default: 30s
	SweepInterval string `yaml:"sweep_interval"`

	// JobTimeout is the age at which the sweep cancels a job.
	// Default: 1h
	JobTimeout string `yaml:"job_timeout"`
}

// ArchiveConfig configures the verification-report archive.
type ArchiveConfig struct {
	// Compression selects blob compression.
	// Values: "auto" (probe lz4/zstd, keep the winner), "none"
	// Default: auto
	Compression string `yaml:"compression"`

	// Sealed encrypts blobs at rest with the archive key.
	// Default: false (development), true (production)
	Sealed bool `yaml:"sealed"`

	// KeyFile is the archive key used for refs and, when Sealed,
	// blob encryption. Default: <credentials>/archive.key
	KeyFile string `yaml:"key_file"`
}

// Timing holds the parsed duration knobs. Zero-value fields never
// appear; defaults are applied for empty or unparseable strings, and
// Validate reports the unparseable ones.
type Timing struct {
	ResearchTimeout     time.Duration
	VerificationTimeout time.Duration
	SweepInterval       time.Duration
	JobTimeout          time.Duration
	RequestTimeout      time.Duration
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "state", "adjutant")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:        defaultRoot,
			Work:        filepath.Join(defaultRoot, "work"),
			Ledger:      filepath.Join(defaultRoot, "ledger.md"),
			Archive:     filepath.Join(defaultRoot, "archive"),
			History:     filepath.Join(defaultRoot, "history.db"),
			Credentials: filepath.Join(defaultRoot, "credentials"),
		},
		Assistant: AssistantConfig{
			Instance:             "assistant-main",
			DirectorConversation: "director",
			BaseURL:              "https://api.anthropic.com",
			Model:                "claude-sonnet-4-5",
			MaxTokens:            4096,
			CredentialFile:       filepath.Join(defaultRoot, "credentials", "api-token.age"),
			IdentityFile:         filepath.Join(defaultRoot, "credentials", "identity.txt"),
			RequestTimeout:       "2m",
		},
		Dispatch: DispatchConfig{
			ResearchTimeout:     "10m",
			VerificationTimeout: "10m",
			SweepInterval:       "30s",
			JobTimeout:          "1h",
		},
		Archive: ArchiveConfig{
			Compression: "auto",
			Sealed:      false,
			KeyFile:     filepath.Join(defaultRoot, "credentials", "archive.key"),
		},
	}
}

// Load loads configuration from the ADJUTANT_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if ADJUTANT_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("ADJUTANT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ADJUTANT_CONFIG environment variable not set; " +
			"set it to the path of your adjutant.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: archive blobs are sealed at rest.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Archive: &ArchiveConfig{
					Sealed: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Work != "" {
			c.Paths.Work = overrides.Paths.Work
		}
		if overrides.Paths.Ledger != "" {
			c.Paths.Ledger = overrides.Paths.Ledger
		}
		if overrides.Paths.Archive != "" {
			c.Paths.Archive = overrides.Paths.Archive
		}
		if overrides.Paths.History != "" {
			c.Paths.History = overrides.Paths.History
		}
		if overrides.Paths.Credentials != "" {
			c.Paths.Credentials = overrides.Paths.Credentials
		}
	}

	if overrides.Assistant != nil {
		if overrides.Assistant.Instance != "" {
			c.Assistant.Instance = overrides.Assistant.Instance
		}
		if overrides.Assistant.DirectorConversation != "" {
			c.Assistant.DirectorConversation = overrides.Assistant.DirectorConversation
		}
		if overrides.Assistant.BaseURL != "" {
			c.Assistant.BaseURL = overrides.Assistant.BaseURL
		}
		if overrides.Assistant.Model != "" {
			c.Assistant.Model = overrides.Assistant.Model
		}
		if overrides.Assistant.MaxTokens != 0 {
			c.Assistant.MaxTokens = overrides.Assistant.MaxTokens
		}
		if overrides.Assistant.CredentialFile != "" {
			c.Assistant.CredentialFile = overrides.Assistant.CredentialFile
		}
		if overrides.Assistant.IdentityFile != "" {
			c.Assistant.IdentityFile = overrides.Assistant.IdentityFile
		}
		if overrides.Assistant.RequestTimeout != "" {
			c.Assistant.RequestTimeout = overrides.Assistant.RequestTimeout
		}
	}

	if overrides.Dispatch != nil {
		if overrides.Dispatch.ResearchTimeout != "" {
			c.Dispatch.ResearchTimeout = overrides.Dispatch.ResearchTimeout
		}
		if overrides.Dispatch.VerificationTimeout != "" {
			c.Dispatch.VerificationTimeout = overrides.Dispatch.VerificationTimeout
		}
		if overrides.Dispatch.SweepInterval != "" {
			c.Dispatch.SweepInterval = overrides.Dispatch.SweepInterval
		}
		if overrides.Dispatch.JobTimeout != "" {
			c.Dispatch.JobTimeout = overrides.Dispatch.JobTimeout
		}
	}

	if overrides.Archive != nil {
		if overrides.Archive.Compression != "" {
			c.Archive.Compression = overrides.Archive.Compression
		}
		// Sealed is a bool, so we always apply it from overrides.
		c.Archive.Sealed = overrides.Archive.Sealed
		if overrides.Archive.KeyFile != "" {
			c.Archive.KeyFile = overrides.Archive.KeyFile
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ADJUTANT_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ADJUTANT_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Work = expandVars(c.Paths.Work, vars)
	c.Paths.Ledger = expandVars(c.Paths.Ledger, vars)
	c.Paths.Archive = expandVars(c.Paths.Archive, vars)
	c.Paths.History = expandVars(c.Paths.History, vars)
	c.Paths.Credentials = expandVars(c.Paths.Credentials, vars)
	c.Assistant.CredentialFile = expandVars(c.Assistant.CredentialFile, vars)
	c.Assistant.IdentityFile = expandVars(c.Assistant.IdentityFile, vars)
	c.Archive.KeyFile = expandVars(c.Archive.KeyFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Ledger == "" {
		errs = append(errs, fmt.Errorf("paths.ledger is required"))
	}
	if c.Paths.Work == "" {
		errs = append(errs, fmt.Errorf("paths.work is required"))
	}

	if c.Assistant.Instance == "" {
		errs = append(errs, fmt.Errorf("assistant.instance is required"))
	}
	if c.Assistant.DirectorConversation == "" {
		errs = append(errs, fmt.Errorf("assistant.director_conversation is required"))
	}
	if c.Assistant.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("assistant.max_tokens must not be negative"))
	}

	if c.Archive.Compression != "auto" && c.Archive.Compression != "none" {
		errs = append(errs, fmt.Errorf("archive.compression must be one of: [auto none]"))
	}
	if c.Archive.Sealed && c.Archive.KeyFile == "" {
		errs = append(errs, fmt.Errorf("archive.key_file is required when archive.sealed is set"))
	}

	durations := []struct {
		field string
		value string
	}{
		{"assistant.request_timeout", c.Assistant.RequestTimeout},
		{"dispatch.research_timeout", c.Dispatch.ResearchTimeout},
		{"dispatch.verification_timeout", c.Dispatch.VerificationTimeout},
		{"dispatch.sweep_interval", c.Dispatch.SweepInterval},
		{"dispatch.job_timeout", c.Dispatch.JobTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", d.field, d.value))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Timing returns the parsed duration knobs with defaults applied for
// empty fields. Call Validate first; a string Validate rejected comes
// back as its default here.
func (c *Config) Timing() Timing {
	return Timing{
		ResearchTimeout:     parseDurationOr(c.Dispatch.ResearchTimeout, 10*time.Minute),
		VerificationTimeout: parseDurationOr(c.Dispatch.VerificationTimeout, 10*time.Minute),
		SweepInterval:       parseDurationOr(c.Dispatch.SweepInterval, 30*time.Second),
		JobTimeout:          parseDurationOr(c.Dispatch.JobTimeout, time.Hour),
		RequestTimeout:      parseDurationOr(c.Assistant.RequestTimeout, 2*time.Minute),
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Work,
		c.Paths.Archive,
		c.Paths.Credentials,
		filepath.Dir(c.Paths.Ledger),
		filepath.Dir(c.Paths.History),
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
