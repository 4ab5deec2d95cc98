// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Assistant.Instance != "assistant-main" {
		t.Errorf("expected instance=assistant-main, got %s", cfg.Assistant.Instance)
	}

	if cfg.Assistant.DirectorConversation != "director" {
		t.Errorf("expected director_conversation=director, got %s", cfg.Assistant.DirectorConversation)
	}

	if cfg.Archive.Sealed {
		t.Error("expected sealed=false for development")
	}

	if cfg.Archive.Compression != "auto" {
		t.Errorf("expected compression=auto, got %s", cfg.Archive.Compression)
	}
}

func TestLoad_RequiresAdjutantConfig(t *testing.T) {
	// Save and restore ADJUTANT_CONFIG.
	origConfig := os.Getenv("ADJUTANT_CONFIG")
	defer os.Setenv("ADJUTANT_CONFIG", origConfig)

	// Unset ADJUTANT_CONFIG - Load() should fail.
	os.Unsetenv("ADJUTANT_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ADJUTANT_CONFIG not set, got nil")
	}

	expectedMsg := "ADJUTANT_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithAdjutantConfig(t *testing.T) {
	// Save and restore ADJUTANT_CONFIG.
	origConfig := os.Getenv("ADJUTANT_CONFIG")
	defer os.Setenv("ADJUTANT_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "adjutant.yaml")

	configContent := `
environment: staging
paths:
  root: /test/root
assistant:
  instance: assistant-staging
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set ADJUTANT_CONFIG and load.
	os.Setenv("ADJUTANT_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}

	if cfg.Assistant.Instance != "assistant-staging" {
		t.Errorf("expected instance=assistant-staging, got %s", cfg.Assistant.Instance)
	}
}

func TestLoadFile(t *testing.T) {
	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "adjutant.yaml")

	configContent := `
environment: staging

paths:
  root: /custom/root
  ledger: /custom/ledger.md

assistant:
  instance: assistant-two
  model: claude-haiku-4-5
  max_tokens: 1024

dispatch:
  research_timeout: 20m
  sweep_interval: 1m

archive:
  compression: none
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/custom/root" {
		t.Errorf("expected root=/custom/root, got %s", cfg.Paths.Root)
	}

	if cfg.Paths.Ledger != "/custom/ledger.md" {
		t.Errorf("expected ledger=/custom/ledger.md, got %s", cfg.Paths.Ledger)
	}

	if cfg.Assistant.Model != "claude-haiku-4-5" {
		t.Errorf("expected model=claude-haiku-4-5, got %s", cfg.Assistant.Model)
	}

	if cfg.Assistant.MaxTokens != 1024 {
		t.Errorf("expected max_tokens=1024, got %d", cfg.Assistant.MaxTokens)
	}

	if cfg.Dispatch.ResearchTimeout != "20m" {
		t.Errorf("expected research_timeout=20m, got %s", cfg.Dispatch.ResearchTimeout)
	}

	if cfg.Archive.Compression != "none" {
		t.Errorf("expected compression=none, got %s", cfg.Archive.Compression)
	}

	// Untouched fields keep their defaults.
	if cfg.Dispatch.VerificationTimeout != "10m" {
		t.Errorf("expected verification_timeout=10m default, got %s", cfg.Dispatch.VerificationTimeout)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "adjutant.yaml")

	configContent := `
environment: production

paths:
  root: /default/root

assistant:
  instance: assistant-main

archive:
  sealed: false

production:
  paths:
    root: /prod/root
  assistant:
    instance: assistant-prod
  archive:
    sealed: true
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Production overrides should be applied.
	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}

	if cfg.Assistant.Instance != "assistant-prod" {
		t.Errorf("expected instance=assistant-prod, got %s", cfg.Assistant.Instance)
	}

	if !cfg.Archive.Sealed {
		t.Error("expected sealed=true from production override")
	}
}

func TestProductionDefaultsSealArchive(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "adjutant.yaml")

	// No production section at all: the implicit production defaults
	// still seal the archive.
	configContent := `
environment: production
paths:
  root: /prod/root
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !cfg.Archive.Sealed {
		t.Error("expected sealed=true from implicit production defaults")
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Verify that environment variables do NOT override config file values.
	// The config file is the single source of truth for deterministic configuration.

	// Save and restore env vars.
	origRoot := os.Getenv("ADJUTANT_ROOT")
	origEnv := os.Getenv("ADJUTANT_ENVIRONMENT")
	defer func() {
		os.Setenv("ADJUTANT_ROOT", origRoot)
		os.Setenv("ADJUTANT_ENVIRONMENT", origEnv)
	}()

	// Set env vars that should be ignored.
	os.Setenv("ADJUTANT_ROOT", "/env/root")
	os.Setenv("ADJUTANT_ENVIRONMENT", "staging")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "adjutant.yaml")

	configContent := `
environment: development
paths:
  root: /file/root
  ledger: /file/ledger.md
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// File values should be used, NOT env vars.
	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s (env vars should not override)", cfg.Environment)
	}

	if cfg.Paths.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s (env vars should not override)", cfg.Paths.Root)
	}

	if cfg.Paths.Ledger != "/file/ledger.md" {
		t.Errorf("expected ledger=/file/ledger.md from file, got %s (env vars should not override)", cfg.Paths.Ledger)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/adjutant",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/adjutant",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestRootExpansionReachesDependentPaths(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "adjutant.yaml")

	configContent := `
environment: development
paths:
  root: /data/adjutant
  ledger: ${ADJUTANT_ROOT}/ledger.md
  work: ${ADJUTANT_ROOT}/work
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Ledger != "/data/adjutant/ledger.md" {
		t.Errorf("expected ledger under the configured root, got %s", cfg.Paths.Ledger)
	}

	if cfg.Paths.Work != "/data/adjutant/work" {
		t.Errorf("expected work under the configured root, got %s", cfg.Paths.Work)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty root path",
			modify: func(c *Config) {
				c.Paths.Root = ""
			},
			wantErr: true,
		},
		{
			name: "empty instance",
			modify: func(c *Config) {
				c.Assistant.Instance = ""
			},
			wantErr: true,
		},
		{
			name: "invalid compression value",
			modify: func(c *Config) {
				c.Archive.Compression = "brotli"
			},
			wantErr: true,
		},
		{
			name: "sealed archive without key file",
			modify: func(c *Config) {
				c.Archive.Sealed = true
				c.Archive.KeyFile = ""
			},
			wantErr: true,
		},
		{
			name: "malformed duration",
			modify: func(c *Config) {
				c.Dispatch.ResearchTimeout = "soon"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTiming(t *testing.T) {
	cfg := Default()
	cfg.Dispatch.ResearchTimeout = "20m"
	cfg.Dispatch.SweepInterval = ""

	timing := cfg.Timing()

	if timing.ResearchTimeout != 20*time.Minute {
		t.Errorf("expected research timeout 20m, got %s", timing.ResearchTimeout)
	}

	// Empty falls back to the default.
	if timing.SweepInterval != 30*time.Second {
		t.Errorf("expected sweep interval 30s default, got %s", timing.SweepInterval)
	}

	if timing.JobTimeout != time.Hour {
		t.Errorf("expected job timeout 1h default, got %s", timing.JobTimeout)
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "adjutant")
	cfg.Paths.Work = filepath.Join(cfg.Paths.Root, "work")
	cfg.Paths.Archive = filepath.Join(cfg.Paths.Root, "archive")
	cfg.Paths.Credentials = filepath.Join(cfg.Paths.Root, "credentials")
	cfg.Paths.Ledger = filepath.Join(cfg.Paths.Root, "ledger.md")
	cfg.Paths.History = filepath.Join(cfg.Paths.Root, "history.db")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	// Verify directories were created.
	for _, path := range []string{cfg.Paths.Root, cfg.Paths.Work, cfg.Paths.Archive, cfg.Paths.Credentials} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
