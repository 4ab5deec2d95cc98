// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobfile parses job submission files. Jobs are authored on
// disk as JSONC (JSON extended with // comments, /* block comments */,
// and trailing commas) so submission files can carry notes about why
// a task exists. A file holds either a single job object or a list of
// them:
//
//	{
//	    // nightly dependency audit
//	    "task_id": "deps-audit",
//	    "task": "Audit our dependency tree for known CVEs",
//	    "verification": true,
//	}
//
// Parsing validates the same submit contract the engine enforces:
// task and task_id must be non-empty, and ids within one file must be
// unique (the ledger treats duplicate ids as a caller contract
// violation).
package jobfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Job is one submission as authored in a job file.
type Job struct {
	// TaskID becomes the ledger entry id and the worker handle id.
	TaskID string `json:"task_id"`

	// Task is the instruction handed to the session backend.
	Task string `json:"task"`

	// Verification selects the two-phase research pipeline.
	Verification bool `json:"verification,omitempty"`
}

// Parse strips JSONC syntax from data and unmarshals either a single
// job object or an array of jobs, then validates every entry.
func Parse(data []byte) ([]Job, error) {
	stripped := jsonc.ToJSON(data)

	var jobs []Job
	if err := json.Unmarshal(stripped, &jobs); err != nil {
		var single Job
		if err := json.Unmarshal(stripped, &single); err != nil {
			return nil, fmt.Errorf("parsing job file: %w", err)
		}
		jobs = []Job{single}
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("job file contains no jobs")
	}

	seen := make(map[string]bool, len(jobs))
	for i := range jobs {
		jobs[i].TaskID = strings.TrimSpace(jobs[i].TaskID)
		jobs[i].Task = strings.TrimSpace(jobs[i].Task)
		if jobs[i].Task == "" {
			return nil, fmt.Errorf("job %d: task is required", i+1)
		}
		if jobs[i].TaskID == "" {
			return nil, fmt.Errorf("job %d: task_id is required", i+1)
		}
		if seen[jobs[i].TaskID] {
			return nil, fmt.Errorf("job %d: duplicate task_id %q", i+1, jobs[i].TaskID)
		}
		seen[jobs[i].TaskID] = true
	}
	return jobs, nil
}

// ReadFile reads and parses a JSONC job file.
func ReadFile(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	jobs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return jobs, nil
}
