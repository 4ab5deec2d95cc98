// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package jobfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSingleJobWithComments(t *testing.T) {
	jobs, err := Parse([]byte(`{
		// nightly audit
		"task_id": "deps-audit",
		"task": "Audit the dependency tree",
		"verification": true,
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	job := jobs[0]
	if job.TaskID != "deps-audit" || job.Task != "Audit the dependency tree" || !job.Verification {
		t.Errorf("job = %+v", job)
	}
}

func TestParseJobList(t *testing.T) {
	jobs, err := Parse([]byte(`[
		{"task_id": "task-a", "task": "First"},
		{"task_id": "task-b", "task": "Second", "verification": true},
	]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].Verification || !jobs[1].Verification {
		t.Errorf("verification flags = %v, %v", jobs[0].Verification, jobs[1].Verification)
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	jobs, err := Parse([]byte(`{"task_id": "  task-a  ", "task": " do it "}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if jobs[0].TaskID != "task-a" || jobs[0].Task != "do it" {
		t.Errorf("job = %+v", jobs[0])
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"missing task", `{"task_id": "task-a"}`, "task is required"},
		{"missing id", `{"task": "do it"}`, "task_id is required"},
		{"whitespace task", `{"task_id": "task-a", "task": "   "}`, "task is required"},
		{"empty list", `[]`, "no jobs"},
		{"duplicate ids", `[{"task_id":"x","task":"a"},{"task_id":"x","task":"b"}]`, "duplicate task_id"},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Parse([]byte(testCase.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), testCase.want) {
				t.Errorf("error = %v, want substring %q", err, testCase.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.jsonc")
	content := `[
		// batch for tonight
		{"task_id": "task-a", "task": "First"},
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	jobs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(jobs) != 1 || jobs[0].TaskID != "task-a" {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
