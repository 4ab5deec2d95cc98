// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"strings"
)

// Verdict markers the verification phase rates claims with.
const (
	VerdictConfirmed   = "CONFIRMED"
	VerdictConflicting = "CONFLICTING"
	VerdictUnverified  = "UNVERIFIED"
)

// Tally counts the verdicts in one verification report.
type Tally struct {
	Confirmed   int
	Conflicting int
	Unverified  int
}

// TallyVerdicts counts verdict markers in the verification artifact.
// No marker is a substring of another, so plain occurrence counting is
// exact.
func TallyVerdicts(verification string) Tally {
	return Tally{
		Confirmed:   strings.Count(verification, VerdictConfirmed),
		Conflicting: strings.Count(verification, VerdictConflicting),
		Unverified:  strings.Count(verification, VerdictUnverified),
	}
}

// Total returns the number of rated claims.
func (t Tally) Total() int {
	return t.Confirmed + t.Conflicting + t.Unverified
}

func (t Tally) String() string {
	return fmt.Sprintf("%d confirmed, %d conflicting, %d unverified",
		t.Confirmed, t.Conflicting, t.Unverified)
}

// CombinedReport renders the archived form of a verified job: the
// task, the tally, and both phase artifacts, in one markdown document.
func CombinedReport(taskID, task, research, verification string, tally Tally) []byte {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# Verified research: %s\n\n", taskID)
	fmt.Fprintf(b, "Task: %s\n\n", task)
	fmt.Fprintf(b, "Verdicts: %s\n\n", tally)
	b.WriteString("## Research\n\n")
	b.WriteString(research)
	b.WriteString("\n\n## Verification\n\n")
	b.WriteString(verification)
	b.WriteString("\n")
	return []byte(b.String())
}
