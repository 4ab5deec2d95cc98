// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"strings"
)

// researchPrompt instructs the session to perform the task and write
// a structured claims report to the research artifact. The artifact is
// the phase's only output contract; the chat response is discarded.
func researchPrompt(task, artifactPath string) string {
	b := &strings.Builder{}
	b.WriteString("You are running a background research task.\n\n")
	b.WriteString("# Task\n\n")
	b.WriteString(task)
	b.WriteString("\n\n# Output\n\n")
	fmt.Fprintf(b, "Write your findings to `%s` as markdown with exactly two sections:\n\n", artifactPath)
	b.WriteString("## Summary\n\n")
	b.WriteString("Two or three sentences describing what you found.\n\n")
	b.WriteString("## Claims\n\n")
	b.WriteString("A numbered list. Each claim is one verifiable factual statement ")
	b.WriteString("followed by the source you drew it from. Do not mix claims; one ")
	b.WriteString("statement per item.\n\n")
	b.WriteString("The file is the deliverable. Do not put the report in your reply.\n")
	return b.String()
}

// verificationPrompt instructs the session to re-check every claim in
// the research artifact and write the ratings to the verification
// artifact.
func verificationPrompt(researchPath, artifactPath string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Read the research report at `%s`.\n\n", researchPath)
	b.WriteString("Independently re-check every claim in its Claims section against ")
	b.WriteString("the cited sources and any others you can find. Rate each claim:\n\n")
	fmt.Fprintf(b, "- %s: at least one independent source agrees\n", VerdictConfirmed)
	fmt.Fprintf(b, "- %s: a credible source disagrees\n", VerdictConflicting)
	fmt.Fprintf(b, "- %s: you could not find independent evidence either way\n\n", VerdictUnverified)
	fmt.Fprintf(b, "Write the ratings to `%s` as a numbered list mirroring the claims, ", artifactPath)
	b.WriteString("each item starting with its rating in capitals, followed by one ")
	b.WriteString("sentence of justification.\n\n")
	b.WriteString("The file is the deliverable. Do not put the ratings in your reply.\n")
	return b.String()
}
