// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// transcriptServer replies with a canned line and records every wire
// request it receives.
type transcriptServer struct {
	mu       sync.Mutex
	requests []wireRequest
	status   int
}

func (ts *transcriptServer) handler(w http.ResponseWriter, r *http.Request) {
	var request wireRequest
	json.NewDecoder(r.Body).Decode(&request)

	ts.mu.Lock()
	ts.requests = append(ts.requests, request)
	n := len(ts.requests)
	status := ts.status
	ts.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		w.Write([]byte(`{"error":{"type":"api_error","message":"broken"}}`))
		return
	}
	fmt.Fprintf(w, `{"content":[{"type":"text","text":"reply %d"}],"stop_reason":"end_turn"}`, n)
}

func (ts *transcriptServer) request(index int) wireRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.requests[index]
}

func newTestSession(t *testing.T, ts *transcriptServer) *Session {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(ts.handler))
	t.Cleanup(server.Close)

	session, err := NewSession(SessionConfig{
		Client: newTestClient(t, server),
		System: "you are adjutant",
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session
}

func TestExecuteKeepsConversationHistory(t *testing.T) {
	ts := &transcriptServer{}
	session := newTestSession(t, ts)
	ctx := context.Background()

	first, err := session.Execute(ctx, "main", "job-a", "question one")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first != "reply 1" {
		t.Errorf("first reply = %q", first)
	}

	if _, err := session.Execute(ctx, "main", "job-a", "question two"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// The second request must carry the full transcript: user,
	// assistant, user.
	second := ts.request(1)
	if len(second.Messages) != 3 {
		t.Fatalf("second request has %d messages, want 3", len(second.Messages))
	}
	if second.Messages[1].Role != RoleAssistant || second.Messages[1].Content != "reply 1" {
		t.Errorf("transcript[1] = %+v", second.Messages[1])
	}
	if second.System != "you are adjutant" {
		t.Errorf("system = %q", second.System)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	ts := &transcriptServer{}
	session := newTestSession(t, ts)
	ctx := context.Background()

	if _, err := session.Execute(ctx, "main", "job-a", "about a"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := session.Execute(ctx, "main", "job-b", "about b"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// job-b's request must not carry job-a's transcript.
	second := ts.request(1)
	if len(second.Messages) != 1 {
		t.Fatalf("job-b request has %d messages, want 1", len(second.Messages))
	}
	if second.Messages[0].Content != "about b" {
		t.Errorf("job-b message = %+v", second.Messages[0])
	}
}

func TestNotifyLandsInTranscript(t *testing.T) {
	ts := &transcriptServer{}
	session := newTestSession(t, ts)
	ctx := context.Background()

	if err := session.Notify(ctx, "main", "director", "[task task-a] completed"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if _, err := session.Execute(ctx, "main", "director", "what happened?"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	request := ts.request(0)
	if len(request.Messages) != 2 {
		t.Fatalf("request has %d messages, want 2", len(request.Messages))
	}
	if !strings.Contains(request.Messages[0].Content, "[task task-a] completed") {
		t.Errorf("notification missing from transcript: %+v", request.Messages[0])
	}
}

func TestExecuteRollsBackFailedPrompt(t *testing.T) {
	ts := &transcriptServer{status: http.StatusInternalServerError}
	session := newTestSession(t, ts)
	ctx := context.Background()

	if _, err := session.Execute(ctx, "main", "job-a", "doomed"); err == nil {
		t.Fatal("expected provider error")
	}

	if transcript := session.Transcript("main", "job-a"); len(transcript) != 0 {
		t.Errorf("failed prompt left %d messages in transcript", len(transcript))
	}
}

func TestForgetDropsConversation(t *testing.T) {
	ts := &transcriptServer{}
	session := newTestSession(t, ts)

	if _, err := session.Execute(context.Background(), "main", "job-a", "hi"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	session.Forget("main", "job-a")

	if transcript := session.Transcript("main", "job-a"); len(transcript) != 0 {
		t.Errorf("Forget left %d messages", len(transcript))
	}
}

func TestTranscriptTrimRealignsToUserTurn(t *testing.T) {
	ts := &transcriptServer{}
	session := newTestSession(t, ts)
	ctx := context.Background()

	// Push well past the history limit.
	for i := 0; i < historyLimit; i++ {
		if _, err := session.Execute(ctx, "main", "director", fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	transcript := session.Transcript("main", "director")
	if len(transcript) > historyLimit {
		t.Errorf("transcript length %d exceeds limit %d", len(transcript), historyLimit)
	}
	if transcript[0].Role != RoleUser {
		t.Errorf("trimmed transcript starts with %q, want user turn", transcript[0].Role)
	}
}
