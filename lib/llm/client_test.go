// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adjutant-works/adjutant/lib/secret"
)

// newTestToken returns a secret buffer holding a dummy API key.
func newTestToken(t *testing.T) *secret.Buffer {
	t.Helper()
	token, err := secret.NewFromBytes([]byte("sk-test-token"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	t.Cleanup(func() { token.Close() })
	return token
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:    server.URL,
		Model:      "test-model",
		MaxTokens:  128,
		Token:      newTestToken(t),
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func textResponse(text string) string {
	return `{"content":[{"type":"text","text":` + mustJSON(text) + `}],"stop_reason":"end_turn"}`
}

func mustJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestCompleteSendsWireRequest(t *testing.T) {
	var got wireRequest
	var gotKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(textResponse("hello back")))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	text, err := client.Complete(context.Background(), "be terse", []Message{
		{Role: RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if text != "hello back" {
		t.Errorf("text = %q, want %q", text, "hello back")
	}
	if got.Model != "test-model" || got.MaxTokens != 128 || got.System != "be terse" {
		t.Errorf("wire request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if gotKey != "sk-test-token" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != apiVersion {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
}

func TestCompleteConcatenatesTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[
			{"type":"text","text":"one "},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"two"}
		],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	text, err := client.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "x"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "one two" {
		t.Errorf("text = %q, want %q", text, "one two")
	}
}

func TestCompleteProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "x"}})

	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if !providerError.IsRateLimited() {
		t.Errorf("IsRateLimited() = false for status %d", providerError.StatusCode)
	}
	if providerError.Type != "rate_limit_error" || providerError.Message != "slow down" {
		t.Errorf("provider error = %+v", providerError)
	}
}

func TestCompleteNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "x"}})

	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if providerError.StatusCode != http.StatusBadGateway || providerError.Message != "upstream exploded" {
		t.Errorf("provider error = %+v", providerError)
	}
}

func TestCompleteHonorsContext(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	client := newTestClient(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Complete(ctx, "", []Message{{Role: RoleUser, Content: "x"}}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestNewClientValidation(t *testing.T) {
	token := newTestToken(t)
	cases := []struct {
		name string
		cfg  ClientConfig
	}{
		{"no base URL", ClientConfig{Model: "m", Token: token}},
		{"no model", ClientConfig{BaseURL: "http://x", Token: token}},
		{"no token", ClientConfig{BaseURL: "http://x", Model: "m"}},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := NewClient(testCase.cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
