// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adjutant-works/adjutant/lib/secret"
)

// apiVersion is the anthropic-version header value. Fixed per client
// release; bumping it is a code change, not configuration.
const apiVersion = "2023-06-01"

// messagesPath is the completion endpoint under the base URL.
const messagesPath = "/v1/messages"

// Message roles on the wire.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the API origin, e.g. "https://api.anthropic.com".
	BaseURL string

	// Model is sent with every request.
	Model string

	// MaxTokens caps each response. Zero means 4096.
	MaxTokens int

	// Token is the API key. Borrowed; the client never closes it.
	Token *secret.Buffer

	// HTTPClient defaults to a client with a two-minute timeout.
	// The engine's phase deadlines cancel requests earlier via ctx.
	HTTPClient *http.Client
}

// Client calls one messages-API backend with one model and one token.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	token      *secret.Buffer
	httpClient *http.Client
}

// NewClient validates the config and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	switch {
	case cfg.BaseURL == "":
		return nil, fmt.Errorf("llm: client requires a base URL")
	case cfg.Model == "":
		return nil, fmt.Errorf("llm: client requires a model")
	case cfg.Token == nil:
		return nil, fmt.Errorf("llm: client requires an API token")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  maxTokens,
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// wireRequest is the messages-API request body.
type wireRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// wireResponse is the subset of the response body the client reads.
// Content blocks other than text (tool use, thinking) are skipped.
type wireResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// ProviderError is an API-level failure: the backend answered, but
// with a non-200 status.
type ProviderError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the provider error type string, e.g.
	// "rate_limit_error".
	Type string

	// Message is the human-readable description.
	Message string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited reports whether the error is an HTTP 429.
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == http.StatusTooManyRequests
}

// Complete sends one request and returns the concatenated text
// content of the response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	body, err := json.Marshal(wireRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshaling request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("anthropic-version", apiVersion)
	request.Header.Set("x-api-key", c.token.String())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("llm: sending request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", readProviderError(response)
	}

	var wire wireResponse
	if err := json.NewDecoder(response.Body).Decode(&wire); err != nil {
		return "", fmt.Errorf("llm: decoding response: %w", err)
	}

	var text strings.Builder
	for _, block := range wire.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// readProviderError parses the common provider error body,
// {"error":{"type":"...","message":"..."}}. A body that is not that
// shape still produces a ProviderError with the status code.
func readProviderError(response *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, 4096))

	var wire struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	providerError := &ProviderError{StatusCode: response.StatusCode}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error.Message != "" {
		providerError.Type = wire.Error.Type
		providerError.Message = wire.Error.Message
	} else {
		providerError.Message = strings.TrimSpace(string(body))
	}
	return providerError
}
