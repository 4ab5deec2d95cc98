// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// historyLimit caps the number of retained messages per conversation.
// Job conversations are short-lived (two phases at most), but the
// Director conversation accumulates one note per job outcome; the cap
// keeps request bodies bounded over a long-running engine.
const historyLimit = 40

// Session layers per-conversation transcripts over a Client,
// implementing both halves of the session boundary the dispatch
// engine consumes. Conversations are keyed by instance and
// conversation id, so one Session can serve several instances.
//
// Safe for concurrent use; each conversation's transcript is mutated
// under one lock, so interleaved jobs never corrupt each other's
// history.
type Session struct {
	client *Client
	system string
	log    *slog.Logger

	mu            sync.Mutex
	conversations map[string][]Message
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// Client performs the completions. Required.
	Client *Client

	// System is the system prompt sent with every request.
	System string

	// Logger receives request activity. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewSession returns an empty Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("llm: session requires a client")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		client:        cfg.Client,
		system:        cfg.System,
		log:           log,
		conversations: make(map[string][]Message),
	}, nil
}

// Execute appends the prompt to the conversation's transcript, runs a
// completion over the whole transcript, records the reply, and
// returns its text. On error the prompt is rolled back so a retried
// phase does not see its own failed attempt twice.
func (s *Session) Execute(ctx context.Context, instance, conversationID, prompt string) (string, error) {
	key := conversationKey(instance, conversationID)

	messages := s.appendMessage(key, Message{Role: RoleUser, Content: prompt})

	s.log.Debug("llm execute", "conversation", key, "transcript_len", len(messages))
	reply, err := s.client.Complete(ctx, s.system, messages)
	if err != nil {
		s.dropLastMessage(key)
		return "", err
	}

	s.appendMessage(key, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// Notify folds a notification into the conversation's transcript as a
// bracketed user-role note. No API call is made; the next Execute in
// that conversation carries the note as context. Always succeeds.
func (s *Session) Notify(ctx context.Context, instance, conversationID, text string) error {
	key := conversationKey(instance, conversationID)
	s.appendMessage(key, Message{Role: RoleUser, Content: "[notification] " + text})
	s.log.Info("notification", "conversation", key, "text", text)
	return nil
}

// Transcript returns a copy of the conversation's messages.
func (s *Session) Transcript(instance, conversationID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.conversations[conversationKey(instance, conversationID)]
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}

// Forget drops a conversation's transcript. The engine calls this for
// job conversations once their pipeline terminates.
func (s *Session) Forget(instance, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationKey(instance, conversationID))
}

// appendMessage adds a message under the lock and returns a snapshot
// of the transcript including it. Oldest messages fall off past the
// history limit; a trimmed transcript is realigned to start on a user
// turn, which the messages API requires.
func (s *Session) appendMessage(key string, message Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := append(s.conversations[key], message)
	if len(messages) > historyLimit {
		messages = messages[len(messages)-historyLimit:]
		for len(messages) > 0 && messages[0].Role != RoleUser {
			messages = messages[1:]
		}
	}
	s.conversations[key] = messages

	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}

// dropLastMessage removes the most recent message, undoing the
// optimistic append of a prompt whose completion failed.
func (s *Session) dropLastMessage(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.conversations[key]
	if len(messages) > 0 {
		s.conversations[key] = messages[:len(messages)-1]
	}
}

func conversationKey(instance, conversationID string) string {
	return instance + "/" + conversationID
}
