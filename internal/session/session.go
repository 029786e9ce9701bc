// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the chat transcript: the in-memory session
// object and its JSON persistence, one file per session id.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one immutable chat message.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one interactive run's transcript. It is mutated only by
// appending messages; the chat loop is single-threaded so no locking
// is needed.
type Session struct {
	ID               string    `json:"id"`
	StartTime        time.Time `json:"startTime"`
	Messages         []Message `json:"messages"`
	WorkingDirectory string    `json:"workingDirectory"`
	TotalMessages    int       `json:"totalMessages"`
	LastActivity     time.Time `json:"lastActivity"`
}

// New creates an empty session rooted at workingDir.
func New(workingDir string) *Session {
	now := time.Now()
	return &Session{
		ID:               uuid.NewString(),
		StartTime:        now,
		WorkingDirectory: workingDir,
		LastActivity:     now,
	}
}

// Append adds a message with a fresh id and updates the activity
// counters. It returns the stored message.
func (s *Session) Append(role, content string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	s.Messages = append(s.Messages, msg)
	s.TotalMessages = len(s.Messages)
	s.LastActivity = msg.Timestamp
	return msg
}

// RemoveLast drops the most recent message. The chat loop uses this to
// roll back the user message when a stream fails before completion.
func (s *Session) RemoveLast() {
	if len(s.Messages) == 0 {
		return
	}
	s.Messages = s.Messages[:len(s.Messages)-1]
	s.TotalMessages = len(s.Messages)
}

// Clear drops every message but keeps the session identity.
func (s *Session) Clear() {
	s.Messages = nil
	s.TotalMessages = 0
	s.LastActivity = time.Now()
}

// Duration is the wall time since the session started.
func (s *Session) Duration() time.Duration {
	return time.Since(s.StartTime)
}
