// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "time"

// Message is one chat message in the wire format the daemon expects.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tune a single chat call. Zero values are omitted so the
// daemon's own defaults apply.
type ChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Model    string       `json:"model"`
	Messages []Message    `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *ChatOptions `json:"options,omitempty"`
}

// chatResponse is one line of the streaming chat reply.
type chatResponse struct {
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	Message      Message   `json:"message"`
	Done         bool      `json:"done"`
	DoneReason   string    `json:"done_reason,omitempty"`
	EvalCount    int       `json:"eval_count,omitempty"`
	EvalDuration int64     `json:"eval_duration,omitempty"`
}

// ModelInfo describes one installed model from /api/tags.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Digest     string    `json:"digest"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// PullProgress is one line of the streaming /api/pull reply.
type PullProgress struct {
	Status    string `json:"status"`
	Completed int64  `json:"completed"`
	Total     int64  `json:"total"`
}
