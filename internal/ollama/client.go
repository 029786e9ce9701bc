// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama is the HTTP client for a locally-running Ollama daemon:
// health checks, model management, and streaming chat.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config holds client connection settings.
type Config struct {
	BaseURL string
	// Timeout bounds non-streaming requests. Streaming chat uses its
	// own client with no overall deadline since generation time is
	// unbounded.
	Timeout time.Duration
}

// DefaultConfig targets the standard local daemon address.
func DefaultConfig() Config {
	base := os.Getenv("OLLAMA_HOST")
	if base == "" {
		base = "http://127.0.0.1:11434"
	} else if !strings.HasPrefix(base, "http") {
		base = "http://" + base
	}
	return Config{
		BaseURL: base,
		Timeout: 120 * time.Second,
	}
}

// Client talks to one Ollama daemon. Safe for sequential use from a
// single goroutine, which is all the chat loop needs.
type Client struct {
	config       Config
	client       *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

// NewClient builds a Client from config, filling zero values from
// DefaultConfig.
func NewClient(config Config) *Client {
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	return &Client{
		config:       config,
		client:       &http.Client{Timeout: config.Timeout},
		streamClient: &http.Client{},
		// The daemon is a single local process; a small burst with a
		// steady 10 req/s ceiling keeps tight loops from hammering it.
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
}

// BaseURL returns the daemon address this client targets.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH
// =============================================================================

// CheckRunning probes the daemon root endpoint.
func (c *Client) CheckRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return newError(ErrTypeConnection, "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return newError(ErrTypeConnection, "ollama is not reachable at "+c.config.BaseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// =============================================================================
// MODELS
// =============================================================================

// ListModels returns the installed models from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	body, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, newError(ErrTypeInvalidResponse, "decode /api/tags", err)
	}
	return tags.Models, nil
}

// HasModel reports whether name (or name:latest) is installed.
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m.Name == name || m.Name == name+":latest" {
			return true, nil
		}
	}
	return false, nil
}

// PullModel downloads a model, reporting progress lines through the
// callback. The callback may be nil.
func (c *Client) PullModel(ctx context.Context, name string, progress func(PullProgress)) error {
	payload, _ := json.Marshal(map[string]any{"name": name, "stream": true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return newError(ErrTypeConnection, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return c.wrapTransportError(err, "pull "+name)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp, name)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var p PullProgress
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return newError(ErrTypeStream, "decode pull progress", err)
		}
		if progress != nil {
			progress(p)
		}
	}
}

// DeleteModel removes an installed model.
func (c *Client) DeleteModel(ctx context.Context, name string) error {
	payload, _ := json.Marshal(map[string]string{"name": name})
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.BaseURL+"/api/delete", bytes.NewReader(payload))
	if err != nil {
		return newError(ErrTypeConnection, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.wrapTransportError(err, "delete "+name)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return newError(ErrTypeModelNotFound, "model "+name+" is not installed", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp, name)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends the full message history and returns the complete reply in
// one piece.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *ChatOptions) (string, error) {
	var acc StreamAccumulator
	err := c.ChatStream(ctx, model, messages, opts, func(delta string) {
		acc.Add(delta)
	})
	if err != nil {
		return "", err
	}
	return acc.Content(), nil
}

// ChatStream sends the full message history and invokes onDelta for
// each content fragment as it arrives. It returns after the daemon
// signals completion; a context cancellation or transport failure
// mid-stream is returned as an error and the partial content should be
// discarded by the caller.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, opts *ChatOptions, onDelta func(string)) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return newError(ErrTypeTimeout, "rate limiter", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
		Options:  opts,
	})
	if err != nil {
		return newError(ErrTypeInvalidResponse, "encode chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return newError(ErrTypeConnection, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return c.wrapTransportError(err, "chat")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp, model)
	}

	reader := NewStreamReader(resp.Body)
	return reader.Process(ctx, onDelta)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newError(ErrTypeTimeout, "rate limiter", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, newError(ErrTypeConnection, "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(err, path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrTypeInvalidResponse, "read response", err)
	}
	return body, nil
}

func (c *Client) wrapTransportError(err error, what string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrTypeTimeout, what, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(ErrTypeTimeout, what, err)
	}
	return newError(ErrTypeConnection, "ollama is not reachable at "+c.config.BaseURL, err)
}

func (c *Client) statusError(resp *http.Response, subject string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if resp.StatusCode == http.StatusNotFound || strings.Contains(msg, "not found") {
		return newError(ErrTypeModelNotFound,
			fmt.Sprintf("model %q is not installed (try: ollama pull %s)", subject, subject), nil)
	}
	return newError(ErrTypeServer, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg), nil)
}
