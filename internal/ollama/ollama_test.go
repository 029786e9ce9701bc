// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, func()) {
	srv := httptest.NewServer(handler)
	return NewClient(Config{BaseURL: srv.URL}), srv.Close
}

func TestListModels(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"gpt-oss:20b","size":13000000000,"digest":"abc"}]}`)
	}))
	defer done()

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 1 || models[0].Name != "gpt-oss:20b" {
		t.Errorf("models = %+v", models)
	}
}

func TestHasModelLatestSuffix(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[{"name":"llama3:latest"}]}`)
	}))
	defer done()

	ok, err := c.HasModel(context.Background(), "llama3")
	if err != nil || !ok {
		t.Errorf("HasModel = %v, %v", ok, err)
	}
}

func TestChatStreamDeltas(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true,"eval_count":2}`)
	}))
	defer done()

	var got strings.Builder
	err := c.ChatStream(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, nil, func(d string) {
		got.WriteString(d)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got.String() != "Hello" {
		t.Errorf("accumulated = %q", got.String())
	}
}

func TestChatCollectsFullReply(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"one "},"done":false}`)
		fmt.Fprintln(w, `{"message":{"content":"two"},"done":true}`)
	}))
	defer done()

	reply, err := c.Chat(context.Background(), "m", nil, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "one two" {
		t.Errorf("reply = %q", reply)
	}
}

func TestChatModelNotFound(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer done()

	err := c.ChatStream(context.Background(), "nope", nil, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsModelNotFound(err) {
		t.Errorf("IsModelNotFound = false for %v", err)
	}
}

func TestConnectionRefused(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.ListModels(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotRunning(err) {
		t.Errorf("IsNotRunning = false for %v", err)
	}
}

func TestStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"first"},"done":false}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// The stream never finishes; the client must bail on cancel.
		<-r.Context().Done()
	}))
	defer done()

	err := c.ChatStream(ctx, "m", nil, nil, func(d string) {
		cancel()
	})
	if err == nil {
		t.Fatal("cancelled stream returned nil error")
	}
}

func TestStreamWithoutDoneMarker(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"partial"},"done":false}`)
	}))
	defer done()

	err := c.ChatStream(context.Background(), "m", nil, nil, nil)
	if err == nil {
		t.Fatal("truncated stream returned nil error")
	}
}

func TestDeleteModelNotFound(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer done()

	err := c.DeleteModel(context.Background(), "ghost")
	if !IsModelNotFound(err) {
		t.Errorf("IsModelNotFound = false for %v", err)
	}
}
