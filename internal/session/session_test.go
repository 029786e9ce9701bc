// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAppendUpdatesCounters(t *testing.T) {
	s := New("/work")
	before := s.LastActivity

	time.Sleep(time.Millisecond)
	msg := s.Append(RoleUser, "hello")

	if msg.ID == "" {
		t.Error("message id empty")
	}
	if s.TotalMessages != 1 || len(s.Messages) != 1 {
		t.Errorf("counters = %d/%d", s.TotalMessages, len(s.Messages))
	}
	if !s.LastActivity.After(before) {
		t.Error("LastActivity not advanced")
	}
}

func TestRemoveLast(t *testing.T) {
	s := New("/work")
	s.Append(RoleUser, "one")
	s.Append(RoleAssistant, "two")
	s.RemoveLast()
	if s.TotalMessages != 1 || s.Messages[0].Content != "one" {
		t.Errorf("session = %+v", s.Messages)
	}
	s.RemoveLast()
	s.RemoveLast() // empty: no-op
	if s.TotalMessages != 0 {
		t.Errorf("TotalMessages = %d", s.TotalMessages)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New("/work")
	s.Append(RoleUser, "question")
	s.Append(RoleAssistant, "answer")

	if err := st.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := st.Load(s.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != s.ID || len(loaded.Messages) != 2 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Messages[1].Role != RoleAssistant || loaded.Messages[1].Content != "answer" {
		t.Errorf("message = %+v", loaded.Messages[1])
	}
}

func TestLoadMissing(t *testing.T) {
	st, _ := NewStore(t.TempDir())
	_, err := st.Load("no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrderedByActivity(t *testing.T) {
	st, _ := NewStore(t.TempDir())

	old := New("/work")
	old.Append(RoleUser, "older session")
	old.LastActivity = time.Now().Add(-time.Hour)
	st.Save(old)

	fresh := New("/work")
	fresh.Append(RoleUser, "newer session")
	st.Save(fresh)

	metas, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d metas", len(metas))
	}
	if metas[0].ID != fresh.ID {
		t.Errorf("most recent first: got %s", metas[0].ID)
	}
	if metas[0].FirstUserLine != "newer session" {
		t.Errorf("first line = %q", metas[0].FirstUserLine)
	}
}

func TestDeleteAndClear(t *testing.T) {
	st, _ := NewStore(t.TempDir())
	a := New("/w")
	b := New("/w")
	st.Save(a)
	st.Save(b)

	if err := st.Delete(a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !errors.Is(st.Delete(a.ID), ErrNotFound) {
		t.Error("double delete should be ErrNotFound")
	}

	n, err := st.Clear()
	if err != nil || n != 1 {
		t.Errorf("Clear = %d, %v", n, err)
	}
	metas, _ := st.List()
	if len(metas) != 0 {
		t.Errorf("sessions remain: %v", metas)
	}
}

func TestSearch(t *testing.T) {
	st, _ := NewStore(t.TempDir())
	s := New("/w")
	s.Append(RoleUser, "how do goroutines work")
	s.Append(RoleAssistant, "Goroutines are lightweight threads.")
	st.Save(s)

	hits, err := st.Search("goroutine")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 (case-insensitive)", len(hits))
	}
	if hits[0].SessionID != s.ID {
		t.Errorf("hit session = %s", hits[0].SessionID)
	}
}

func TestFormatList(t *testing.T) {
	out := FormatList(nil)
	if out != "no saved sessions" {
		t.Errorf("empty list output = %q", out)
	}

	metas := []Meta{{ID: "abc", LastActivity: "2026-08-30 10:00", TotalMessages: 3, FirstUserLine: "你好世界"}}
	out = FormatList(metas)
	if !strings.Contains(out, "abc") || !strings.Contains(out, "你好世界") {
		t.Errorf("output missing fields:\n%s", out)
	}
}
