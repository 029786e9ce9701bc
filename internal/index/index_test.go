// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"testing"

	"github.com/jeranaias/codechat/internal/session"
)

func openTestIndex(t *testing.T) (*Index, *session.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := session.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx, store
}

func TestIndexAndSearch(t *testing.T) {
	idx, store := openTestIndex(t)

	s := session.New("/work")
	s.Append(session.RoleUser, "how do goroutines talk to each other")
	s.Append(session.RoleAssistant, "Use channels for communication between goroutines.")
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexSession(s); err != nil {
		t.Fatalf("IndexSession failed: %v", err)
	}

	hits, err := idx.Search("goroutines", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		if h.SessionID != s.ID {
			t.Errorf("hit session = %s", h.SessionID)
		}
	}

	none, err := idx.Search("kubernetes", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("unexpected hits: %v", none)
	}
}

func TestSearchQuotesUserPunctuation(t *testing.T) {
	idx, _ := openTestIndex(t)
	// FTS operators in the query must not produce a syntax error.
	if _, err := idx.Search(`NEAR("weird" OR)`, 5); err != nil {
		t.Errorf("punctuated query failed: %v", err)
	}
}

func TestReindexReplacesRows(t *testing.T) {
	idx, store := openTestIndex(t)

	s := session.New("/work")
	s.Append(session.RoleUser, "original text about ferrets")
	store.Save(s)
	idx.IndexSession(s)

	s.Clear()
	s.Append(session.RoleUser, "rewritten text about badgers")
	store.Save(s)
	idx.IndexSession(s)

	if hits, _ := idx.Search("ferrets", 10); len(hits) != 0 {
		t.Errorf("stale rows survived reindex: %v", hits)
	}
	if hits, _ := idx.Search("badgers", 10); len(hits) != 1 {
		t.Errorf("new rows missing: %v", hits)
	}
}

func TestSyncIndexesAndPrunes(t *testing.T) {
	idx, store := openTestIndex(t)

	a := session.New("/w")
	a.Append(session.RoleUser, "alpha content")
	store.Save(a)
	b := session.New("/w")
	b.Append(session.RoleUser, "beta content")
	store.Save(b)

	n, err := idx.Sync(store)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if n != 2 {
		t.Errorf("indexed %d sessions, want 2", n)
	}
	if count, _ := idx.Count(); count != 2 {
		t.Errorf("Count = %d", count)
	}

	// Unchanged files are not reindexed.
	n, err = idx.Sync(store)
	if err != nil || n != 0 {
		t.Errorf("second Sync = %d, %v", n, err)
	}

	// Deleted transcripts leave the index.
	store.Delete(a.ID)
	if _, err := idx.Sync(store); err != nil {
		t.Fatal(err)
	}
	if hits, _ := idx.Search("alpha", 10); len(hits) != 0 {
		t.Errorf("deleted session still searchable: %v", hits)
	}
}

func TestRemoveSession(t *testing.T) {
	idx, store := openTestIndex(t)
	s := session.New("/w")
	s.Append(session.RoleUser, "ephemeral note")
	store.Save(s)
	idx.IndexSession(s)

	if err := idx.RemoveSession(s.ID); err != nil {
		t.Fatalf("RemoveSession failed: %v", err)
	}
	if hits, _ := idx.Search("ephemeral", 10); len(hits) != 0 {
		t.Errorf("hits after removal: %v", hits)
	}
}

func TestTranscriptID(t *testing.T) {
	if id, ok := transcriptID("/sessions/abc-123.json"); !ok || id != "abc-123" {
		t.Errorf("transcriptID = %q, %v", id, ok)
	}
	if _, ok := transcriptID("/sessions/index.db"); ok {
		t.Error("index.db treated as transcript")
	}
	if _, ok := transcriptID("/sessions/abc.json.tmp-42"); ok {
		t.Error("temp file treated as transcript")
	}
}
