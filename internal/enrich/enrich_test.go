// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package enrich

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/codechat/internal/docstore"
	"github.com/jeranaias/codechat/internal/files"
)

func newTestEnricher(t *testing.T) (*Enricher, string) {
	t.Helper()
	dir := t.TempDir()
	fs := files.NewStore([]string{"/etc"})
	return New(docstore.NewStore(fs), fs), dir
}

func TestEnhanceNoDocumentKeywords(t *testing.T) {
	e, _ := newTestEnricher(t)
	msg := "tell me about goroutines"
	res := e.Enhance(msg)
	if res.Message != msg {
		t.Errorf("message changed without document keywords: %q", res.Message)
	}
}

func TestEnhanceNoPaths(t *testing.T) {
	e, _ := newTestEnricher(t)
	msg := "please update the documentation style"
	res := e.Enhance(msg)
	if res.Message != msg {
		t.Errorf("message changed without paths: %q", res.Message)
	}
}

func TestEnhanceInjectsContent(t *testing.T) {
	e, dir := newTestEnricher(t)
	path := filepath.Join(dir, "app.js")
	os.WriteFile(path, []byte("const x = 1;"), 0644)

	msg := "please fix " + path
	res := e.Enhance(msg)

	if !strings.HasPrefix(res.Message, msg) {
		t.Error("original message not preserved as prefix")
	}
	if !strings.Contains(res.Message, "<context>") || !strings.Contains(res.Message, "</context>") {
		t.Error("context tags missing")
	}
	if !strings.Contains(res.Message, "const x = 1;") {
		t.Error("file content not injected")
	}
	if !strings.Contains(res.Message, "Base your answer on the file content") {
		t.Error("trailing instruction missing")
	}
	if len(res.Injected) != 1 {
		t.Errorf("injected = %v", res.Injected)
	}
}

func TestEnhanceSkipsUnreadable(t *testing.T) {
	e, dir := newTestEnricher(t)
	good := filepath.Join(dir, "good.txt")
	os.WriteFile(good, []byte("fine"), 0644)
	missing := filepath.Join(dir, "missing.txt")

	res := e.EnhanceWithPaths("update these files", []string{missing, good})
	if len(res.Skipped) != 1 || res.Skipped[0].Path != missing {
		t.Errorf("skipped = %v", res.Skipped)
	}
	if len(res.Injected) != 1 || res.Injected[0] != good {
		t.Errorf("injected = %v", res.Injected)
	}
	if !strings.Contains(res.Message, "fine") {
		t.Error("readable file not injected despite sibling failure")
	}
}

func TestEnhanceAllFailuresReturnsOriginal(t *testing.T) {
	e, dir := newTestEnricher(t)
	msg := "edit stuff"
	res := e.EnhanceWithPaths(msg, []string{filepath.Join(dir, "nope.txt")})
	if res.Message != msg {
		t.Errorf("message = %q, want original on total failure", res.Message)
	}
}

func TestEnhanceStructuredRendering(t *testing.T) {
	e, dir := newTestEnricher(t)
	path := filepath.Join(dir, "data.json")
	os.WriteFile(path, []byte(`{"a":1}`), 0644)

	res := e.EnhanceWithPaths("review the file", []string{path})
	if !strings.Contains(res.Message, `format="json"`) {
		t.Errorf("structured metadata missing:\n%s", res.Message)
	}
	// Normalized, pretty-printed rendering.
	if !strings.Contains(res.Message, "\"a\": 1") {
		t.Errorf("pretty-printed JSON missing:\n%s", res.Message)
	}
}
