// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jeranaias/codechat/internal/session"
)

func threeMessageSession() *session.Session {
	s := session.New("/work")
	s.Append(session.RoleUser, "first question")
	s.Append(session.RoleAssistant, "first answer")
	s.Append(session.RoleUser, "second question")
	return s
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"md":       FormatMarkdown,
		"Markdown": FormatMarkdown,
		"":         FormatMarkdown,
		"json":     FormatJSON,
		"yml":      FormatYAML,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("csv accepted")
	}
}

func TestMarkdownHasOneSectionPerMessage(t *testing.T) {
	s := threeMessageSession()
	body, err := Render(s, FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(body, "# Chat Session: "+s.ID) {
		t.Errorf("header = %q", strings.SplitN(body, "\n", 2)[0])
	}

	headers := regexp.MustCompile(`(?m)^## (user|assistant|system) \(\d{2}:\d{2}:\d{2}\)$`).FindAllString(body, -1)
	if len(headers) != 3 {
		t.Fatalf("got %d message headers, want 3:\n%s", len(headers), body)
	}
	// Chronological order: user, assistant, user.
	if !strings.HasPrefix(headers[0], "## user") || !strings.HasPrefix(headers[1], "## assistant") {
		t.Errorf("headers out of order: %v", headers)
	}
}

func TestJSONRoundTrips(t *testing.T) {
	s := threeMessageSession()
	body, err := Render(s, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var back session.Session
	if err := json.Unmarshal([]byte(body), &back); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if back.ID != s.ID || len(back.Messages) != 3 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestYAMLContainsMessages(t *testing.T) {
	body, err := Render(threeMessageSession(), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "first question") || !strings.Contains(body, "role: assistant") {
		t.Errorf("yaml body:\n%s", body)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	s := threeMessageSession()
	path := filepath.Join(dir, "out", s.ID+".md")

	if err := WriteFile(s, FormatMarkdown, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "first answer") {
		t.Error("exported file missing content")
	}
}
