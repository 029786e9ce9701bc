// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/docstore"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/session"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	fs := files.NewStore(nil)
	reg := NewRegistry()
	return &Context{
		Ctx:      context.Background(),
		Config:   config.Default(),
		Session:  session.New(t.TempDir()),
		Store:    store,
		Files:    fs,
		Docs:     docstore.NewStore(fs),
		Registry: reg,
		Out:      &strings.Builder{},
	}
}

func output(ctx *Context) string {
	return ctx.Out.(*strings.Builder).String()
}

// =============================================================================
// PARSER
// =============================================================================

func TestParseNonCommand(t *testing.T) {
	p := NewParser(NewRegistry())
	res := p.Parse("tell me about goroutines")
	if res.IsCommand {
		t.Error("plain text parsed as command")
	}
}

func TestParseKnownCommandWithArgs(t *testing.T) {
	p := NewParser(NewRegistry())
	res := p.Parse("/read  notes.md")
	if !res.IsCommand {
		t.Fatal("not recognized as command")
	}
	if res.Command == nil || res.Command.Name != "/read" {
		t.Fatalf("command = %+v", res.Command)
	}
	if len(res.Args) != 1 || res.Args[0] != "notes.md" {
		t.Errorf("args = %v", res.Args)
	}
}

func TestParseAlias(t *testing.T) {
	p := NewParser(NewRegistry())
	res := p.Parse("/q")
	if res.Command == nil || res.Command.Name != "/exit" {
		t.Fatalf("alias /q resolved to %+v", res.Command)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	p := NewParser(NewRegistry())
	res := p.Parse("/frobnicate now")
	if !res.IsCommand {
		t.Fatal("slash input not flagged as command")
	}
	if res.Command != nil {
		t.Errorf("unknown command resolved to %s", res.Command.Name)
	}
	if res.CommandName != "/frobnicate" {
		t.Errorf("command name = %q", res.CommandName)
	}
}

func TestParseChineseArgs(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse("/search 重构")
	if len(res.Args) != 1 || res.Args[0] != "重构" {
		t.Errorf("args = %q, want [重构]", res.Args)
	}

	res = p.Parse(`/write 文件.txt "中文 内容"`)
	if len(res.Args) != 2 {
		t.Fatalf("args = %q", res.Args)
	}
	if res.Args[0] != "文件.txt" {
		t.Errorf("path arg = %q", res.Args[0])
	}
	if res.Args[1] != "中文 内容" {
		t.Errorf("quoted arg = %q", res.Args[1])
	}

	// Ideographic space is a separator outside quotes.
	res = p.Parse("/doc search notes.md　项目")
	if got := res.Args[len(res.Args)-1]; got != "项目" {
		t.Errorf("last arg = %q, want 项目", got)
	}
}

func TestParseQuotedArgs(t *testing.T) {
	p := NewParser(NewRegistry())
	res := p.Parse(`/write out.txt "hello there world"`)
	if len(res.Args) != 2 {
		t.Fatalf("args = %v", res.Args)
	}
	if res.Args[1] != "hello there world" {
		t.Errorf("quoted arg = %q", res.Args[1])
	}
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistryCoversRequiredCommands(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{
		"/help", "/exit", "/clear", "/save", "/models", "/config",
		"/history", "/edit", "/read", "/write", "/delete", "/doc",
		"/search", "/convert",
	} {
		if reg.Get(name) == nil {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestRegistryCategoriesNonEmpty(t *testing.T) {
	byCat := NewRegistry().ByCategory()
	for _, category := range helpCategoryOrder {
		if len(byCat[category]) == 0 {
			t.Errorf("category %s has no commands", category)
		}
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func TestHandleHelpListsCommands(t *testing.T) {
	ctx := newTestContext(t)
	if err := HandleHelp(ctx, nil); err != nil {
		t.Fatalf("HandleHelp: %v", err)
	}
	out := output(ctx)
	for _, want := range []string{"/help", "/read", "/config", "Conversation:"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestHandleHelpSingleCommand(t *testing.T) {
	ctx := newTestContext(t)
	if err := HandleHelp(ctx, []string{"session"}); err != nil {
		t.Fatalf("HandleHelp: %v", err)
	}
	if !strings.Contains(output(ctx), "/session") {
		t.Errorf("output = %q", output(ctx))
	}
}

func TestHandleExitReturnsQuit(t *testing.T) {
	if err := HandleExit(nil, nil); err != ErrQuit {
		t.Errorf("HandleExit = %v, want ErrQuit", err)
	}
}

func TestHandleClearEmptiesSession(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Session.Append(session.RoleUser, "hi")
	ctx.Session.Append(session.RoleAssistant, "hello")

	if err := HandleClear(ctx, nil); err != nil {
		t.Fatalf("HandleClear: %v", err)
	}
	if len(ctx.Session.Messages) != 0 {
		t.Errorf("session still has %d messages", len(ctx.Session.Messages))
	}
}

func TestWriteReadDeleteRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	path := filepath.Join(t.TempDir(), "note.txt")

	if err := HandleWrite(ctx, []string{path, "first", "draft"}); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	if err := HandleRead(ctx, []string{path}); err != nil {
		t.Fatalf("HandleRead: %v", err)
	}
	if !strings.Contains(output(ctx), "first draft") {
		t.Errorf("read output = %q", output(ctx))
	}

	if err := HandleDelete(ctx, []string{path}); err != nil {
		t.Fatalf("HandleDelete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after /delete")
	}
}

func TestHandleEditReplacesLine(t *testing.T) {
	ctx := newTestContext(t)
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := HandleEdit(ctx, []string{path, "2", "TWO"}); err != nil {
		t.Fatalf("HandleEdit: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "one\nTWO\nthree\n" {
		t.Errorf("content = %q", string(data))
	}
}

func TestHandleFilesBackups(t *testing.T) {
	ctx := newTestContext(t)
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("v1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := HandleWrite(ctx, []string{path, "v2"}); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}

	if err := HandleFiles(ctx, []string{"backups", path}); err != nil {
		t.Fatalf("HandleFiles: %v", err)
	}
	if !strings.Contains(output(ctx), ".backup.") {
		t.Errorf("backups output = %q", output(ctx))
	}
}

func TestHandleConfigGetAndSet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	ctx := newTestContext(t)

	if err := HandleConfig(ctx, []string{"ollama.temperature", "0.3"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ctx.Config.Ollama.Temperature != 0.3 {
		t.Errorf("temperature = %v", ctx.Config.Ollama.Temperature)
	}

	if err := HandleConfig(ctx, []string{"ollama.temperature"}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(output(ctx), "0.3") {
		t.Errorf("get output = %q", output(ctx))
	}
}

func TestHandleConfigRejectsInvalidValue(t *testing.T) {
	ctx := newTestContext(t)
	if err := HandleConfig(ctx, []string{"ollama.temperature", "9.5"}); err == nil {
		t.Error("out-of-range temperature accepted")
	}
}

func TestHandleHistoryTail(t *testing.T) {
	ctx := newTestContext(t)
	for i := 0; i < 5; i++ {
		ctx.Session.Append(session.RoleUser, "message")
	}
	if err := HandleHistory(ctx, []string{"2"}); err != nil {
		t.Fatalf("HandleHistory: %v", err)
	}
	if got := strings.Count(output(ctx), "message"); got != 2 {
		t.Errorf("printed %d messages, want 2", got)
	}
}

func TestHandleSessionNewAndLoad(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Session.Append(session.RoleUser, "remember me")
	if err := ctx.Store.Save(ctx.Session); err != nil {
		t.Fatal(err)
	}
	oldID := ctx.Session.ID

	ctx.ReplaceSession = func(s *session.Session) { ctx.Session = s }

	if err := HandleSession(ctx, []string{"new"}); err != nil {
		t.Fatalf("new: %v", err)
	}
	if ctx.Session.ID == oldID {
		t.Fatal("session id unchanged after /session new")
	}

	if err := HandleSession(ctx, []string{"load", oldID}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ctx.Session.ID != oldID || len(ctx.Session.Messages) != 1 {
		t.Errorf("loaded session = %s with %d messages", ctx.Session.ID, len(ctx.Session.Messages))
	}
}

func TestHandleSearchLinearFallback(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Session.Append(session.RoleUser, "how do goroutines leak")
	if err := ctx.Store.Save(ctx.Session); err != nil {
		t.Fatal(err)
	}

	if err := HandleSearch(ctx, []string{"goroutines"}); err != nil {
		t.Fatalf("HandleSearch: %v", err)
	}
	if !strings.Contains(output(ctx), "goroutines") {
		t.Errorf("search output = %q", output(ctx))
	}
}

func TestHandleDocWriteValidatesFormat(t *testing.T) {
	ctx := newTestContext(t)
	path := filepath.Join(t.TempDir(), "data.json")
	if err := HandleDoc(ctx, []string{"write", path, "not", "json"}); err == nil {
		t.Error("invalid json accepted by /doc write")
	}
}

func TestHandleConvertJSONToYAML(t *testing.T) {
	ctx := newTestContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "in.json")
	dst := filepath.Join(dir, "out.yaml")
	if err := os.WriteFile(src, []byte(`{"name":"x","count":2}`), 0644); err != nil {
		t.Fatal(err)
	}

	if err := HandleConvert(ctx, []string{src, dst}); err != nil {
		t.Fatalf("HandleConvert: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read converted file: %v", err)
	}
	if !strings.Contains(string(data), "name: x") {
		t.Errorf("converted content = %q", string(data))
	}
}
