// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/docstore"
	"github.com/jeranaias/codechat/internal/exec"
	"github.com/jeranaias/codechat/internal/export"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/session"
	"github.com/jeranaias/codechat/internal/util"
)

// helpCategoryOrder fixes the section order in /help output.
var helpCategoryOrder = []string{
	"Navigation", "Conversation", "Model", "Files", "Documents", "Settings",
}

// =============================================================================
// NAVIGATION
// =============================================================================

// HandleHelp lists all commands, or details one when named.
func HandleHelp(ctx *Context, args []string) error {
	if ctx.Registry == nil {
		return fmt.Errorf("help unavailable: no registry attached")
	}

	if len(args) > 0 {
		name := args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := ctx.Registry.Get(name)
		if cmd == nil {
			return fmt.Errorf("unknown command %s", name)
		}
		fmt.Fprintf(ctx.Out, "%s — %s\n", cmd.Name, cmd.Description)
		if cmd.Usage != "" {
			fmt.Fprintf(ctx.Out, "usage: %s\n", cmd.Usage)
		}
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(ctx.Out, "aliases: %s\n", strings.Join(cmd.Aliases, ", "))
		}
		return nil
	}

	byCategory := ctx.Registry.ByCategory()
	for _, category := range helpCategoryOrder {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(ctx.Out, "%s:\n", category)
		for _, cmd := range cmds {
			fmt.Fprintf(ctx.Out, "  %-10s %s\n", cmd.Name, cmd.Description)
		}
	}
	fmt.Fprintln(ctx.Out, "\nAnything else is sent to the model.")
	return nil
}

// HandleExit ends the chat loop.
func HandleExit(_ *Context, _ []string) error {
	return ErrQuit
}

// =============================================================================
// CONVERSATION
// =============================================================================

// HandleClear wipes the current conversation but keeps the session id.
func HandleClear(ctx *Context, _ []string) error {
	ctx.Session.Clear()
	if err := ctx.Store.Save(ctx.Session); err != nil {
		return fmt.Errorf("save cleared session: %w", err)
	}
	fmt.Fprintln(ctx.Out, "conversation cleared")
	return nil
}

// HandleSave exports the conversation as markdown, defaulting the path
// to chat_<short id>.md in the working directory.
func HandleSave(ctx *Context, args []string) error {
	path := fmt.Sprintf("chat_%s.md", util.TruncateRunes(ctx.Session.ID, 8))
	if len(args) > 0 {
		path = args[0]
	}
	if err := export.WriteFile(ctx.Session, export.FormatMarkdown, path); err != nil {
		return fmt.Errorf("export session: %w", err)
	}
	fmt.Fprintf(ctx.Out, "saved %d messages to %s\n", len(ctx.Session.Messages), path)
	return nil
}

// HandleExport exports the conversation in md, json, or yaml.
func HandleExport(ctx *Context, args []string) error {
	formatArg := ""
	if len(args) > 0 {
		formatArg = args[0]
	}
	format, err := export.ParseFormat(formatArg)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("chat_%s%s", util.TruncateRunes(ctx.Session.ID, 8), format.Extension())
	if len(args) > 1 {
		path = args[1]
	}
	if err := export.WriteFile(ctx.Session, format, path); err != nil {
		return fmt.Errorf("export session: %w", err)
	}
	fmt.Fprintf(ctx.Out, "exported to %s\n", path)
	return nil
}

// HandleHistory prints the last n messages, default 10.
func HandleHistory(ctx *Context, args []string) error {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("usage: /history [n]")
		}
		n = v
	}

	msgs := ctx.Session.Messages
	if len(msgs) == 0 {
		fmt.Fprintln(ctx.Out, "no messages yet")
		return nil
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	for _, m := range msgs {
		fmt.Fprintf(ctx.Out, "[%s] %s: %s\n",
			m.Timestamp.Format("15:04:05"), m.Role, util.FirstLine(m.Content))
	}
	return nil
}

// HandleSession inspects or manages sessions. With no argument it
// prints the current session's summary.
func HandleSession(ctx *Context, args []string) error {
	sub := "info"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "info":
		s := ctx.Session
		fmt.Fprintf(ctx.Out, "session %s\n", s.ID)
		fmt.Fprintf(ctx.Out, "  started:  %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(ctx.Out, "  messages: %d\n", s.TotalMessages)
		fmt.Fprintf(ctx.Out, "  duration: %s\n", s.Duration().Round(time.Second))
		fmt.Fprintf(ctx.Out, "  workdir:  %s\n", s.WorkingDirectory)
		return nil

	case "list":
		metas, err := ctx.Store.List()
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(metas) == 0 {
			fmt.Fprintln(ctx.Out, "no saved sessions")
			return nil
		}
		fmt.Fprint(ctx.Out, session.FormatList(metas))
		return nil

	case "new":
		if ctx.ReplaceSession == nil {
			return fmt.Errorf("cannot start a new session here")
		}
		fresh := session.New(ctx.Session.WorkingDirectory)
		ctx.ReplaceSession(fresh)
		fmt.Fprintf(ctx.Out, "started session %s\n", fresh.ID)
		return nil

	case "load":
		if len(args) < 2 {
			return fmt.Errorf("usage: /session load <id>")
		}
		if ctx.ReplaceSession == nil {
			return fmt.Errorf("cannot load a session here")
		}
		loaded, err := ctx.Store.Load(args[1])
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		ctx.ReplaceSession(loaded)
		fmt.Fprintf(ctx.Out, "loaded session %s (%d messages)\n", loaded.ID, len(loaded.Messages))
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: /session delete <id>")
		}
		if err := ctx.Store.Delete(args[1]); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Fprintf(ctx.Out, "deleted session %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("usage: /session [info|list|new|load <id>|delete <id>]")
	}
}

// HandleSearch searches saved transcripts, preferring the FTS index and
// falling back to a linear scan of the store.
func HandleSearch(ctx *Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /search <query>")
	}
	query := strings.Join(args, " ")

	if ctx.Index != nil {
		hits, err := ctx.Index.Search(query, 20)
		if err == nil {
			if len(hits) == 0 {
				fmt.Fprintln(ctx.Out, "no matches")
				return nil
			}
			for _, h := range hits {
				fmt.Fprintf(ctx.Out, "%s  %s: %s\n",
					util.TruncateRunes(h.SessionID, 8), h.Role, h.Snippet)
			}
			return nil
		}
		// Index trouble falls through to the linear scan.
	}

	hits, err := ctx.Store.Search(query)
	if err != nil {
		return fmt.Errorf("search sessions: %w", err)
	}
	if len(hits) == 0 {
		fmt.Fprintln(ctx.Out, "no matches")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(ctx.Out, "%s  %s: %s\n",
			util.TruncateRunes(h.SessionID, 8), h.Role, h.Excerpt)
	}
	return nil
}

// =============================================================================
// MODEL
// =============================================================================

// HandleModels lists installed models, marking the active one.
func HandleModels(ctx *Context, _ []string) error {
	models, err := ctx.Ollama.ListModels(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		fmt.Fprintln(ctx.Out, "no models installed (try: ollama pull gpt-oss:20b)")
		return nil
	}
	for _, m := range models {
		marker := "  "
		if m.Name == ctx.Config.Ollama.Model {
			marker = "* "
		}
		fmt.Fprintf(ctx.Out, "%s%-30s %8.1f GB  %s\n",
			marker, m.Name, float64(m.Size)/(1<<30), m.ModifiedAt.Format("2006-01-02"))
	}
	return nil
}

// HandleModel shows or switches the active model. Switching to a model
// the daemon does not have is allowed with a warning, so a pull can
// happen later.
func HandleModel(ctx *Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(ctx.Out, "active model: %s\n", ctx.Config.Ollama.Model)
		return nil
	}

	name := args[0]
	if ok, err := ctx.Ollama.HasModel(ctx.Ctx, name); err == nil && !ok {
		fmt.Fprintf(ctx.Out, "warning: %s is not installed (ollama pull %s)\n", name, name)
	}
	ctx.Config.Ollama.Model = name
	if err := ctx.Config.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(ctx.Out, "switched to %s\n", name)
	return nil
}

// =============================================================================
// FILES
// =============================================================================

// HandleRead prints a file's content.
func HandleRead(ctx *Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /read <path>")
	}
	content, err := ctx.Files.Read(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(ctx.Out, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(ctx.Out)
	}
	return nil
}

// HandleWrite writes the remaining arguments to the named file,
// backing up any existing content.
func HandleWrite(ctx *Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: /write <path> <content...>")
	}
	res := ctx.Files.Write(args[0], strings.Join(args[1:], " "), files.WriteOptions{
		Backup:          true,
		CreateIfMissing: true,
	})
	return reportEdit(ctx, res)
}

// HandleEdit replaces one line of a file.
func HandleEdit(ctx *Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: /edit <path> <line> <text...>")
	}
	lineNum, err := strconv.Atoi(args[1])
	if err != nil || lineNum < 1 {
		return fmt.Errorf("line must be a positive number, got %q", args[1])
	}
	res := ctx.Files.ReplaceLine(args[0], lineNum, strings.Join(args[2:], " "))
	return reportEdit(ctx, res)
}

// HandleDelete removes a file after backing it up.
func HandleDelete(ctx *Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /delete <path>")
	}
	res := ctx.Files.Delete(args[0], true)
	return reportEdit(ctx, res)
}

// HandleFiles dispatches file store utilities.
func HandleFiles(ctx *Context, args []string) error {
	if len(args) < 2 || args[0] != "backups" {
		return fmt.Errorf("usage: /files backups <path>")
	}
	backups := ctx.Files.Backups(args[1])
	if len(backups) == 0 {
		fmt.Fprintf(ctx.Out, "no backups for %s\n", args[1])
		return nil
	}
	for _, b := range backups {
		fmt.Fprintln(ctx.Out, b)
	}
	return nil
}

func reportEdit(ctx *Context, res files.EditResult) error {
	if !res.Success {
		return fmt.Errorf("%s", res.Error)
	}
	fmt.Fprintf(ctx.Out, "%s (%d -> %d lines)", res.Message, res.LinesBefore, res.LinesAfter)
	if res.BackupPath != "" {
		fmt.Fprintf(ctx.Out, ", backup at %s", res.BackupPath)
	}
	fmt.Fprintln(ctx.Out)
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// HandleDoc dispatches structured document operations.
func HandleDoc(ctx *Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /doc read|write|search|convert ...")
	}

	switch args[0] {
	case "read":
		if len(args) < 2 {
			return fmt.Errorf("usage: /doc read <path>")
		}
		res := ctx.Docs.Read(args[1], docstore.DetectFormat(args[1]))
		if !res.Success {
			return fmt.Errorf("%s", res.Error)
		}
		printDocMetadata(ctx, res)
		fmt.Fprint(ctx.Out, res.Content)
		if !strings.HasSuffix(res.Content, "\n") {
			fmt.Fprintln(ctx.Out)
		}
		return nil

	case "write":
		if len(args) < 3 {
			return fmt.Errorf("usage: /doc write <path> <content...>")
		}
		content := strings.Join(args[2:], " ")
		res := ctx.Docs.Write(args[1], content, docstore.DetectFormat(args[1]), true)
		if !res.Success {
			return fmt.Errorf("%s", res.Error)
		}
		fmt.Fprintf(ctx.Out, "wrote %s\n", args[1])
		return nil

	case "search":
		if len(args) < 3 {
			return fmt.Errorf("usage: /doc search <path> <query>")
		}
		matches, err := ctx.Docs.Search(args[1], strings.Join(args[2:], " "), false)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintln(ctx.Out, "no matches")
			return nil
		}
		for _, m := range matches {
			fmt.Fprintf(ctx.Out, "%4d: %s\n", m.Line, m.Text)
		}
		return nil

	case "convert":
		return HandleConvert(ctx, args[1:])

	default:
		return fmt.Errorf("usage: /doc read|write|search|convert ...")
	}
}

// HandleConvert converts a document between formats. The target format
// defaults to what the destination extension implies.
func HandleConvert(ctx *Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: /convert <src> <dst> [json|yaml|markdown|text]")
	}
	target := docstore.DetectFormat(args[1])
	if len(args) > 2 {
		target = docstore.Format(args[2])
	}
	res := ctx.Docs.Convert(args[0], args[1], target)
	if !res.Success {
		return fmt.Errorf("%s", res.Error)
	}
	fmt.Fprintf(ctx.Out, "converted %s -> %s (%s)\n", args[0], args[1], target)
	return nil
}

func printDocMetadata(ctx *Context, res docstore.Result) {
	md := res.Metadata
	fmt.Fprintf(ctx.Out, "# %s, %d bytes", md.Format, md.Size)
	if s := md.Structure; s != nil {
		if len(s.Headings) > 0 {
			fmt.Fprintf(ctx.Out, ", %d headings", len(s.Headings))
		}
		if s.TopLevelKeys > 0 {
			fmt.Fprintf(ctx.Out, ", %d top-level keys", s.TopLevelKeys)
		}
		if s.HasFrontmatter {
			fmt.Fprint(ctx.Out, ", frontmatter")
		}
	}
	fmt.Fprintln(ctx.Out)
}

// =============================================================================
// SETTINGS
// =============================================================================

// HandleConfig lists, gets, or sets configuration values. Sets are
// validated and persisted immediately.
func HandleConfig(ctx *Context, args []string) error {
	switch len(args) {
	case 0:
		keys := config.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			v, err := ctx.Config.Get(k)
			if err != nil {
				continue
			}
			fmt.Fprintf(ctx.Out, "%-35s %s\n", k, v)
		}
		return nil

	case 1:
		v, err := ctx.Config.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "%s = %s\n", args[0], v)
		return nil

	default:
		if err := ctx.Config.Set(args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		if err := ctx.Config.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(ctx.Out, "set %s\n", args[0])
		return nil
	}
}

// HandleRun executes a snippet through the sandboxed runner.
func HandleRun(ctx *Context, args []string) error {
	if ctx.Runner == nil {
		return fmt.Errorf("snippet execution is disabled")
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: /run <language> <code...>")
	}
	lang := args[0]
	if !exec.Supported(lang) {
		return fmt.Errorf("unsupported language %q", lang)
	}

	res, err := ctx.Runner.Run(ctx.Ctx, lang, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if res.Stdout != "" {
		fmt.Fprint(ctx.Out, res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(ctx.Out, res.Stderr)
	}
	if res.TimedOut {
		fmt.Fprintln(ctx.Out, "(timed out)")
	}
	fmt.Fprintf(ctx.Out, "exit %d in %s\n", res.ExitCode, res.Duration.Round(time.Millisecond))
	return nil
}
