// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The interactive chat loop for codechat.
//
// USABILITY: liner provides readline-like editing and history; answers
// are glamour-rendered on a TTY and streamed raw when piped.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/codechat/internal/commands"
	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/docstore"
	"github.com/jeranaias/codechat/internal/enrich"
	"github.com/jeranaias/codechat/internal/exec"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/index"
	"github.com/jeranaias/codechat/internal/intent"
	"github.com/jeranaias/codechat/internal/router"
	"github.com/jeranaias/codechat/internal/session"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer. nil means plain
// text output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown for terminal display, returning the
// original content when rendering is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// inputReader wraps liner with a persistent history file.
type inputReader struct {
	line        *liner.State
	historyFile string
}

func newInputReader() *inputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &inputReader{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

// Read reads one line, recording non-empty input in the history.
func (r *inputReader) Read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists history with owner-only permissions and releases the
// terminal.
func (r *inputReader) Close() {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

// =============================================================================
// ROUTER SURFACE
// =============================================================================

// terminalSurface implements router.Surface on the interactive
// terminal.
type terminalSurface struct {
	input    *inputReader
	markdown bool
	verbose  bool
}

// ShowMenu prints the numbered options and reads one choice. Anything
// that is not a number in range comes back as 0, which cancels.
func (t *terminalSurface) ShowMenu(title string, options []intent.Option) int {
	fmt.Println(TitleStyle.Render(title))
	for i, opt := range options {
		fmt.Printf("  %s %s\n", MenuStyle.Render(fmt.Sprintf("%d.", i+1)), opt.Title)
		fmt.Printf("     %s\n", MutedStyle.Render(opt.Description))
	}
	fmt.Println(MutedStyle.Render("  0. cancel"))

	answer, err := t.input.Read("choice> ")
	if err != nil {
		return 0
	}
	choice, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || choice < 0 || choice > len(options) {
		return 0
	}
	return choice
}

// AskLine refuses when stdin is not a terminal, so gated writes are
// declined rather than hanging a piped run.
func (t *terminalSurface) AskLine(prompt string) (string, error) {
	if !CanPrompt() {
		return "", errNoTerminal
	}
	return t.input.Read(prompt)
}

var errNoTerminal = errors.New("stdin is not a terminal")

// Delta streams raw output only when markdown rendering is off; with
// rendering on, the full answer is printed after the stream completes.
func (t *terminalSurface) Delta(text string) {
	if !t.markdown {
		fmt.Print(text)
	}
}

// Show prints a preformatted block, such as a diff preview, without
// styling.
func (t *terminalSurface) Show(text string) {
	fmt.Println(text)
}

func (t *terminalSurface) Info(format string, args ...any) {
	fmt.Println(SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *terminalSurface) Warn(format string, args ...any) {
	fmt.Fprintln(os.Stderr, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *terminalSurface) debugf(format string, args ...any) {
	if t.verbose {
		fmt.Fprintln(os.Stderr, MutedStyle.Render("debug: "+fmt.Sprintf(format, args...)))
	}
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// RunChat implements the default `codechat` command.
func RunChat(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if args.Model != "" {
		cfg.Ollama.Model = args.Model
	}
	if args.Verbose {
		cfg.UI.VerboseOutput = true
	}

	sessionsDir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	store, err := session.NewStore(sessionsDir)
	if err != nil {
		return err
	}

	workdir, err := os.Getwd()
	if err != nil {
		workdir = "."
	}
	sess := session.New(workdir)

	client := newOllamaClient(cfg)
	fs := files.NewStore(cfg.Security.RestrictedPaths)
	docs := docstore.NewStore(fs)
	enricher := enrich.New(docs, fs)

	input := newInputReader()
	defer input.Close()
	surface := &terminalSurface{
		input:    input,
		markdown: IsStdoutTTY(),
		verbose:  cfg.UI.VerboseOutput,
	}

	rt := router.New(client, cfg, sess, store, fs, enricher, surface)

	// The transcript index is best effort; chat works without it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var idx *index.Index
	if opened, err := index.Open(sessionsDir); err == nil {
		idx = opened
		defer idx.Close()
		if _, err := idx.Sync(store); err != nil {
			surface.debugf("index sync: %v", err)
		}
		watcher := index.NewWatcher(idx, store)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				surface.debugf("index watcher: %v", err)
			}
		}()
	} else {
		surface.debugf("index unavailable: %v", err)
	}

	registry := commands.NewRegistry()
	cmdParser := commands.NewParser(registry)
	cmdCtx := &commands.Context{
		Ctx:      ctx,
		Config:   cfg,
		Ollama:   client,
		Session:  sess,
		Store:    store,
		Files:    fs,
		Docs:     docs,
		Index:    idx,
		Runner:   exec.NewRunner(cfg.Execution),
		Registry: registry,
		Out:      os.Stdout,
	}
	cmdCtx.ReplaceSession = func(s *session.Session) {
		cmdCtx.Session = s
		sess = s
		rt = router.New(client, cfg, sess, store, fs, enricher, surface)
	}

	// Ctrl-C during a stream cancels it; at the prompt liner reports
	// ErrPromptAborted and the loop exits with a final save.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			cancel()
		}
	}()

	if !args.Quiet {
		printWelcome(cfg)
		if err := client.CheckRunning(ctx); err != nil {
			surface.Warn("ollama is not reachable at %s; start it with: ollama serve", cfg.Ollama.Endpoint)
		}
	}

	intentCounts := make(map[intent.Intent]int)
	start := time.Now()

	for {
		line, err := input.Read(PromptStyle.Render("codechat> "))
		if err != nil {
			// Ctrl-C, Ctrl-D, or a closed terminal all end the run.
			fmt.Println()
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if commands.IsCommand(line) {
			parsed := cmdParser.Parse(line)
			if parsed.Command == nil {
				surface.Warn("unknown command %s (try /help)", parsed.CommandName)
				continue
			}
			if err := parsed.Command.Handler(cmdCtx, parsed.Args); err != nil {
				if errors.Is(err, commands.ErrQuit) {
					break
				}
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("error:"), err)
			}
			continue
		}

		turnCtx, turnCancel := context.WithCancel(ctx)
		result, err := rt.HandleTurn(turnCtx, line)
		turnCancel()

		if err == nil && !result.Cancelled {
			intentCounts[result.Intent]++
			if surface.markdown && result.Response != "" {
				fmt.Print(renderMarkdown(result.Response))
			}
			fmt.Println()
		}
		if ctx.Err() != nil {
			// The process was interrupted mid-stream.
			break
		}
	}

	// Best-effort final save; the router already saves after each turn.
	if err := store.Save(sess); err != nil {
		surface.Warn("final save failed: %v", err)
	}

	if !args.Quiet {
		printExitSummary(sess, intentCounts, time.Since(start))
	}
	return nil
}

func printWelcome(cfg *config.Config) {
	fmt.Println(TitleStyle.Render("codechat " + Version))
	fmt.Println(MutedStyle.Render(fmt.Sprintf("model %s at %s (/help for commands, /exit to leave)",
		cfg.Ollama.Model, cfg.Ollama.Endpoint)))
}

// printExitSummary reports what the session did, with intent labels
// title-cased for display.
func printExitSummary(sess *session.Session, counts map[intent.Intent]int, elapsed time.Duration) {
	fmt.Printf("%s %d messages in %s\n",
		MutedStyle.Render("session "+sess.ID+":"),
		sess.TotalMessages, elapsed.Round(time.Second))

	title := cases.Title(language.English)
	for _, in := range []intent.Intent{
		intent.IntentConversation, intent.IntentCodeReview,
		intent.IntentModification, intent.IntentCreation, intent.IntentHelp,
	} {
		if n := counts[in]; n > 0 {
			label := title.String(strings.ReplaceAll(string(in), "_", " "))
			fmt.Printf("  %-14s %d\n", label, n)
		}
	}
}
