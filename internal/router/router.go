// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router drives one chat turn end to end: classify the
// utterance, present the intent menu when warranted, enrich the prompt,
// stream the model's reply, and decide whether the output lands on
// disk. It is the only component that touches every other one.
package router

import (
	"context"
	"fmt"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/enrich"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/intent"
	"github.com/jeranaias/codechat/internal/ollama"
	"github.com/jeranaias/codechat/internal/session"
)

// State is the router's position inside a turn. It exists for the
// status display and for tests; transitions are strictly linear per
// turn.
type State int

const (
	StateIdle State = iota
	StateClassifying
	StateMenuPresented
	StateStreaming
	StatePersisting
)

// Backend is the streaming chat surface the router needs from the
// Ollama client.
type Backend interface {
	ChatStream(ctx context.Context, model string, messages []ollama.Message, opts *ollama.ChatOptions, onDelta func(string)) error
}

// Surface is the terminal interaction the router needs. The CLI
// implements it with liner and lipgloss; tests use a script.
type Surface interface {
	// ShowMenu renders numbered options and blocks for one numeric
	// answer. 0 means cancel; any out-of-range or non-numeric answer
	// must also be returned as 0.
	ShowMenu(title string, options []intent.Option) int
	// AskLine blocks for one free-text line, used by the confirmation
	// gate.
	AskLine(prompt string) (string, error)
	// Delta renders one streamed fragment.
	Delta(text string)
	// Show renders a preformatted block unstyled, used for diff
	// previews.
	Show(text string)
	// Info and Warn render status lines.
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// SaveOutcome reports one attempted file write from the persistence
// step. Failures are per-file and never abort siblings.
type SaveOutcome struct {
	Path    string
	Result  files.EditResult
	Skipped bool
	Reason  string
}

// TurnResult summarizes one completed turn.
type TurnResult struct {
	Intent    intent.Intent
	Cancelled bool
	Response  string
	Saves     []SaveOutcome
}

// Router owns the turn pipeline. One instance serves the whole
// interactive run; it is not safe for concurrent turns and enforces
// that with a busy guard.
type Router struct {
	backend  Backend
	cfg      *config.Config
	sess     *session.Session
	store    *session.Store
	fs       *files.Store
	enricher *enrich.Enricher
	ui       Surface

	state State
	busy  bool
}

// New wires a Router. Every dependency is required.
func New(backend Backend, cfg *config.Config, sess *session.Session, store *session.Store, fs *files.Store, enricher *enrich.Enricher, ui Surface) *Router {
	return &Router{
		backend:  backend,
		cfg:      cfg,
		sess:     sess,
		store:    store,
		fs:       fs,
		enricher: enricher,
		ui:       ui,
	}
}

// State returns the router's current position for status displays.
func (r *Router) State() State {
	return r.state
}

// HandleTurn runs one full turn for a non-empty, non-command input
// line. Any error has already been surfaced to the user; callers only
// need it for logging. The session is saved before returning on every
// path that changed it.
func (r *Router) HandleTurn(ctx context.Context, input string) (TurnResult, error) {
	if r.busy {
		r.ui.Warn("still working on the previous message, input ignored")
		return TurnResult{Cancelled: true}, nil
	}
	r.busy = true
	defer func() {
		r.busy = false
		r.state = StateIdle
	}()

	r.state = StateClassifying
	analysis := intent.Analyze(input)
	result := TurnResult{Intent: analysis.Intent}

	prompt := input
	action := intent.ActionNone

	if analysis.NeedsOptions {
		r.state = StateMenuPresented
		choice := r.ui.ShowMenu(menuTitle(analysis.Intent), analysis.Options)
		if choice < 1 || choice > len(analysis.Options) {
			r.ui.Info("cancelled")
			result.Cancelled = true
			return result, nil
		}
		opt := analysis.Options[choice-1]
		action = opt.Action
		prompt = r.buildOptionPrompt(input, opt, analysis.FilePaths)
	} else {
		enhanced := r.enricher.Enhance(input)
		for _, sk := range enhanced.Skipped {
			r.ui.Warn("skipping %s: %s", sk.Path, sk.Reason)
		}
		prompt = enhanced.Message
	}

	response, err := r.stream(ctx, prompt, action)
	if err != nil {
		r.surfaceStreamError(err)
		r.saveSession()
		return result, err
	}
	result.Response = response

	r.state = StatePersisting
	result.Saves = r.persist(input, response)
	r.reportSaves(result.Saves)

	r.saveSession()
	return result, nil
}

// stream appends the user message, runs the backend stream, and commits
// the assistant message only after the stream completes. On failure the
// partial assistant text is discarded and, deliberately, the user
// message is rolled back too: the turn never happened as far as the
// session is concerned, so retyping the request after a network blip
// does not send the model two copies of it.
func (r *Router) stream(ctx context.Context, prompt string, action intent.Action) (string, error) {
	r.state = StateStreaming
	r.sess.Append(session.RoleUser, prompt)

	messages := make([]ollama.Message, 0, len(r.sess.Messages)+1)
	messages = append(messages, ollama.Message{
		Role:    session.RoleSystem,
		Content: systemPrompt(action),
	})
	for _, m := range r.sess.Messages {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}

	var acc ollama.StreamAccumulator
	opts := &ollama.ChatOptions{
		Temperature: r.cfg.Ollama.Temperature,
		NumPredict:  r.cfg.Ollama.MaxTokens,
	}
	err := r.backend.ChatStream(ctx, r.cfg.Ollama.Model, messages, opts, func(delta string) {
		acc.Add(delta)
		r.ui.Delta(delta)
	})
	if err != nil {
		// Discard the partial reply; whatever already rendered stays
		// on screen but nothing partial enters the transcript.
		r.sess.RemoveLast()
		return "", err
	}

	response := acc.Content()
	r.sess.Append(session.RoleAssistant, response)
	return response, nil
}

func (r *Router) surfaceStreamError(err error) {
	switch {
	case ollama.IsNotRunning(err):
		r.ui.Warn("cannot reach ollama at %s — is it running? (ollama serve)", r.cfg.Ollama.Endpoint)
	case ollama.IsModelNotFound(err):
		r.ui.Warn("model %q is not installed (ollama pull %s)", r.cfg.Ollama.Model, r.cfg.Ollama.Model)
	case ollama.IsTimeout(err):
		r.ui.Warn("the model took too long to answer, please try again")
	default:
		r.ui.Warn("something went wrong with that message, please try again")
	}
}

func (r *Router) saveSession() {
	if err := r.store.Save(r.sess); err != nil {
		r.ui.Warn("could not save session: %v", err)
	}
}

func (r *Router) reportSaves(saves []SaveOutcome) {
	for _, s := range saves {
		switch {
		case s.Skipped:
			r.ui.Info("%s: %s", s.Path, s.Reason)
		case s.Result.Success:
			r.ui.Info("wrote %s (%d -> %d lines)%s",
				s.Path, s.Result.LinesBefore, s.Result.LinesAfter, backupNote(s.Result))
		default:
			r.ui.Warn("failed to write %s: %s", s.Path, s.Result.Error)
		}
	}
}

func backupNote(res files.EditResult) string {
	if res.BackupPath == "" {
		return ""
	}
	return fmt.Sprintf(", backup at %s", res.BackupPath)
}

func menuTitle(in intent.Intent) string {
	switch in {
	case intent.IntentCodeReview:
		return "How should the review go?"
	case intent.IntentModification:
		return "How should the change go?"
	case intent.IntentCreation:
		return "How should this be created?"
	case intent.IntentHelp:
		return "What kind of help?"
	default:
		return "Choose an option"
	}
}

// buildOptionPrompt assembles the enriched prompt for a selected menu
// option: original utterance, the chosen option, any referenced file
// content, and the action's instruction block.
func (r *Router) buildOptionPrompt(input string, opt intent.Option, paths []string) string {
	prompt := fmt.Sprintf("%s\n\nSelected task: %s — %s", input, opt.Title, opt.Description)
	if len(paths) > 0 {
		enhanced := r.enricher.EnhanceWithPaths(prompt, paths)
		for _, sk := range enhanced.Skipped {
			r.ui.Warn("skipping %s: %s", sk.Path, sk.Reason)
		}
		prompt = enhanced.Message
	}
	if instr := actionInstruction(opt.Action); instr != "" {
		prompt += "\n\n" + instr
	}
	return prompt
}
