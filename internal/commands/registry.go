// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the in-session slash command system.
package commands

import (
	"context"
	"errors"
	"io"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/docstore"
	"github.com/jeranaias/codechat/internal/exec"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/index"
	"github.com/jeranaias/codechat/internal/ollama"
	"github.com/jeranaias/codechat/internal/session"
)

// ErrQuit signals the chat loop to exit cleanly. It is the only
// non-failure error a handler returns.
var ErrQuit = errors.New("quit")

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help
	Description string

	// Usage shows argument syntax (e.g., "/read <path>")
	Usage string

	// Handler executes the command; a returned error is shown to the
	// user except for ErrQuit
	Handler func(ctx *Context, args []string) error

	// Category for grouping in help display
	Category string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
	order    []string
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands in registration order.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		cmds = append(cmds, r.commands[name])
	}
	return cmds
}

// ByCategory returns commands grouped by category, each group in
// registration order.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, name := range r.order {
		cmd := r.commands[name]
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help [command]",
		Category:    "Navigation",
		Handler:     HandleHelp,
	})
	r.Register(&Command{
		Name:        "/exit",
		Aliases:     []string{"/quit", "/q"},
		Description: "Exit the chat",
		Category:    "Navigation",
		Handler:     HandleExit,
	})

	// Conversation
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the current conversation",
		Category:    "Conversation",
		Handler:     HandleClear,
	})
	r.Register(&Command{
		Name:        "/save",
		Aliases:     []string{"/s"},
		Description: "Export the conversation to a markdown file",
		Usage:       "/save [path]",
		Category:    "Conversation",
		Handler:     HandleSave,
	})
	r.Register(&Command{
		Name:        "/export",
		Description: "Export the conversation in a chosen format",
		Usage:       "/export [md|json|yaml] [path]",
		Category:    "Conversation",
		Handler:     HandleExport,
	})
	r.Register(&Command{
		Name:        "/history",
		Description: "Show recent messages from this conversation",
		Usage:       "/history [n]",
		Category:    "Conversation",
		Handler:     HandleHistory,
	})
	r.Register(&Command{
		Name:        "/session",
		Description: "Inspect, list, load, or delete sessions",
		Usage:       "/session [info|list|new|load <id>|delete <id>]",
		Category:    "Conversation",
		Handler:     HandleSession,
	})
	r.Register(&Command{
		Name:        "/search",
		Description: "Search across saved session transcripts",
		Usage:       "/search <query>",
		Category:    "Conversation",
		Handler:     HandleSearch,
	})

	// Model
	r.Register(&Command{
		Name:        "/models",
		Description: "List installed models",
		Category:    "Model",
		Handler:     HandleModels,
	})
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Show or switch the active model",
		Usage:       "/model [name]",
		Category:    "Model",
		Handler:     HandleModel,
	})

	// Files
	r.Register(&Command{
		Name:        "/read",
		Description: "Print a file's content",
		Usage:       "/read <path>",
		Category:    "Files",
		Handler:     HandleRead,
	})
	r.Register(&Command{
		Name:        "/write",
		Description: "Write content to a file (backs up any existing file)",
		Usage:       "/write <path> <content...>",
		Category:    "Files",
		Handler:     HandleWrite,
	})
	r.Register(&Command{
		Name:        "/edit",
		Description: "Replace one line of a file",
		Usage:       "/edit <path> <line> <text...>",
		Category:    "Files",
		Handler:     HandleEdit,
	})
	r.Register(&Command{
		Name:        "/delete",
		Description: "Delete a file (a backup is written first)",
		Usage:       "/delete <path>",
		Category:    "Files",
		Handler:     HandleDelete,
	})
	r.Register(&Command{
		Name:        "/files",
		Description: "File store utilities",
		Usage:       "/files backups <path>",
		Category:    "Files",
		Handler:     HandleFiles,
	})

	// Documents
	r.Register(&Command{
		Name:        "/doc",
		Description: "Structured document operations",
		Usage:       "/doc read|write|search|convert ...",
		Category:    "Documents",
		Handler:     HandleDoc,
	})
	r.Register(&Command{
		Name:        "/convert",
		Description: "Convert a document between formats",
		Usage:       "/convert <src> <dst> [json|yaml|markdown|text]",
		Category:    "Documents",
		Handler:     HandleConvert,
	})

	// Settings
	r.Register(&Command{
		Name:        "/config",
		Description: "Show or edit configuration",
		Usage:       "/config [key] [value]",
		Category:    "Settings",
		Handler:     HandleConfig,
	})
	r.Register(&Command{
		Name:        "/run",
		Description: "Run a code snippet in the sandboxed runner",
		Usage:       "/run <language> <code...>",
		Category:    "Settings",
		Handler:     HandleRun,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
// It follows the dependency injection pattern, allowing handlers to
// access services without direct coupling to the chat loop.
//
// Optional fields (Index, Runner) may be nil; handlers check before use.
type Context struct {
	// Ctx bounds blocking work started by a handler
	Ctx context.Context

	// Config provides access to application configuration
	Config *config.Config

	// Ollama is the client for local model operations
	Ollama *ollama.Client

	// Session is the live conversation
	Session *session.Session

	// Store handles session persistence
	Store *session.Store

	// Files is the guarded content store
	Files *files.Store

	// Docs is the structured document store
	Docs *docstore.Store

	// Index is the transcript search index (optional)
	Index *index.Index

	// Runner executes sandboxed snippets (optional)
	Runner *exec.Runner

	// Registry lets /help enumerate what is installed
	Registry *Registry

	// Out receives all command output
	Out io.Writer

	// ReplaceSession installs a new live session; set by the chat loop
	ReplaceSession func(*session.Session)
}
