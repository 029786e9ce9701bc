// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for codechat.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdConfig
	CmdModels
	CmdHistory
	CmdSearch
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string

	// Remaining args after the command name, re-parsed per command
	Raw []string
}

const usageText = `codechat - chat with a local model that can touch your files

Codechat talks to a locally running Ollama daemon. Replies that look
like code are written to disk, with a timestamped backup and a
confirmation prompt before any existing file is overwritten.

Usage:
  codechat                        Start an interactive chat (default)
  codechat config [flags]         Show or edit configuration
  codechat models [flags]         Manage local models
  codechat history [flags]        Manage saved sessions
  codechat search <query>         Search saved session transcripts
  codechat version                Print version information
  codechat help                   Show this help

Config:
  codechat config --list          Show all settings
  codechat config --get KEY       Show one setting
  codechat config --set KEY=VAL   Change one setting (validated)
  codechat config --reset         Restore defaults

Models:
  codechat models --list          List installed models (default)
  codechat models --pull NAME     Download a model
  codechat models --remove NAME   Delete a model

History:
  codechat history --list         List saved sessions (default)
  codechat history --show ID      Print one session
  codechat history --export ID    Export one session as markdown
    --format md|json|yaml         Export format (default: md)
  codechat history --delete ID    Delete one session
  codechat history --clear        Delete all sessions

In-session commands:
  /help /exit /clear /save /models /model /config /history /session
  /search /read /write /edit /delete /files /doc /convert /run

Global flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --model NAME    Override the configured model for this run
`

// Parse reads os.Args and returns the command to run plus its
// arguments.
func Parse() (Command, Args) {
	raw := os.Args[1:]
	remaining, args := parseGlobalFlags(raw)

	if len(remaining) == 0 {
		return CmdChat, args
	}

	cmd := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch cmd {
	case "chat":
		return CmdChat, args
	case "config":
		return CmdConfig, args
	case "models", "model":
		return CmdModels, args
	case "history", "sessions":
		return CmdHistory, args
	case "search":
		return CmdSearch, args
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		return CmdHelp, args
	}
}

// parseGlobalFlags strips global flags from the front of the argument
// list, leaving the command name and its own flags.
func parseGlobalFlags(raw []string) ([]string, Args) {
	var args Args
	remaining := make([]string, 0, len(raw))

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case "-q", "--quiet":
			args.Quiet = true
			i++
		case "-v", "--verbose":
			args.Verbose = true
			i++
		case "--model":
			if i+1 < len(raw) {
				args.Model = raw[i+1]
				i += 2
			} else {
				i++
			}
		default:
			if strings.HasPrefix(raw[i], "--model=") {
				args.Model = strings.TrimPrefix(raw[i], "--model=")
				i++
				continue
			}
			remaining = append(remaining, raw[i])
			i++
		}
	}
	return remaining, args
}

// Run dispatches the parsed command. The returned code is the process
// exit status.
func Run(cmd Command, args Args) int {
	var err error
	switch cmd {
	case CmdChat:
		err = RunChat(args)
	case CmdConfig:
		err = RunConfig(args)
	case CmdModels:
		err = RunModels(args)
	case CmdHistory:
		err = RunHistory(args)
	case CmdSearch:
		err = RunSearch(args)
	case CmdVersion:
		fmt.Printf("codechat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case CmdHelp:
		fmt.Print(usageText)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("error:"), err)
		return 1
	}
	return 0
}
