// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing one input line.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the raw command name (e.g., "/help")
	CommandName string

	// Args are the parsed arguments
	Args []string

	// RawArgs is the unparsed arguments portion, for commands that
	// want the text verbatim
	RawArgs string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser turns input lines into command invocations.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input. IsCommand is false when the input does not
// start with /; an unknown command name leaves Command nil.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ParseResult{}
	}

	result := ParseResult{IsCommand: true}
	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return result
	}

	result.CommandName = parts[0]
	if len(parts) > 1 {
		result.Args = parts[1:]
		result.RawArgs = strings.TrimSpace(input[len(result.CommandName):])
	}
	result.Command = p.registry.Get(result.CommandName)
	return result
}

// IsCommand reports whether the input looks like a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits a command line into tokens, respecting single
// and double quotes so arguments can contain spaces. The walk is
// rune-wise; arguments are routinely Chinese.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool

	for i := 0; i < len(input); {
		char, size := utf8.DecodeRuneInString(input[i:])

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote

		case char == '\\' && (inDoubleQuote || inSingleQuote):
			next, nextSize := utf8.DecodeRuneInString(input[i+size:])
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i += nextSize
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(char)
		}
		i += size
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
