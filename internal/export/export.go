// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders session transcripts to markdown, JSON, or YAML
// files.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/codechat/internal/session"
	"github.com/jeranaias/codechat/internal/util"
)

// Format names a supported export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat maps user input (including file-extension spellings) to a
// Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (markdown, json, yaml)", s)
	}
}

// Extension returns the file extension for a format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".md"
	}
}

// Render produces the export body for one session.
func Render(s *session.Session, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(s), nil
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode session: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("encode session: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile renders the session and writes it to path.
func WriteFile(s *session.Session, format Format, path string) error {
	body, err := Render(s, format)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// renderMarkdown lays the transcript out as one h2 section per message:
//
//	# Chat Session: <id>
//	## user (15:04:05)
//	...content...
func renderMarkdown(s *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chat Session: %s\n\n", s.ID)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Working directory: %s\n", s.WorkingDirectory)
	fmt.Fprintf(&b, "- Messages: %d\n\n", s.TotalMessages)

	for _, m := range s.Messages {
		fmt.Fprintf(&b, "## %s (%s)\n\n", m.Role, m.Timestamp.Format("15:04:05"))
		b.WriteString(strings.TrimRight(m.Content, "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}
