// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docstore provides format-aware document operations for
// markdown, JSON, YAML, and plain text, layered on the content store.
package docstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/codechat/internal/files"
)

// Format identifies a supported document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatText     Format = "text"
)

// Metadata describes a document that was read.
type Metadata struct {
	Format       Format
	Size         int
	LastModified time.Time
	Structure    *Structure
}

// Structure holds format-specific observations. Only the fields for the
// document's own format are populated.
type Structure struct {
	Headings       []string
	Links          []string
	HasFrontmatter bool
	TopLevelKeys   int
}

// Result is the outcome of a document read or write. Callers must check
// Success before using Content.
type Result struct {
	Success  bool
	Content  string
	Metadata Metadata
	Error    string
}

// Match is one search hit.
type Match struct {
	Line int
	Text string
}

// Store performs document operations through an underlying content store
// so path validation and backups apply uniformly.
type Store struct {
	fs *files.Store
}

func NewStore(fs *files.Store) *Store {
	return &Store{fs: fs}
}

// DetectFormat maps a path's extension onto a Format, defaulting to text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// =============================================================================
// READ
// =============================================================================

// Read loads a document, normalizes structured formats (JSON and YAML
// are parsed and re-rendered so the caller sees canonical output), and
// attaches structure metadata. format may be empty to auto-detect.
func (s *Store) Read(path string, format Format) Result {
	if format == "" {
		format = DetectFormat(path)
	}
	raw, err := s.fs.Read(path)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	info := s.fs.GetInfo(path)

	content, structure, err := normalize(raw, format)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("parse %s as %s: %v", path, format, err)}
	}
	return Result{
		Success: true,
		Content: content,
		Metadata: Metadata{
			Format:       format,
			Size:         len(raw),
			LastModified: info.LastModified,
			Structure:    structure,
		},
	}
}

func normalize(raw string, format Format) (string, *Structure, error) {
	switch format {
	case FormatJSON:
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return "", nil, err
		}
		pretty, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", nil, err
		}
		return string(pretty), &Structure{TopLevelKeys: topLevelKeys(data)}, nil
	case FormatYAML:
		var data any
		if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
			return "", nil, err
		}
		out, err := yaml.Marshal(data)
		if err != nil {
			return "", nil, err
		}
		return strings.TrimRight(string(out), "\n"), &Structure{TopLevelKeys: topLevelKeys(data)}, nil
	case FormatMarkdown:
		return raw, analyzeMarkdown(raw), nil
	default:
		return raw, nil, nil
	}
}

func topLevelKeys(data any) int {
	switch v := data.(type) {
	case map[string]any:
		return len(v)
	case []any:
		return len(v)
	default:
		return 0
	}
}

var (
	headingRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	linkRe    = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
)

func analyzeMarkdown(content string) *Structure {
	st := &Structure{
		HasFrontmatter: strings.HasPrefix(content, "---\n"),
	}
	for _, m := range headingRe.FindAllStringSubmatch(content, -1) {
		st.Headings = append(st.Headings, strings.TrimSpace(m[2]))
	}
	for _, m := range linkRe.FindAllStringSubmatch(content, -1) {
		st.Links = append(st.Links, m[2])
	}
	return st
}

// =============================================================================
// WRITE
// =============================================================================

// Write validates content against the target format (JSON and YAML must
// parse) and writes it through the content store, honoring backup.
func (s *Store) Write(path, content string, format Format, backup bool) Result {
	if format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatJSON:
		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return Result{Success: false, Error: fmt.Sprintf("invalid JSON: %v", err)}
		}
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal([]byte(content), &v); err != nil {
			return Result{Success: false, Error: fmt.Sprintf("invalid YAML: %v", err)}
		}
	}
	res := s.fs.Write(path, content, files.WriteOptions{Backup: backup, CreateIfMissing: true})
	if !res.Success {
		return Result{Success: false, Error: res.Error}
	}
	return Result{
		Success:  true,
		Content:  content,
		Metadata: Metadata{Format: format, Size: len(content)},
	}
}

// =============================================================================
// SEARCH AND CONVERT
// =============================================================================

// Search returns the lines of path containing query, 1-based, in order.
func (s *Store) Search(path, query string, caseSensitive bool) ([]Match, error) {
	content, err := s.fs.Read(path)
	if err != nil {
		return nil, err
	}
	needle := query
	if !caseSensitive {
		needle = strings.ToLower(query)
	}
	var matches []Match
	for i, line := range strings.Split(content, "\n") {
		hay := line
		if !caseSensitive {
			hay = strings.ToLower(line)
		}
		if strings.Contains(hay, needle) {
			matches = append(matches, Match{Line: i + 1, Text: line})
		}
	}
	return matches, nil
}

// Convert reads src, re-renders it in targetFormat, and writes dst.
// JSON and YAML interconvert through their parsed data; any format can
// be demoted to text; text promotes to a structured format only when it
// already parses as one.
func (s *Store) Convert(src, dst string, targetFormat Format) Result {
	srcFormat := DetectFormat(src)
	raw, err := s.fs.Read(src)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	out, err := render(raw, srcFormat, targetFormat)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	// Same backup discipline as any other write: converting onto an
	// existing destination snapshots it first.
	return s.Write(dst, out, targetFormat, true)
}

func render(raw string, from, to Format) (string, error) {
	if from == to || to == FormatText || to == FormatMarkdown {
		return raw, nil
	}

	var data any
	switch from {
	case FormatJSON:
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return "", fmt.Errorf("source is not valid JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
			return "", fmt.Errorf("source is not valid YAML: %w", err)
		}
	default:
		// Text and markdown promote only when they already parse.
		switch to {
		case FormatJSON:
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return "", fmt.Errorf("content does not parse as JSON: %w", err)
			}
		case FormatYAML:
			if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
				return "", fmt.Errorf("content does not parse as YAML: %w", err)
			}
		}
	}

	switch to {
	case FormatJSON:
		pretty, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(pretty), nil
	case FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return raw, nil
	}
}
