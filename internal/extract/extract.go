// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract provides pure string scans over user input and model
// output: file-path candidates, fenced code blocks, and language
// classification. Nothing here touches the filesystem.
package extract

import (
	"regexp"
	"strings"
)

// CodeBlock is one fenced code excerpt pulled out of a response body.
type CodeBlock struct {
	Language string
	Content  string
}

// =============================================================================
// FILE PATH EXTRACTION
// =============================================================================

var (
	// Bare tokens that end in a known extension, relative or absolute.
	barePathRe = regexp.MustCompile(`(?:^|[\s(（])((?:\.{0,2}/)?[\w./-]+\.(?:go|js|jsx|ts|tsx|py|java|c|h|cpp|cc|cs|php|rb|rs|kt|swift|sh|sql|html|css|scss|vue|json|yaml|yml|toml|xml|md|txt|cfg|conf|ini|log|csv))`)

	quotedPathRe   = regexp.MustCompile(`["']([^"']+\.[A-Za-z0-9]{1,5})["']`)
	backtickPathRe = regexp.MustCompile("`([^`\n]+\\.[A-Za-z0-9]{1,5})`")
)

// Well-known project files matched by case-insensitive substring even
// without an extension-bearing token.
var wellKnownFiles = []string{
	"README.md",
	"package.json",
	"go.mod",
	"Makefile",
	"Dockerfile",
	"tsconfig.json",
	".gitignore",
	"requirements.txt",
}

// FilePaths scans free-form text for path-like tokens: bare tokens with a
// known extension, quoted tokens, backticked tokens, and a short allowlist
// of common project filenames. Results keep first-occurrence order with
// exact-string dedup. The scan is pure; nothing is checked against disk.
func FilePaths(text string) []string {
	var paths []string
	seen := make(map[string]bool)

	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, m := range barePathRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range quotedPathRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range backtickPathRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	lower := strings.ToLower(text)
	for _, name := range wellKnownFiles {
		if strings.Contains(lower, strings.ToLower(name)) {
			add(name)
		}
	}
	return paths
}

// =============================================================================
// FENCED CODE BLOCKS
// =============================================================================

var fencedRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+#-]*)[ \t]*\n(.*?)```")

// CodeBlocks returns the fenced blocks in text, in source order, each
// trimmed of leading and trailing blank lines. A block with no language
// tag gets "text". When the text has no fences at all but reads like
// code, the whole text is synthesized into a single block with an
// inferred language.
func CodeBlocks(text string) []CodeBlock {
	matches := fencedRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		if LooksLikeCode(text) {
			return []CodeBlock{{
				Language: DetectLanguage(text, ""),
				Content:  strings.Trim(text, "\n"),
			}}
		}
		return nil
	}

	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		if lang == "" {
			lang = "text"
		}
		blocks = append(blocks, CodeBlock{
			Language: lang,
			Content:  strings.Trim(m[2], "\n"),
		})
	}
	return blocks
}

// codeHints are punctuation and keyword shapes typical of source code.
var codeHints = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*(?:func|def|class|import|package|const|var|let|function)\b`),
	regexp.MustCompile(`[{};]\s*$`),
	regexp.MustCompile(`=>|:=|->`),
	regexp.MustCompile(`(?m)^\s*#include\b`),
}

// LooksLikeCode reports whether unfenced text is probably source code.
// It requires at least two distinct hint classes so prose with a single
// stray brace does not qualify.
func LooksLikeCode(text string) bool {
	hits := 0
	for _, re := range codeHints {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits >= 2
}

// BestBlockFor picks the block whose language matches the target path's
// extension; when none matches it falls back to the first block. Returns
// false when blocks is empty.
func BestBlockFor(blocks []CodeBlock, path string) (CodeBlock, bool) {
	if len(blocks) == 0 {
		return CodeBlock{}, false
	}
	for _, b := range blocks {
		if LanguageMatches(b.Language, path) {
			return b, true
		}
	}
	return blocks[0], true
}
