// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// =============================================================================
// LANGUAGE DETECTION
// =============================================================================

// languageProbe pairs a content pattern with the language it indicates.
// The list is evaluated first-match-wins and the order is a deliberate
// priority: JS-family idioms come before generic brace shapes, structured
// data shapes come after real languages. Reordering changes results.
type languageProbe struct {
	re   *regexp.Regexp
	lang string
}

var languageProbes = []languageProbe{
	{regexp.MustCompile(`(?m)^\s*(?:import\s.+\sfrom\s|export\s+(?:default|const|function|class)\b)`), "javascript"},
	{regexp.MustCompile(`(?m)^\s*(?:interface\s+\w+\s*\{|type\s+\w+\s*=|enum\s+\w+)`), "typescript"},
	{regexp.MustCompile(`(?m)^\s*(?:function\s+\w+\s*\(|const\s+\w+\s*=\s*(?:\(|function)|console\.log)`), "javascript"},
	{regexp.MustCompile(`(?m)^package\s+\w+$|^\s*func\s+\w+\s*\(`), "go"},
	{regexp.MustCompile(`(?m)^\s*(?:def\s+\w+\s*\(|class\s+\w+(?:\(\w*\))?\s*:|from\s+\w+\s+import\b)`), "python"},
	{regexp.MustCompile(`(?m)^\s*(?:public\s+(?:class|static)|private\s+\w+|System\.out\.println)`), "java"},
	{regexp.MustCompile(`(?m)^\s*#include\s*[<"]`), "c"},
	{regexp.MustCompile(`(?m)^\s*[.#]?[\w-]+\s*\{[^}]*:\s*[^}]+\}`), "css"},
	{regexp.MustCompile(`(?i)<(?:!DOCTYPE\s+)?html|</\w+>`), "html"},
	{regexp.MustCompile(`(?s)^\s*[\[{].*[\]}]\s*$`), "json"},
	{regexp.MustCompile(`(?m)^[\w-]+:\s+\S+$`), "yaml"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+\S|^\s*[-*]\s+\S`), "markdown"},
	{regexp.MustCompile(`^#!`), "bash"},
}

// languageHints maps utterance keywords to a language tag, consulted when
// no content probe matched.
var languageHints = []struct {
	keyword string
	lang    string
}{
	{"typescript", "typescript"},
	{"javascript", "javascript"},
	{"python", "python"},
	{"golang", "go"},
	{" go ", "go"},
	{"java", "java"},
	{"rust", "rust"},
	{"c++", "cpp"},
	{"ruby", "ruby"},
	{"php", "php"},
	{"html", "html"},
	{"css", "css"},
	{"shell", "bash"},
	{"bash", "bash"},
}

// DetectLanguage classifies content by running the ordered probe list,
// then falling back to language names in the accompanying utterance, then
// to a chroma lexer analysis. Returns "txt" when nothing matches.
func DetectLanguage(content, hint string) string {
	for _, p := range languageProbes {
		if p.re.MatchString(content) {
			return p.lang
		}
	}

	lowerHint := " " + strings.ToLower(hint) + " "
	for _, h := range languageHints {
		if strings.Contains(lowerHint, h.keyword) {
			return h.lang
		}
	}

	if lexer := lexers.Analyse(content); lexer != nil {
		if name := normalizeChromaName(lexer.Config().Name); name != "" {
			return name
		}
	}
	return "txt"
}

// normalizeChromaName maps a chroma lexer display name onto this
// package's lowercase tags. Unrecognized lexers are discarded rather
// than guessed at.
func normalizeChromaName(name string) string {
	switch strings.ToLower(name) {
	case "go":
		return "go"
	case "python", "python 2":
		return "python"
	case "javascript":
		return "javascript"
	case "typescript":
		return "typescript"
	case "java":
		return "java"
	case "c":
		return "c"
	case "c++":
		return "cpp"
	case "rust":
		return "rust"
	case "ruby":
		return "ruby"
	case "php":
		return "php"
	case "bash", "shell":
		return "bash"
	case "html":
		return "html"
	case "css":
		return "css"
	case "json":
		return "json"
	case "yaml":
		return "yaml"
	case "markdown":
		return "markdown"
	default:
		return ""
	}
}

// =============================================================================
// LANGUAGE / EXTENSION MAPPING
// =============================================================================

var languageExtensions = map[string][]string{
	"javascript": {".js", ".jsx", ".mjs"},
	"typescript": {".ts", ".tsx"},
	"python":     {".py"},
	"go":         {".go"},
	"java":       {".java"},
	"c":          {".c", ".h"},
	"cpp":        {".cpp", ".cc", ".hpp"},
	"csharp":     {".cs"},
	"php":        {".php"},
	"ruby":       {".rb"},
	"rust":       {".rs"},
	"kotlin":     {".kt"},
	"swift":      {".swift"},
	"bash":       {".sh"},
	"html":       {".html", ".htm"},
	"css":        {".css", ".scss"},
	"json":       {".json"},
	"yaml":       {".yaml", ".yml"},
	"markdown":   {".md"},
	"sql":        {".sql"},
}

var languageAliases = map[string]string{
	"js":     "javascript",
	"jsx":    "javascript",
	"ts":     "typescript",
	"tsx":    "typescript",
	"py":     "python",
	"golang": "go",
	"c++":    "cpp",
	"cs":     "csharp",
	"rb":     "ruby",
	"rs":     "rust",
	"kt":     "kotlin",
	"sh":     "bash",
	"shell":  "bash",
	"yml":    "yaml",
	"md":     "markdown",
}

// canonicalLanguage resolves aliases like "py" or "golang".
func canonicalLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if c, ok := languageAliases[lang]; ok {
		return c
	}
	return lang
}

// LanguageMatches reports whether path's extension belongs to lang.
func LanguageMatches(lang, path string) bool {
	exts, ok := languageExtensions[canonicalLanguage(lang)]
	if !ok {
		return false
	}
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ExtensionFor returns the primary file extension for a language tag,
// defaulting to ".txt" for anything unrecognized.
func ExtensionFor(lang string) string {
	if exts, ok := languageExtensions[canonicalLanguage(lang)]; ok {
		return exts[0]
	}
	return ".txt"
}

var nonFilenameRe = regexp.MustCompile(`[^a-z0-9\s]`)
var spaceRunRe = regexp.MustCompile(`\s+`)

// DeriveFilename builds a filename from a free-form description: it is
// lowercased, stripped of punctuation, spaces become underscores, the
// stem is capped at 30 characters, and the language's extension is
// appended. An empty description yields "ai_generated".
func DeriveFilename(description, lang string) string {
	stem := strings.ToLower(description)
	stem = nonFilenameRe.ReplaceAllString(stem, "")
	stem = strings.TrimSpace(stem)
	stem = spaceRunRe.ReplaceAllString(stem, "_")
	if len(stem) > 30 {
		stem = strings.Trim(stem[:30], "_")
	}
	if stem == "" {
		stem = "ai_generated"
	}
	return stem + ExtensionFor(lang)
}
