// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package intent classifies user utterances into chat vs. structured
// request families and owns the keyword tables behind the persistence
// policy. Everything here is a pure function over strings; the tables
// are ordered and evaluated first-match-wins so each rule stays
// individually testable.
//
// The keyword sets are bilingual (English and Chinese) because the tool
// is used in both; Chinese keywords match by substring, English ones by
// word boundary so "cr" never fires inside "create".
package intent

import (
	"strings"

	"github.com/jeranaias/codechat/internal/extract"
)

// Intent names the classified purpose of an utterance.
type Intent string

const (
	IntentConversation Intent = "conversation"
	IntentCodeReview   Intent = "code_review"
	IntentModification Intent = "modification"
	IntentCreation     Intent = "creation"
	IntentHelp         Intent = "help"
)

// Action tags an option with the prompt-augmentation behavior it
// selects. Both consumers switch exhaustively with an explicit
// ActionNone arm.
type Action int

const (
	ActionNone Action = iota
	ActionReview
	ActionRefactor
	ActionSecurityReview
	ActionFix
	ActionOptimize
	ActionCreate
	ActionCreateWithTests
	ActionExplain
	ActionGuide
)

// Option is one selectable item in the intent menu.
type Option struct {
	ID          string
	Title       string
	Description string
	Action      Action
}

// Analysis is the classifier's verdict for one utterance.
type Analysis struct {
	NeedsOptions  bool
	Intent        Intent
	Options       []Option
	FilePaths     []string
	OriginalInput string
}

// =============================================================================
// KEYWORD TABLES
// =============================================================================

// complexKeywords is the coarse filter: none of these present means the
// utterance is plain conversation and no family is consulted.
var complexKeywords = []string{
	"review", "cr", "modify", "change", "update", "optimize", "refactor",
	"create", "generate", "write", "fix", "improve", "help",
	"审查", "检查", "修改", "优化", "重构", "创建", "生成", "编写", "修复", "改进", "帮助",
}

// family pairs a keyword subset with the intent it selects. Order is
// priority: review is consulted before modification before creation
// before help, and the first family with a hit wins.
type family struct {
	intent   Intent
	keywords []string
	options  func(hasPaths bool) []Option
}

var families = []family{
	{
		intent:   IntentCodeReview,
		keywords: []string{"cr", "review", "审查", "检查"},
		options:  reviewOptions,
	},
	{
		intent:   IntentModification,
		keywords: []string{"modify", "change", "update", "fix", "improve", "optimize", "refactor", "修改", "修复", "改进", "优化", "重构"},
		options:  modificationOptions,
	},
	{
		intent:   IntentCreation,
		keywords: []string{"create", "generate", "write", "new", "创建", "生成", "编写", "新建"},
		options:  creationOptions,
	},
	{
		intent:   IntentHelp,
		keywords: []string{"help", "how", "explain", "帮助", "怎么", "如何", "解释"},
		options:  helpOptions,
	},
}

// Analyze classifies an utterance. The coarse filter can trip while no
// family matches; that combination silently falls back to plain
// conversation rather than presenting an empty menu.
func Analyze(utterance string) Analysis {
	base := Analysis{
		Intent:        IntentConversation,
		OriginalInput: utterance,
	}
	if !matchesAny(utterance, complexKeywords) {
		return base
	}

	paths := extract.FilePaths(utterance)
	for _, f := range families {
		if matchesAny(utterance, f.keywords) {
			return Analysis{
				NeedsOptions:  true,
				Intent:        f.intent,
				Options:       f.options(len(paths) > 0),
				FilePaths:     paths,
				OriginalInput: utterance,
			}
		}
	}
	return base
}

// =============================================================================
// OPTION GENERATORS
// =============================================================================

func reviewOptions(hasPaths bool) []Option {
	if !hasPaths {
		return []Option{{
			ID:          "review_guide",
			Title:       "代码审查指南 (code review guidance)",
			Description: "General advice on reviewing code effectively",
			Action:      ActionGuide,
		}}
	}
	return []Option{
		{ID: "review_quick", Title: "快速审查 (quick review)", Description: "Point out the most important issues", Action: ActionReview},
		{ID: "review_refactor", Title: "审查 + 重构方案", Description: "Review the code and propose a refactored version", Action: ActionRefactor},
		{ID: "review_security", Title: "安全审查 (security review)", Description: "Focus on vulnerabilities and unsafe patterns", Action: ActionSecurityReview},
		{ID: "review_style", Title: "风格审查 (style review)", Description: "Naming, structure, and readability feedback", Action: ActionReview},
	}
}

func modificationOptions(hasPaths bool) []Option {
	if !hasPaths {
		return []Option{{
			ID:          "modify_guide",
			Title:       "修改建议 (modification guidance)",
			Description: "Discuss the change before touching any file",
			Action:      ActionGuide,
		}}
	}
	return []Option{
		{ID: "modify_fix", Title: "修复问题 (fix the issue)", Description: "Produce a corrected version of the file", Action: ActionFix},
		{ID: "modify_refactor", Title: "重构代码 (refactor)", Description: "Restructure without changing behavior", Action: ActionRefactor},
		{ID: "modify_optimize", Title: "性能优化 (optimize)", Description: "Improve performance hot spots", Action: ActionOptimize},
		{ID: "modify_explain", Title: "先解释 (explain first)", Description: "Explain the current code before changing it", Action: ActionExplain},
	}
}

func creationOptions(hasPaths bool) []Option {
	opts := []Option{
		{ID: "create_file", Title: "创建文件 (create the file)", Description: "Generate complete, runnable content", Action: ActionCreate},
		{ID: "create_tested", Title: "创建 + 测试 (create with tests)", Description: "Generate the code plus a test file", Action: ActionCreateWithTests},
		{ID: "create_outline", Title: "先出大纲 (outline first)", Description: "Sketch the structure before writing code", Action: ActionGuide},
	}
	if hasPaths {
		opts[0].Description = "Generate complete content for the named file"
	}
	return opts
}

func helpOptions(bool) []Option {
	return []Option{
		{ID: "help_explain", Title: "解释概念 (explain the concept)", Description: "A focused explanation with a small example", Action: ActionExplain},
		{ID: "help_guide", Title: "使用指南 (usage guide)", Description: "Step-by-step instructions", Action: ActionGuide},
		{ID: "help_debug", Title: "排查问题 (troubleshoot)", Description: "Work through the symptoms to a cause", Action: ActionFix},
	}
}

// =============================================================================
// KEYWORD MATCHING
// =============================================================================

// MatchesAny reports whether any keyword occurs in the utterance, using
// this package's matching rules. Exposed for callers that keep their own
// keyword tables.
func MatchesAny(utterance string, keywords []string) bool {
	return matchesAny(utterance, keywords)
}

// matchesAny reports whether any keyword occurs in the utterance.
// ASCII keywords require word boundaries; CJK keywords match by
// substring since Chinese has no word separators.
func matchesAny(utterance string, keywords []string) bool {
	lower := strings.ToLower(utterance)
	for _, kw := range keywords {
		if isASCII(kw) {
			if wordMatch(lower, kw) {
				return true
			}
		} else if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// wordMatch finds kw in lower with non-alphanumeric (or edge) on both
// sides.
func wordMatch(lower, kw string) bool {
	for start := 0; ; {
		i := strings.Index(lower[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(lower[i-1])
		afterIdx := i + len(kw)
		after := afterIdx >= len(lower) || !isWordByte(lower[afterIdx])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
