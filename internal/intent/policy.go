// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"strings"

	"github.com/jeranaias/codechat/internal/extract"
)

// =============================================================================
// PERSISTENCE POLICY KEYWORDS
// =============================================================================
// These tables drive the decision of whether a turn's model output gets
// written to disk. They classify the user's original utterance, never
// the model's answer.

// reviewModifyKeywords flags an utterance as a code-review-or-
// modification request.
var reviewModifyKeywords = []string{
	"cr", "review", "modify", "change", "improve", "refactor", "fix", "bug", "optimize", "help",
	"审查", "检查", "修改", "改进", "重构", "修复", "优化", "帮助",
}

// saveKeywords explicitly ask for output to land on disk.
var saveKeywords = []string{
	"save", "write to", "store", "persist", "output to",
	"保存", "写入", "存储", "输出到",
}

// generationKeywords flag a code generation request.
var generationKeywords = []string{
	"create", "generate", "implement", "build", "scaffold",
	"创建", "生成", "实现", "构建", "编写",
}

// modifiedCodeMarkers are phrases in a model reply announcing that it
// contains a rewritten version of the user's code.
var modifiedCodeMarkers = []string{
	"modified code", "updated code", "refactored code", "fixed code", "corrected code",
	"修改后", "重构后的代码", "修复后", "改进后", "优化后",
}

// confirmKeywords accept a pending save.
var confirmKeywords = []string{
	"yes", "y", "apply", "confirm", "ok",
	"是", "应用", "确认", "好",
}

// IsReviewOrModify reports whether the utterance asks for review or
// modification of existing code.
func IsReviewOrModify(utterance string) bool {
	return matchesAny(utterance, reviewModifyKeywords)
}

// IsGenerationRequest reports whether the utterance asks for new code.
func IsGenerationRequest(utterance string) bool {
	return matchesAny(utterance, generationKeywords)
}

// NeedsSaving decides whether the turn's output is a candidate for
// persistence at all. Any single rule suffices:
//  1. the utterance contains an explicit save keyword
//  2. the utterance is a review/modification request
//  3. the response carries a fenced code block
//  4. the utterance is a code generation request
func NeedsSaving(utterance, response string) bool {
	if matchesAny(utterance, saveKeywords) {
		return true
	}
	if IsReviewOrModify(utterance) {
		return true
	}
	if strings.Contains(response, "```") {
		return true
	}
	return IsGenerationRequest(utterance)
}

// =============================================================================
// CONFIRMATION GATE
// =============================================================================

// longBlockThreshold is the line count past which a code block is
// treated as a full-file rewrite rather than a snippet.
const longBlockThreshold = 10

// ResponseWarrantsConfirmation reports whether a reply looks like it
// replaces the user's file: either a code block longer than ten lines
// or an explicit modified-code phrase. Replies that are neither are
// treated as suggestions and never prompt.
func ResponseWarrantsConfirmation(response string) bool {
	for _, b := range extract.CodeBlocks(response) {
		if strings.Count(b.Content, "\n")+1 > longBlockThreshold {
			return true
		}
	}
	lower := strings.ToLower(response)
	for _, marker := range modifiedCodeMarkers {
		if isASCII(marker) {
			if strings.Contains(lower, marker) {
				return true
			}
		} else if strings.Contains(response, marker) {
			return true
		}
	}
	return false
}

// IsConfirmation reports whether a free-text answer accepts a pending
// save. Anything not matching is a decline.
func IsConfirmation(answer string) bool {
	return matchesAny(strings.TrimSpace(answer), confirmKeywords)
}
