// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import "github.com/jeranaias/codechat/internal/intent"

// baseSystemPrompt frames every conversation.
const baseSystemPrompt = "You are an AI assistant specialized in helping developers " +
	"with coding tasks: writing, reviewing, refactoring, and explaining code. " +
	"Answer concisely. Put code in fenced blocks tagged with the language."

// systemPrompt extends the base prompt with action-specific guidance
// when the turn came through the intent menu.
func systemPrompt(action intent.Action) string {
	guidance := ""
	switch action {
	case intent.ActionReview:
		guidance = " Review the provided code and list concrete findings ordered by severity."
	case intent.ActionRefactor:
		guidance = " When proposing a refactor, output the complete rewritten file in a single fenced block."
	case intent.ActionSecurityReview:
		guidance = " Focus exclusively on security: injection, path handling, secrets, unsafe defaults."
	case intent.ActionFix:
		guidance = " Identify the defect first, then output the corrected code in a single fenced block."
	case intent.ActionOptimize:
		guidance = " Preserve behavior exactly; call out the complexity change for each optimization."
	case intent.ActionCreate:
		guidance = " Output complete, runnable code in a single fenced block, no placeholders."
	case intent.ActionCreateWithTests:
		guidance = " Output the implementation and its tests as separate fenced blocks."
	case intent.ActionExplain:
		guidance = " Explain step by step; prefer short examples over long prose."
	case intent.ActionGuide:
		guidance = " Give practical guidance; do not output full file rewrites."
	case intent.ActionNone:
		// Plain conversation keeps the base prompt.
	}
	return baseSystemPrompt + guidance
}

// actionInstruction is the per-option instruction block appended to the
// user-visible prompt. Unrecognized actions get nothing.
func actionInstruction(action intent.Action) string {
	switch action {
	case intent.ActionReview:
		return "Instructions: review the code above. List issues with line references and a one-line fix each."
	case intent.ActionRefactor:
		return "Instructions: produce the refactored version of the file as one complete fenced code block, then summarize what changed."
	case intent.ActionSecurityReview:
		return "Instructions: audit the code above for security problems only and rate each finding high/medium/low."
	case intent.ActionFix:
		return "Instructions: output the fixed file as one complete fenced code block, then explain the root cause."
	case intent.ActionOptimize:
		return "Instructions: optimize the code above without changing behavior; show the optimized version in a fenced block."
	case intent.ActionCreate:
		return "Instructions: write the complete file content as one fenced code block tagged with its language."
	case intent.ActionCreateWithTests:
		return "Instructions: write the implementation in one fenced block and the tests in a second fenced block."
	case intent.ActionExplain:
		return "Instructions: explain the code or concept; do not rewrite anything."
	case intent.ActionGuide:
		return "Instructions: give step-by-step guidance without full code listings."
	case intent.ActionNone:
		return ""
	}
	return ""
}
