// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"strings"
	"testing"
)

func TestAnalyzePlainConversation(t *testing.T) {
	utterances := []string{
		"hello there",
		"what's the weather like",
		"tell me a joke",
		"今天天气不错",
	}
	for _, u := range utterances {
		a := Analyze(u)
		if a.NeedsOptions {
			t.Errorf("Analyze(%q).NeedsOptions = true, want false", u)
		}
		if a.Intent != IntentConversation {
			t.Errorf("Analyze(%q).Intent = %q", u, a.Intent)
		}
	}
}

func TestAnalyzeReviewWithFile(t *testing.T) {
	a := Analyze("cr app.js")
	if !a.NeedsOptions {
		t.Fatal("review request did not need options")
	}
	if a.Intent != IntentCodeReview {
		t.Errorf("intent = %q, want code_review", a.Intent)
	}
	if len(a.Options) != 4 {
		t.Fatalf("got %d options, want 4", len(a.Options))
	}
	if a.Options[1].Title != "审查 + 重构方案" {
		t.Errorf("second option title = %q", a.Options[1].Title)
	}
	if a.Options[1].Action != ActionRefactor {
		t.Errorf("second option action = %v", a.Options[1].Action)
	}
	if len(a.FilePaths) != 1 || a.FilePaths[0] != "app.js" {
		t.Errorf("paths = %v", a.FilePaths)
	}
}

func TestAnalyzeReviewWithoutFile(t *testing.T) {
	a := Analyze("how should I review code")
	if !a.NeedsOptions || a.Intent != IntentCodeReview {
		t.Fatalf("analysis = %+v", a)
	}
	if len(a.Options) != 1 || a.Options[0].Action != ActionGuide {
		t.Errorf("pathless review should offer one guidance option, got %v", a.Options)
	}
}

func TestAnalyzeFamilyPriority(t *testing.T) {
	// Both review and modification keywords present: review wins.
	a := Analyze("review and fix app.js")
	if a.Intent != IntentCodeReview {
		t.Errorf("intent = %q, want code_review (priority order)", a.Intent)
	}
}

func TestAnalyzeCreationChinese(t *testing.T) {
	a := Analyze("创建一个 hello.py 打印 hello world")
	if a.Intent != IntentCreation {
		t.Errorf("intent = %q, want creation", a.Intent)
	}
	if !a.NeedsOptions || len(a.Options) != 3 {
		t.Errorf("options = %v", a.Options)
	}
}

func TestAnalyzeCrDoesNotFireInsideCreate(t *testing.T) {
	// "create" contains "cr" but must classify as creation, not review.
	a := Analyze("create a parser module")
	if a.Intent != IntentCreation {
		t.Errorf("intent = %q, want creation", a.Intent)
	}
}

func TestAnalyzeCoarseFilterGap(t *testing.T) {
	// "new" trips nothing in the coarse filter by itself unless listed;
	// craft an utterance whose only hit is a coarse keyword with no
	// family: coarse has exactly the family keywords, so use a family
	// word in a position where the family check still matches. Instead
	// verify the documented fallback directly: an utterance matching
	// no family must come back as conversation even when NeedsOptions
	// was plausible.
	a := Analyze("just chatting, nothing else")
	if a.NeedsOptions || a.Intent != IntentConversation {
		t.Errorf("analysis = %+v", a)
	}
}

func TestAnalyzeHelp(t *testing.T) {
	a := Analyze("help me understand goroutines")
	if a.Intent != IntentHelp || len(a.Options) != 3 {
		t.Errorf("analysis = %+v", a)
	}
}

func TestIsReviewOrModify(t *testing.T) {
	positive := []string{"cr app.js", "fix the bug in main.go", "重构这个函数", "optimize query"}
	for _, u := range positive {
		if !IsReviewOrModify(u) {
			t.Errorf("IsReviewOrModify(%q) = false", u)
		}
	}
	negative := []string{"创建一个 hello.py", "tell me about channels", "create a parser"}
	for _, u := range negative {
		if IsReviewOrModify(u) {
			t.Errorf("IsReviewOrModify(%q) = true", u)
		}
	}
}

func TestNeedsSaving(t *testing.T) {
	if !NeedsSaving("保存到 notes.txt", "plain reply") {
		t.Error("save keyword ignored")
	}
	if !NeedsSaving("fix app.js", "plain reply") {
		t.Error("review/modify ignored")
	}
	if !NeedsSaving("what is this", "here:\n```go\ncode\n```") {
		t.Error("fenced block ignored")
	}
	if !NeedsSaving("generate a cli skeleton", "prose") {
		t.Error("generation request ignored")
	}
	if NeedsSaving("tell me about channels", "prose reply, no code") {
		t.Error("plain chat flagged for saving")
	}
}

func TestResponseWarrantsConfirmation(t *testing.T) {
	short := "```js\nconst a = 1;\nconst b = 2;\n```"
	if ResponseWarrantsConfirmation(short) {
		t.Error("short block should not warrant confirmation")
	}

	long := "```js\n" + strings.Repeat("line();\n", 15) + "```"
	if !ResponseWarrantsConfirmation(long) {
		t.Error("15-line block should warrant confirmation")
	}

	marked := "这是重构后的代码:\n```js\nconst a = 1;\n```"
	if !ResponseWarrantsConfirmation(marked) {
		t.Error("modified-code marker should warrant confirmation")
	}

	if ResponseWarrantsConfirmation("just prose, no code at all") {
		t.Error("prose should not warrant confirmation")
	}
}

func TestIsConfirmation(t *testing.T) {
	accept := []string{"yes", "y", "Yes please", "应用", "是", "confirm"}
	for _, a := range accept {
		if !IsConfirmation(a) {
			t.Errorf("IsConfirmation(%q) = false", a)
		}
	}
	decline := []string{"no", "nah", "不要", "maybe later", ""}
	for _, d := range decline {
		if IsConfirmation(d) {
			t.Errorf("IsConfirmation(%q) = true", d)
		}
	}
}
