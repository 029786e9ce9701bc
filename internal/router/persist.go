// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/codechat/internal/diff"
	"github.com/jeranaias/codechat/internal/extract"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/intent"
)

// persist is the side-effect policy run after every completed stream.
// The classification always runs against the user's original utterance,
// never the model's reply.
func (r *Router) persist(input, response string) []SaveOutcome {
	if !intent.NeedsSaving(input, response) {
		return nil
	}

	paths := extract.FilePaths(input)
	blocks := extract.CodeBlocks(response)

	switch {
	case intent.IsReviewOrModify(input) && len(paths) > 0:
		return r.persistWithConfirmation(paths, blocks, response)
	case len(paths) > 0:
		return r.persistToPaths(paths, blocks, response)
	default:
		return r.persistInferred(input, blocks, response)
	}
}

// persistWithConfirmation gates overwrites of user-named files. The
// prompt only appears when the reply plausibly contains a full rewrite;
// anything else is treated as a suggestion and left on screen.
func (r *Router) persistWithConfirmation(paths []string, blocks []extract.CodeBlock, response string) []SaveOutcome {
	if !intent.ResponseWarrantsConfirmation(response) {
		return skippedAll(paths, "reply looks like a suggestion, not a rewrite; nothing written")
	}

	r.previewChanges(paths, blocks, response)

	answer, err := r.ui.AskLine("Apply these changes? (yes/应用) ")
	if err != nil || !intent.IsConfirmation(answer) {
		return skippedAll(paths, "not confirmed; shown as suggestion only")
	}

	outcomes := make([]SaveOutcome, 0, len(paths))
	for _, path := range paths {
		content, ok := contentFor(blocks, path, response)
		if !ok {
			outcomes = append(outcomes, SaveOutcome{Path: path, Skipped: true, Reason: "no code block to apply"})
			continue
		}
		res := r.fs.Write(path, content, files.WriteOptions{Backup: true, CreateIfMissing: true})
		outcomes = append(outcomes, SaveOutcome{Path: path, Result: res})
	}
	return outcomes
}

// previewChanges shows what the confirmation would apply: a stat line
// per target, plus the unified diff for files that already exist. A
// short diff keeps the prompt readable; long ones are elided to stats.
func (r *Router) previewChanges(paths []string, blocks []extract.CodeBlock, response string) {
	for _, path := range paths {
		proposed, ok := contentFor(blocks, path, response)
		if !ok {
			continue
		}
		current, err := r.fs.Read(path)
		if err != nil {
			current = ""
		}
		change := diff.Between(path, current, proposed)
		if change.Empty() && !change.NewFile {
			continue
		}
		r.ui.Show(change.Stat())
		if body := change.Unified(); body != "" && strings.Count(body, "\n") <= maxPreviewLines {
			r.ui.Show(body)
		}
	}
}

const maxPreviewLines = 60

// persistToPaths writes explicitly named targets without a prompt; the
// user named the destination in the request itself.
func (r *Router) persistToPaths(paths []string, blocks []extract.CodeBlock, response string) []SaveOutcome {
	outcomes := make([]SaveOutcome, 0, len(paths))
	for _, path := range paths {
		content, ok := contentFor(blocks, path, response)
		if !ok {
			outcomes = append(outcomes, SaveOutcome{Path: path, Skipped: true, Reason: "no content to write"})
			continue
		}
		res := r.fs.Write(path, content, files.WriteOptions{Backup: true, CreateIfMissing: true})
		outcomes = append(outcomes, SaveOutcome{Path: path, Result: res})
	}
	return outcomes
}

// contentFor picks what lands in one file: the block matching its
// extension, else the first block, else the whole response.
func contentFor(blocks []extract.CodeBlock, path, response string) (string, bool) {
	if b, ok := extract.BestBlockFor(blocks, path); ok {
		return b.Content, true
	}
	if strings.TrimSpace(response) == "" {
		return "", false
	}
	return response, true
}

// =============================================================================
// SAVE LOCATION INFERENCE
// =============================================================================

// subdirHints map utterance keywords to a target subdirectory, first
// match wins.
var subdirHints = []struct {
	keyword string
	subdir  string
}{
	{"component", "components"},
	{"组件", "components"},
	{"service", "services"},
	{"服务", "services"},
	{"util", "utils"},
	{"helper", "utils"},
	{"工具", "utils"},
	{"style", "styles"},
	{"样式", "styles"},
	{"template", "templates"},
	{"模板", "templates"},
	{"doc", "docs"},
	{"文档", "docs"},
	{"test", "test"},
	{"测试", "test"},
}

// persistInferred handles replies worth saving that name no target:
// derive a filename from the utterance, pick a subdirectory from
// keyword hints or the content language, and root it in the detected
// project shape or the configured output directory.
func (r *Router) persistInferred(input string, blocks []extract.CodeBlock, response string) []SaveOutcome {
	lang := r.cfg.Generation.DefaultLanguage
	content := response
	if len(blocks) > 0 {
		lang = blocks[0].Language
		content = blocks[0].Content
	} else {
		lang = extract.DetectLanguage(response, input)
	}

	name := extract.DeriveFilename(input, lang)
	dir := r.inferDirectory(input, lang)
	path := filepath.Join(dir, name)

	res := r.fs.Write(path, content, files.WriteOptions{Backup: true, CreateIfMissing: true})
	return []SaveOutcome{{Path: path, Result: res}}
}

func (r *Router) inferDirectory(input, lang string) string {
	root := r.sess.WorkingDirectory
	shape := detectProjectShape(root)

	subdir := ""
	lowerInput := strings.ToLower(input)
	for _, h := range subdirHints {
		if strings.Contains(lowerInput, h.keyword) {
			subdir = h.subdir
			break
		}
	}
	if subdir == "" {
		switch lang {
		case "css":
			subdir = "styles"
		case "markdown":
			subdir = "docs"
		}
	}

	if !shape.detected {
		return r.cfg.Generation.OutputDirectory
	}
	base := root
	if shape.hasSrc && subdir != "docs" && subdir != "test" {
		base = filepath.Join(root, "src")
	}
	if subdir == "" {
		return base
	}
	return filepath.Join(base, subdir)
}

type projectShape struct {
	detected bool
	hasSrc   bool
}

// detectProjectShape looks for the minimal markers of a code project in
// the working directory.
func detectProjectShape(root string) projectShape {
	var shape projectShape
	for _, marker := range []string{"package.json", "go.mod", "src", "test", "tests", "docs"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			shape.detected = true
			if marker == "src" {
				shape.hasSrc = true
			}
		}
	}
	return shape
}

func skippedAll(paths []string, reason string) []SaveOutcome {
	outcomes := make([]SaveOutcome, 0, len(paths))
	for _, p := range paths {
		outcomes = append(outcomes, SaveOutcome{Path: p, Skipped: true, Reason: reason})
	}
	return outcomes
}
