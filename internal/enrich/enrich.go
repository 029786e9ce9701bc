// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package enrich augments outgoing user messages with the content of
// referenced files and documents. Enrichment is best-effort: it never
// fails the turn, and any path that cannot be read is skipped.
package enrich

import (
	"fmt"
	"strings"

	"github.com/jeranaias/codechat/internal/docstore"
	"github.com/jeranaias/codechat/internal/extract"
	"github.com/jeranaias/codechat/internal/files"
	"github.com/jeranaias/codechat/internal/intent"
)

// documentKeywords gate enrichment: only utterances that look like a
// document operation get file content injected.
var documentKeywords = []string{
	"modify", "edit", "update", "rewrite", "change", "document", "file", "content",
	"review", "cr", "fix", "refactor",
	"修改", "编辑", "更新", "重写", "文档", "文件", "内容", "审查", "检查", "修复", "重构",
}

// SkippedPath records one path that could not be injected.
type SkippedPath struct {
	Path   string
	Reason string
}

// Result reports what enrichment did to a message.
type Result struct {
	Message  string
	Injected []string
	Skipped  []SkippedPath
}

// Enricher builds augmented prompts from the document and content
// stores.
type Enricher struct {
	docs *docstore.Store
	fs   *files.Store
}

func New(docs *docstore.Store, fs *files.Store) *Enricher {
	return &Enricher{docs: docs, fs: fs}
}

// Enhance returns the message with referenced file content appended.
// The original message comes back untouched when the utterance is not a
// document operation, no paths are found, or every read fails.
func (e *Enricher) Enhance(message string) Result {
	if !isDocumentOperation(message) {
		return Result{Message: message}
	}
	paths := extract.FilePaths(message)
	if len(paths) == 0 {
		return Result{Message: message}
	}
	return e.EnhanceWithPaths(message, paths)
}

// EnhanceWithPaths injects the given paths regardless of the keyword
// gate. The menu flow uses this after the classifier already captured
// the paths.
func (e *Enricher) EnhanceWithPaths(message string, paths []string) Result {
	res := Result{Message: message}

	var blocks []string
	for _, path := range paths {
		block, err := e.renderPath(path)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedPath{Path: path, Reason: err.Error()})
			continue
		}
		blocks = append(blocks, block)
		res.Injected = append(res.Injected, path)
	}
	if len(blocks) == 0 {
		return res
	}

	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\n<context>\n")
	for _, block := range blocks {
		b.WriteString(block)
		b.WriteString("\n")
	}
	b.WriteString("</context>\n\n")
	b.WriteString("Base your answer on the file content provided in <context> above.")

	res.Message = b.String()
	return res
}

// renderPath produces one labeled context block. A structured read is
// tried first for its normalized rendering; a raw read is the fallback.
func (e *Enricher) renderPath(path string) (string, error) {
	doc := e.docs.Read(path, "")
	if doc.Success {
		return fmt.Sprintf("<file path=%q format=%q size=\"%d\">\n%s\n</file>",
			path, doc.Metadata.Format, doc.Metadata.Size, doc.Content), nil
	}

	raw, err := e.fs.Read(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<file path=%q>\n%s\n</file>", path, raw), nil
}

func isDocumentOperation(message string) bool {
	return intent.MatchesAny(message, documentKeywords)
}
