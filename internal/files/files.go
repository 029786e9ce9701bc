// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files is the guarded content store: file reads, writes, line
// edits and deletes with path validation, size limits, and a timestamped
// backup before every destructive operation.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/codechat/internal/util"
)

// MaxFileSize is the largest file the store will read or edit.
const MaxFileSize = 10 * 1024 * 1024

// DefaultRestrictedPaths are directory prefixes the store refuses to
// touch unless the caller configures otherwise.
var DefaultRestrictedPaths = []string{"/etc", "/usr", "/bin", "/sbin"}

// EditResult reports the outcome of a single mutating operation. Callers
// must check Success; Error carries the failure reason when it is false.
type EditResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	OriginalContent string `json:"originalContent,omitempty"`
	NewContent      string `json:"newContent,omitempty"`
	BackupPath      string `json:"backupPath,omitempty"`
	Error           string `json:"error,omitempty"`
	LinesBefore     int    `json:"linesBefore"`
	LinesAfter      int    `json:"linesAfter"`
}

// FileInfo describes a path without reading its content.
type FileInfo struct {
	Exists       bool
	Size         int64
	LastModified time.Time
	IsDirectory  bool
	Readable     bool
	Writable     bool
	Executable   bool
}

// WriteOptions control Write behavior.
type WriteOptions struct {
	Backup          bool
	CreateIfMissing bool
}

// Store performs all file operations, screening every path against the
// restricted list first.
type Store struct {
	restricted []string
	maxSize    int64
}

// NewStore returns a Store using the given restricted path prefixes, or
// DefaultRestrictedPaths when the list is empty.
func NewStore(restricted []string) *Store {
	if len(restricted) == 0 {
		restricted = DefaultRestrictedPaths
	}
	return &Store{restricted: restricted, maxSize: MaxFileSize}
}

// =============================================================================
// PATH VALIDATION
// SECURITY: traversal markers and system directories are rejected up front
// =============================================================================

// ValidatePath rejects traversal markers and restricted prefixes. The
// check runs on the raw string so "~" smuggling is caught before any
// expansion happens.
func (s *Store) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}
	if strings.Contains(path, "..") || strings.Contains(path, "~") {
		return fmt.Errorf("path %q contains traversal markers", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	for _, prefix := range s.restricted {
		if abs == prefix || strings.HasPrefix(abs, prefix+string(os.PathSeparator)) {
			return fmt.Errorf("path %q is under restricted directory %s", path, prefix)
		}
	}
	return nil
}

// =============================================================================
// READ / WRITE / APPEND / DELETE
// =============================================================================

// Read returns the file's content after validating the path and size.
func (s *Store) Read(path string) (string, error) {
	if err := s.ValidatePath(path); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > s.maxSize {
		return "", fmt.Errorf("%s is %d bytes, exceeds the %d byte limit", path, info.Size(), s.maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the file's content. When the target already exists its
// old content is snapshotted into the result and, with opts.Backup, into
// a timestamped sibling file before the overwrite. Parent directories
// are created as needed.
func (s *Store) Write(path, content string, opts WriteOptions) EditResult {
	if err := s.ValidatePath(path); err != nil {
		return failed(err)
	}

	var original string
	var backupPath string
	existing, statErr := os.Stat(path)
	exists := statErr == nil && !existing.IsDir()

	if statErr == nil && existing.IsDir() {
		return failed(fmt.Errorf("%s is a directory", path))
	}
	if !exists && !opts.CreateIfMissing {
		return failed(fmt.Errorf("%s does not exist and createIfMissing is off", path))
	}

	if exists {
		prev, err := s.Read(path)
		if err != nil {
			return failed(fmt.Errorf("snapshot original: %w", err))
		}
		original = prev
		if opts.Backup {
			bp, err := s.writeBackup(path, prev)
			if err != nil {
				return failed(fmt.Errorf("create backup: %w", err))
			}
			backupPath = bp
		}
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(content), 0644); err != nil {
		return failed(err)
	}

	return EditResult{
		Success:         true,
		Message:         fmt.Sprintf("wrote %s", path),
		OriginalContent: original,
		NewContent:      content,
		BackupPath:      backupPath,
		LinesBefore:     util.CountLines(original),
		LinesAfter:      util.CountLines(content),
	}
}

// Append adds content to the end of the file, creating it when missing.
// The existing content is backed up first when opts.Backup is set.
func (s *Store) Append(path, content string, opts WriteOptions) EditResult {
	if err := s.ValidatePath(path); err != nil {
		return failed(err)
	}
	original := ""
	if _, err := os.Stat(path); err == nil {
		prev, err := s.Read(path)
		if err != nil {
			return failed(err)
		}
		original = prev
	}
	res := s.Write(path, original+content, WriteOptions{Backup: opts.Backup && original != "", CreateIfMissing: true})
	if res.Success {
		res.Message = fmt.Sprintf("appended to %s", path)
	}
	return res
}

// Delete removes the file, writing a backup first when requested.
func (s *Store) Delete(path string, backup bool) EditResult {
	if err := s.ValidatePath(path); err != nil {
		return failed(err)
	}
	original, err := s.Read(path)
	if err != nil {
		return failed(err)
	}

	var backupPath string
	if backup {
		bp, err := s.writeBackup(path, original)
		if err != nil {
			return failed(fmt.Errorf("create backup: %w", err))
		}
		backupPath = bp
	}
	if err := os.Remove(path); err != nil {
		return failed(fmt.Errorf("remove %s: %w", path, err))
	}
	return EditResult{
		Success:         true,
		Message:         fmt.Sprintf("deleted %s", path),
		OriginalContent: original,
		BackupPath:      backupPath,
		LinesBefore:     util.CountLines(original),
	}
}

// =============================================================================
// LINE-ORIENTED EDITS
// =============================================================================

// ReplaceLine swaps the 1-based lineNum for newText, keeping the backup
// discipline of Write.
func (s *Store) ReplaceLine(path string, lineNum int, newText string) EditResult {
	return s.editLines(path, func(lines []string) ([]string, error) {
		if lineNum < 1 || lineNum > len(lines) {
			return nil, fmt.Errorf("line %d out of range (file has %d lines)", lineNum, len(lines))
		}
		lines[lineNum-1] = newText
		return lines, nil
	})
}

// InsertAtLine inserts newText before the 1-based lineNum. A lineNum one
// past the end appends.
func (s *Store) InsertAtLine(path string, lineNum int, newText string) EditResult {
	return s.editLines(path, func(lines []string) ([]string, error) {
		if lineNum < 1 || lineNum > len(lines)+1 {
			return nil, fmt.Errorf("line %d out of range (file has %d lines)", lineNum, len(lines))
		}
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:lineNum-1]...)
		out = append(out, newText)
		out = append(out, lines[lineNum-1:]...)
		return out, nil
	})
}

// DeleteLine removes the 1-based lineNum.
func (s *Store) DeleteLine(path string, lineNum int) EditResult {
	return s.editLines(path, func(lines []string) ([]string, error) {
		if lineNum < 1 || lineNum > len(lines) {
			return nil, fmt.Errorf("line %d out of range (file has %d lines)", lineNum, len(lines))
		}
		return append(lines[:lineNum-1], lines[lineNum:]...), nil
	})
}

// FindAndReplace substitutes every occurrence of old with new.
func (s *Store) FindAndReplace(path, old, new string) EditResult {
	if old == "" {
		return failed(fmt.Errorf("search text is empty"))
	}
	original, err := s.Read(path)
	if err != nil {
		return failed(err)
	}
	if !strings.Contains(original, old) {
		return failed(fmt.Errorf("%q not found in %s", old, path))
	}
	res := s.Write(path, strings.ReplaceAll(original, old, new), WriteOptions{Backup: true})
	if res.Success {
		res.Message = fmt.Sprintf("replaced %d occurrence(s) in %s", strings.Count(original, old), path)
	}
	return res
}

func (s *Store) editLines(path string, edit func([]string) ([]string, error)) EditResult {
	original, err := s.Read(path)
	if err != nil {
		return failed(err)
	}
	lines := strings.Split(original, "\n")
	edited, err := edit(lines)
	if err != nil {
		return failed(err)
	}
	return s.Write(path, strings.Join(edited, "\n"), WriteOptions{Backup: true})
}

// =============================================================================
// METADATA AND BACKUPS
// =============================================================================

// GetInfo reports existence, size, times, and effective access bits. It
// never fails: a missing path yields Exists:false.
func (s *Store) GetInfo(path string) FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}
	}
	fi := FileInfo{
		Exists:       true,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		IsDirectory:  info.IsDir(),
	}
	fi.Readable, fi.Writable, fi.Executable = accessBits(path)
	return fi
}

// Backups lists existing backup files for path, oldest first.
func (s *Store) Backups(path string) []string {
	matches, err := filepath.Glob(path + ".backup.*")
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// writeBackup copies content to a sibling file named
// <path>.backup.<timestamp>, with ':' and '.' in the timestamp replaced
// by '-' so the suffix stays shell-friendly.
func (s *Store) writeBackup(path, content string) (string, error) {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	backupPath := path + ".backup." + ts
	if err := util.AtomicWriteFile(backupPath, []byte(content), 0644); err != nil {
		return "", err
	}
	return backupPath, nil
}

func failed(err error) EditResult {
	return EditResult{Success: false, Message: "operation failed", Error: err.Error()}
}
