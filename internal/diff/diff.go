// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes line diffs so the user can see what a rewrite
// would change before it lands on disk.
package diff

import (
	"fmt"
	"strings"
)

const contextRadius = 2

type op int

const (
	opSame op = iota
	opAdd
	opDel
)

type line struct {
	op     op
	text   string
	oldNum int
	newNum int
}

// Change is the computed difference between a file's current content
// and a proposed replacement.
type Change struct {
	Path    string
	Added   int
	Removed int
	NewFile bool
	lines   []line
}

// Between diffs before against after for the given path. An empty
// before marks the change as a new file.
func Between(path, before, after string) *Change {
	c := &Change{Path: path, NewFile: before == ""}

	oldLines := toLines(before)
	newLines := toLines(after)
	c.lines = align(oldLines, newLines)

	for _, l := range c.lines {
		switch l.op {
		case opAdd:
			c.Added++
		case opDel:
			c.Removed++
		}
	}
	return c
}

// Empty reports whether the proposed content matches what is on disk.
func (c *Change) Empty() bool {
	return c.Added == 0 && c.Removed == 0
}

// Stat returns a single-line summary, git style.
func (c *Change) Stat() string {
	if c.NewFile {
		return fmt.Sprintf("%s: new file, %d lines", c.Path, c.Added)
	}
	return fmt.Sprintf("%s: +%d -%d", c.Path, c.Added, c.Removed)
}

// Unified renders the change in unified diff format with a couple of
// context lines per hunk. New files render no body; the stat line says
// everything.
func (c *Change) Unified() string {
	if c.NewFile || c.Empty() {
		return ""
	}

	keep := make([]bool, len(c.lines))
	for i, l := range c.lines {
		if l.op == opSame {
			continue
		}
		lo := i - contextRadius
		if lo < 0 {
			lo = 0
		}
		hi := i + contextRadius
		if hi >= len(c.lines) {
			hi = len(c.lines) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", c.Path, c.Path)

	i := 0
	for i < len(c.lines) {
		if !keep[i] {
			i++
			continue
		}
		j := i
		for j < len(c.lines) && keep[j] {
			j++
		}
		writeHunk(&b, c.lines[i:j])
		i = j
	}
	return b.String()
}

func writeHunk(b *strings.Builder, hunk []line) {
	oldStart, oldCount := 0, 0
	newStart, newCount := 0, 0
	for _, l := range hunk {
		if l.oldNum > 0 {
			if oldStart == 0 {
				oldStart = l.oldNum
			}
			oldCount++
		}
		if l.newNum > 0 {
			if newStart == 0 {
				newStart = l.newNum
			}
			newCount++
		}
	}
	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)

	for _, l := range hunk {
		switch l.op {
		case opAdd:
			b.WriteString("+")
		case opDel:
			b.WriteString("-")
		default:
			b.WriteString(" ")
		}
		b.WriteString(l.text)
		b.WriteString("\n")
	}
}

func toLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// align walks both sides against their longest common subsequence,
// emitting deletions before additions within each changed region.
func align(oldLines, newLines []string) []line {
	common := lcs(oldLines, newLines)

	var out []line
	oi, ni, ci := 0, 0, 0
	for oi < len(oldLines) || ni < len(newLines) {
		switch {
		case ci < len(common) && oi < len(oldLines) && ni < len(newLines) &&
			oldLines[oi] == common[ci] && newLines[ni] == common[ci]:
			out = append(out, line{op: opSame, text: oldLines[oi], oldNum: oi + 1, newNum: ni + 1})
			oi++
			ni++
			ci++
		case oi < len(oldLines) && (ci >= len(common) || oldLines[oi] != common[ci]):
			out = append(out, line{op: opDel, text: oldLines[oi], oldNum: oi + 1})
			oi++
		default:
			out = append(out, line{op: opAdd, text: newLines[ni], newNum: ni + 1})
			ni++
		}
	}
	return out
}

func lcs(a, b []string) []string {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	out := make([]string, 0, dp[m][n])
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			out = append(out, a[i-1])
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
