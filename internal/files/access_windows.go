// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package files

import "os"

// accessBits approximates access checks on Windows, where mode bits do
// not carry the full ACL story. Readability is probed with an open;
// writability falls back to the read-only attribute.
func accessBits(path string) (readable, writable, executable bool) {
	if f, err := os.Open(path); err == nil {
		f.Close()
		readable = true
	}
	info, err := os.Stat(path)
	if err != nil {
		return readable, false, false
	}
	writable = info.Mode().Perm()&0200 != 0
	executable = info.IsDir()
	return readable, writable, executable
}
