// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package files

import "golang.org/x/sys/unix"

// accessBits checks effective read/write/execute permission for the
// current user with access(2), which honors ownership and group
// membership rather than just the mode bits.
func accessBits(path string) (readable, writable, executable bool) {
	readable = unix.Access(path, unix.R_OK) == nil
	writable = unix.Access(path, unix.W_OK) == nil
	executable = unix.Access(path, unix.X_OK) == nil
	return readable, writable, executable
}
