// codechat - chat with a local Ollama model that can touch your files.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/codechat/internal/cli"
)

func main() {
	cmd, args := cli.Parse()
	os.Exit(cli.Run(cmd, args))
}
