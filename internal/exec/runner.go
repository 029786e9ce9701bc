// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exec runs small code snippets from chat through the matching
// interpreter. The sandbox here is illustrative, not hardened: it
// scrubs the environment and confines the working directory, but it is
// no substitute for OS-level isolation.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"time"

	"github.com/jeranaias/codechat/internal/config"
)

// Result captures one snippet run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// Runner executes snippets under the limits of the execution config.
type Runner struct {
	cfg config.ExecutionConfig
}

func NewRunner(cfg config.ExecutionConfig) *Runner {
	return &Runner{cfg: cfg}
}

// interpreters maps a language tag to the command that runs a file of
// that language.
var interpreters = map[string]struct {
	command string
	ext     string
}{
	"python":     {"python3", ".py"},
	"javascript": {"node", ".js"},
	"bash":       {"bash", ".sh"},
	"ruby":       {"ruby", ".rb"},
}

// Supported reports whether lang has a registered interpreter.
func Supported(lang string) bool {
	_, ok := interpreters[lang]
	return ok
}

// Run writes code to a scratch file and executes it, bounded by the
// configured timeout. A timeout is reported in the Result, not as an
// error; errors are reserved for failures to launch at all.
func (r *Runner) Run(ctx context.Context, lang, code string) (Result, error) {
	interp, ok := interpreters[lang]
	if !ok {
		return Result{}, fmt.Errorf("no interpreter registered for %q", lang)
	}
	if _, err := osexec.LookPath(interp.command); err != nil {
		return Result{}, fmt.Errorf("%s is not installed: %w", interp.command, err)
	}

	scratch, err := os.MkdirTemp("", "codechat-run-*")
	if err != nil {
		return Result{}, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	scriptPath := filepath.Join(scratch, "snippet"+interp.ext)
	if err := os.WriteFile(scriptPath, []byte(code), 0600); err != nil {
		return Result{}, fmt.Errorf("write snippet: %w", err)
	}

	timeout := time.Duration(r.cfg.TimeoutMillis) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := osexec.CommandContext(runCtx, interp.command, scriptPath)
	cmd.Dir = scratch
	if r.cfg.SandboxEnabled {
		cmd.Env = r.sandboxEnv(scratch)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}
	if runErr != nil {
		var exitErr *osexec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run snippet: %w", runErr)
	}
	return res, nil
}

// sandboxEnv is a minimal environment: interpreter lookup still works
// through PATH, HOME points into the scratch directory so dotfile
// writes stay contained, and proxy variables are dropped when network
// access is off.
func (r *Runner) sandboxEnv(scratch string) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + scratch,
		"TMPDIR=" + scratch,
		"LANG=" + os.Getenv("LANG"),
	}
	if r.cfg.AllowNetworkAccess {
		for _, k := range []string{"http_proxy", "https_proxy", "no_proxy"} {
			if v := os.Getenv(k); v != "" {
				env = append(env, k+"="+v)
			}
		}
	}
	return env
}
