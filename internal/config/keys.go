// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dotted-key access backs `codechat config --get/--set`. Every settable
// field registers a getter and a setter; Set re-validates the whole
// config afterwards so a bad value never sticks.

type keyAccessor struct {
	get func(*Config) string
	set func(*Config, string) error
}

var keyAccessors = map[string]keyAccessor{
	"ollama.endpoint": {
		get: func(c *Config) string { return c.Ollama.Endpoint },
		set: func(c *Config, v string) error { c.Ollama.Endpoint = v; return nil },
	},
	"ollama.model": {
		get: func(c *Config) string { return c.Ollama.Model },
		set: func(c *Config, v string) error { c.Ollama.Model = v; return nil },
	},
	"ollama.timeout_secs": {
		get: func(c *Config) string { return strconv.Itoa(c.Ollama.TimeoutSecs) },
		set: func(c *Config, v string) error { return setInt(&c.Ollama.TimeoutSecs, v) },
	},
	"ollama.max_tokens": {
		get: func(c *Config) string { return strconv.Itoa(c.Ollama.MaxTokens) },
		set: func(c *Config, v string) error { return setInt(&c.Ollama.MaxTokens, v) },
	},
	"ollama.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Ollama.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error { return setFloat(&c.Ollama.Temperature, v) },
	},
	"generation.default_language": {
		get: func(c *Config) string { return c.Generation.DefaultLanguage },
		set: func(c *Config, v string) error { c.Generation.DefaultLanguage = v; return nil },
	},
	"generation.default_framework": {
		get: func(c *Config) string { return c.Generation.DefaultFramework },
		set: func(c *Config, v string) error { c.Generation.DefaultFramework = v; return nil },
	},
	"generation.include_comments": {
		get: func(c *Config) string { return strconv.FormatBool(c.Generation.IncludeComments) },
		set: func(c *Config, v string) error { return setBool(&c.Generation.IncludeComments, v) },
	},
	"generation.include_tests": {
		get: func(c *Config) string { return strconv.FormatBool(c.Generation.IncludeTests) },
		set: func(c *Config, v string) error { return setBool(&c.Generation.IncludeTests, v) },
	},
	"generation.output_directory": {
		get: func(c *Config) string { return c.Generation.OutputDirectory },
		set: func(c *Config, v string) error { c.Generation.OutputDirectory = v; return nil },
	},
	"review.severity": {
		get: func(c *Config) string { return c.Review.Severity },
		set: func(c *Config, v string) error { c.Review.Severity = v; return nil },
	},
	"review.auto_fix": {
		get: func(c *Config) string { return strconv.FormatBool(c.Review.AutoFix) },
		set: func(c *Config, v string) error { return setBool(&c.Review.AutoFix, v) },
	},
	"review.report_format": {
		get: func(c *Config) string { return c.Review.ReportFormat },
		set: func(c *Config, v string) error { c.Review.ReportFormat = v; return nil },
	},
	"execution.timeout_millis": {
		get: func(c *Config) string { return strconv.Itoa(c.Execution.TimeoutMillis) },
		set: func(c *Config, v string) error { return setInt(&c.Execution.TimeoutMillis, v) },
	},
	"execution.sandbox_enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Execution.SandboxEnabled) },
		set: func(c *Config, v string) error { return setBool(&c.Execution.SandboxEnabled, v) },
	},
	"execution.allow_network_access": {
		get: func(c *Config) string { return strconv.FormatBool(c.Execution.AllowNetworkAccess) },
		set: func(c *Config, v string) error { return setBool(&c.Execution.AllowNetworkAccess, v) },
	},
	"execution.allow_filesystem_access": {
		get: func(c *Config) string { return strconv.FormatBool(c.Execution.AllowFileSystemAccess) },
		set: func(c *Config, v string) error { return setBool(&c.Execution.AllowFileSystemAccess, v) },
	},
	"ui.theme": {
		get: func(c *Config) string { return c.UI.Theme },
		set: func(c *Config, v string) error { c.UI.Theme = v; return nil },
	},
	"ui.show_progress": {
		get: func(c *Config) string { return strconv.FormatBool(c.UI.ShowProgress) },
		set: func(c *Config, v string) error { return setBool(&c.UI.ShowProgress, v) },
	},
	"ui.verbose_output": {
		get: func(c *Config) string { return strconv.FormatBool(c.UI.VerboseOutput) },
		set: func(c *Config, v string) error { return setBool(&c.UI.VerboseOutput, v) },
	},
	"security.enable_sandbox": {
		get: func(c *Config) string { return strconv.FormatBool(c.Security.EnableSandbox) },
		set: func(c *Config, v string) error { return setBool(&c.Security.EnableSandbox, v) },
	},
	"security.restricted_paths": {
		get: func(c *Config) string { return strings.Join(c.Security.RestrictedPaths, ",") },
		set: func(c *Config, v string) error {
			var paths []string
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					paths = append(paths, p)
				}
			}
			c.Security.RestrictedPaths = paths
			return nil
		},
	},
	"security.max_execution_secs": {
		get: func(c *Config) string { return strconv.Itoa(c.Security.MaxExecutionSecs) },
		set: func(c *Config, v string) error { return setInt(&c.Security.MaxExecutionSecs, v) },
	},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%q is not an integer", v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", v)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%q is not a boolean", v)
	}
	*dst = b
	return nil
}

// Get returns the value for a dotted key.
func (c *Config) Get(key string) (string, error) {
	acc, ok := keyAccessors[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return acc.get(c), nil
}

// Set assigns a dotted key and re-validates; on a validation failure
// the old value is restored.
func (c *Config) Set(key, value string) error {
	acc, ok := keyAccessors[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	old := acc.get(c)
	if err := acc.set(c, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		acc.set(c, old)
		return err
	}
	return nil
}

// Keys returns every settable dotted key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(keyAccessors))
	for k := range keyAccessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
