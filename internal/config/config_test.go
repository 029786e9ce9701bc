// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Ollama.Model != "gpt-oss:20b" {
		t.Errorf("model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.Endpoint != "http://127.0.0.1:11434" {
		t.Errorf("endpoint = %q", cfg.Ollama.Endpoint)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Ollama.Model = "llama3:8b"
	cfg.Generation.OutputDirectory = "./out"

	if err := cfg.SaveTo(dir); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Ollama.Model != "llama3:8b" {
		t.Errorf("model = %q", loaded.Ollama.Model)
	}
	if loaded.Generation.OutputDirectory != "./out" {
		t.Errorf("output dir = %q", loaded.Generation.OutputDirectory)
	}
}

func TestLoadFromJSONFallback(t *testing.T) {
	dir := t.TempDir()
	data := `{"ollama":{"model":"from-json"}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Ollama.Model != "from-json" {
		t.Errorf("model = %q", cfg.Ollama.Model)
	}
	// Fields missing from the partial file come from defaults.
	if cfg.Ollama.MaxTokens != 2048 {
		t.Errorf("max tokens = %d", cfg.Ollama.MaxTokens)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Ollama.Endpoint = "not-a-url"
	cfg.Ollama.Temperature = 9
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid config passed validation")
	}
	ve, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type %T", err)
	}
	if len(ve) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(ve), ve)
	}
	if !IsValidationError(err) {
		t.Error("IsValidationError = false")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CODECHAT_MODEL", "env-model")
	t.Setenv("CODECHAT_TIMEOUT", "42")

	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Ollama.Model != "env-model" {
		t.Errorf("model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.TimeoutSecs != 42 {
		t.Errorf("timeout = %d", cfg.Ollama.TimeoutSecs)
	}
}

func TestGetSetDottedKeys(t *testing.T) {
	cfg := Default()

	if v, err := cfg.Get("ollama.model"); err != nil || v != "gpt-oss:20b" {
		t.Errorf("Get = %q, %v", v, err)
	}

	if err := cfg.Set("ollama.temperature", "1.2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cfg.Ollama.Temperature != 1.2 {
		t.Errorf("temperature = %v", cfg.Ollama.Temperature)
	}

	if err := cfg.Set("security.restricted_paths", "/etc, /opt/secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(cfg.Security.RestrictedPaths) != 2 || cfg.Security.RestrictedPaths[1] != "/opt/secret" {
		t.Errorf("paths = %v", cfg.Security.RestrictedPaths)
	}

	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("unknown key accepted by Get")
	}
	if err := cfg.Set("no.such.key", "x"); err == nil {
		t.Error("unknown key accepted by Set")
	}
}

func TestSetRevertsOnValidationFailure(t *testing.T) {
	cfg := Default()
	if err := cfg.Set("ui.theme", "neon"); err == nil {
		t.Fatal("invalid theme accepted")
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("theme = %q, want reverted auto", cfg.UI.Theme)
	}
}

func TestKeysSortedAndComplete(t *testing.T) {
	keys := Keys()
	if len(keys) < 20 {
		t.Errorf("only %d keys registered", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if strings.Compare(keys[i-1], keys[i]) >= 0 {
			t.Errorf("keys not sorted at %d: %s >= %s", i, keys[i-1], keys[i])
		}
	}
}
