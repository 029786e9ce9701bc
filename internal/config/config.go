// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates, and persists codechat settings.
//
// The file lives at ~/.codechat/config.toml (TOML preferred, JSON
// accepted for compatibility with older installs). Loading always runs
// the same pipeline: read file -> apply env overrides -> fill defaults
// -> validate. Saves are atomic and 0600 since the directory also holds
// session transcripts.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/codechat/internal/util"
)

// Config is the root settings object.
type Config struct {
	Ollama     OllamaConfig     `toml:"ollama" json:"ollama"`
	Generation GenerationConfig `toml:"generation" json:"generation"`
	Review     ReviewConfig     `toml:"review" json:"review"`
	Execution  ExecutionConfig  `toml:"execution" json:"execution"`
	UI         UIConfig         `toml:"ui" json:"ui"`
	Security   SecurityConfig   `toml:"security" json:"security"`
}

// OllamaConfig selects the backend daemon and model.
type OllamaConfig struct {
	Endpoint    string  `toml:"endpoint" json:"endpoint"`
	Model       string  `toml:"model" json:"model"`
	TimeoutSecs int     `toml:"timeout_secs" json:"timeoutSecs"`
	MaxTokens   int     `toml:"max_tokens" json:"maxTokens"`
	Temperature float64 `toml:"temperature" json:"temperature"`
}

// GenerationConfig shapes code-generation output.
type GenerationConfig struct {
	DefaultLanguage  string `toml:"default_language" json:"defaultLanguage"`
	DefaultFramework string `toml:"default_framework" json:"defaultFramework"`
	IncludeComments  bool   `toml:"include_comments" json:"includeComments"`
	IncludeTests     bool   `toml:"include_tests" json:"includeTests"`
	OutputDirectory  string `toml:"output_directory" json:"outputDirectory"`
}

// ReviewConfig shapes code-review answers.
type ReviewConfig struct {
	EnabledRules []string `toml:"enabled_rules" json:"enabledRules"`
	Severity     string   `toml:"severity" json:"severity"`
	AutoFix      bool     `toml:"auto_fix" json:"autoFix"`
	ReportFormat string   `toml:"report_format" json:"reportFormat"`
}

// ExecutionConfig bounds the snippet runner.
type ExecutionConfig struct {
	TimeoutMillis         int  `toml:"timeout_millis" json:"timeoutMillis"`
	SandboxEnabled        bool `toml:"sandbox_enabled" json:"sandboxEnabled"`
	AllowNetworkAccess    bool `toml:"allow_network_access" json:"allowNetworkAccess"`
	AllowFileSystemAccess bool `toml:"allow_filesystem_access" json:"allowFileSystemAccess"`
}

// UIConfig tunes terminal output.
type UIConfig struct {
	Theme         string `toml:"theme" json:"theme"`
	ShowProgress  bool   `toml:"show_progress" json:"showProgress"`
	VerboseOutput bool   `toml:"verbose_output" json:"verboseOutput"`
}

// SecurityConfig guards file operations.
type SecurityConfig struct {
	EnableSandbox    bool     `toml:"enable_sandbox" json:"enableSandbox"`
	RestrictedPaths  []string `toml:"restricted_paths" json:"restrictedPaths"`
	MaxExecutionSecs int      `toml:"max_execution_secs" json:"maxExecutionSecs"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Endpoint:    "http://127.0.0.1:11434",
			Model:       "gpt-oss:20b",
			TimeoutSecs: 120,
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		Generation: GenerationConfig{
			DefaultLanguage:  "typescript",
			DefaultFramework: "node",
			IncludeComments:  true,
			IncludeTests:     false,
			OutputDirectory:  "./generated",
		},
		Review: ReviewConfig{
			EnabledRules: []string{"correctness", "security", "style"},
			Severity:     "warning",
			AutoFix:      false,
			ReportFormat: "markdown",
		},
		Execution: ExecutionConfig{
			TimeoutMillis:         10000,
			SandboxEnabled:        true,
			AllowNetworkAccess:    false,
			AllowFileSystemAccess: false,
		},
		UI: UIConfig{
			Theme:         "auto",
			ShowProgress:  true,
			VerboseOutput: false,
		},
		Security: SecurityConfig{
			EnableSandbox:    true,
			RestrictedPaths:  []string{"/etc", "/usr", "/bin", "/sbin"},
			MaxExecutionSecs: 30,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the per-user configuration directory, creating it on
// first use.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".codechat")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// SessionsDir returns the directory holding session transcripts.
func SessionsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	sessions := filepath.Join(dir, "sessions")
	if err := os.MkdirAll(sessions, 0700); err != nil {
		return "", fmt.Errorf("create sessions directory: %w", err)
	}
	return sessions, nil
}

func tomlPath(dir string) string { return filepath.Join(dir, "config.toml") }
func jsonPath(dir string) string { return filepath.Join(dir, "config.json") }

// =============================================================================
// LOAD
// =============================================================================

// Load reads the config from the default directory. A missing file is
// not an error: defaults are returned (and not written until Save).
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads the config from dir, trying TOML then JSON.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{}

	switch {
	case exists(tomlPath(dir)):
		if _, err := toml.DecodeFile(tomlPath(dir), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", tomlPath(dir), err)
		}
	case exists(jsonPath(dir)):
		data, err := os.ReadFile(jsonPath(dir))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", jsonPath(dir), err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", jsonPath(dir), err)
		}
	default:
		cfg = Default()
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyEnvOverrides lets CODECHAT_* variables win over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CODECHAT_ENDPOINT"); v != "" {
		c.Ollama.Endpoint = v
	}
	if v := os.Getenv("CODECHAT_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("CODECHAT_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ollama.TimeoutSecs = n
		}
	}
	if v := os.Getenv("CODECHAT_VERBOSE"); v == "1" || v == "true" {
		c.UI.VerboseOutput = true
	}
}

// fillDefaults replaces zero values with defaults so partial files keep
// working.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Ollama.Endpoint == "" {
		c.Ollama.Endpoint = def.Ollama.Endpoint
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = def.Ollama.Model
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = def.Ollama.TimeoutSecs
	}
	if c.Ollama.MaxTokens == 0 {
		c.Ollama.MaxTokens = def.Ollama.MaxTokens
	}
	if c.Ollama.Temperature == 0 {
		c.Ollama.Temperature = def.Ollama.Temperature
	}
	if c.Generation.DefaultLanguage == "" {
		c.Generation.DefaultLanguage = def.Generation.DefaultLanguage
	}
	if c.Generation.DefaultFramework == "" {
		c.Generation.DefaultFramework = def.Generation.DefaultFramework
	}
	if c.Generation.OutputDirectory == "" {
		c.Generation.OutputDirectory = def.Generation.OutputDirectory
	}
	if len(c.Review.EnabledRules) == 0 {
		c.Review.EnabledRules = def.Review.EnabledRules
	}
	if c.Review.Severity == "" {
		c.Review.Severity = def.Review.Severity
	}
	if c.Review.ReportFormat == "" {
		c.Review.ReportFormat = def.Review.ReportFormat
	}
	if c.Execution.TimeoutMillis == 0 {
		c.Execution.TimeoutMillis = def.Execution.TimeoutMillis
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if len(c.Security.RestrictedPaths) == 0 {
		c.Security.RestrictedPaths = def.Security.RestrictedPaths
	}
	if c.Security.MaxExecutionSecs == 0 {
		c.Security.MaxExecutionSecs = def.Security.MaxExecutionSecs
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one bad field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every bad field so the user sees the full
// list at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field, returning ValidationErrors listing all
// problems or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if !strings.HasPrefix(c.Ollama.Endpoint, "http://") && !strings.HasPrefix(c.Ollama.Endpoint, "https://") {
		errs = append(errs, ValidationError{"ollama.endpoint", "must start with http:// or https://"})
	}
	if c.Ollama.Model == "" {
		errs = append(errs, ValidationError{"ollama.model", "must not be empty"})
	}
	if c.Ollama.TimeoutSecs < 1 || c.Ollama.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{"ollama.timeout_secs", "must be between 1 and 3600"})
	}
	if c.Ollama.MaxTokens < 1 {
		errs = append(errs, ValidationError{"ollama.max_tokens", "must be positive"})
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		errs = append(errs, ValidationError{"ollama.temperature", "must be between 0 and 2"})
	}
	switch c.Review.Severity {
	case "info", "warning", "error":
	default:
		errs = append(errs, ValidationError{"review.severity", "must be info, warning, or error"})
	}
	switch c.Review.ReportFormat {
	case "markdown", "json", "text":
	default:
		errs = append(errs, ValidationError{"review.report_format", "must be markdown, json, or text"})
	}
	if c.Execution.TimeoutMillis < 100 {
		errs = append(errs, ValidationError{"execution.timeout_millis", "must be at least 100"})
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", "must be auto, dark, or light"})
	}
	if c.Security.MaxExecutionSecs < 1 {
		errs = append(errs, ValidationError{"security.max_execution_secs", "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	var v ValidationError
	return errors.As(err, &ve) || errors.As(err, &v)
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the TOML form to the default directory.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return c.SaveTo(dir)
}

// SaveTo writes config.toml into dir atomically with 0600.
func (c *Config) SaveTo(dir string) error {
	var buf bytes.Buffer
	buf.WriteString("# codechat configuration\n")
	buf.WriteString("# edit by hand or via: codechat config --set key=value\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFile(tomlPath(dir), buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
