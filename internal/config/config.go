// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the engine configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Similarity thresholds
	ExperienceThreshold float64 `json:"experience_threshold,omitempty"` // Duplicate cutoff for experience/education entries (0.0-1.0)
	SkillThreshold      float64 `json:"skill_threshold,omitempty"`      // Duplicate cutoff for skill tokens (0.0-1.0)

	// Pipeline
	Stages           []string `json:"stages,omitempty"`             // Ordered stage names; empty uses the default set
	StageTimeoutSecs int      `json:"stage_timeout_secs,omitempty"` // Per-stage timeout in seconds
	Template         string   `json:"template,omitempty"`           // Default template id for select_template
	OutputDir        string   `json:"output_dir,omitempty"`         // Directory for rendered documents

	// Persistence. DatabaseURL wins over SQLitePath; neither means in-memory.
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty"`  // Local SQLite checkpoint file

	// Behavior
	APIKey         string `json:"api_key,omitempty"`         // Gemini API key
	EmbeddingModel string `json:"embedding_model,omitempty"` // Gemini embedding model name
	Verbose        bool   `json:"verbose,omitempty"`         // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.ExperienceThreshold < 0 || c.ExperienceThreshold > 1 {
		return fmt.Errorf("config error: 'experience_threshold' must be between 0 and 1")
	}
	if c.SkillThreshold < 0 || c.SkillThreshold > 1 {
		return fmt.Errorf("config error: 'skill_threshold' must be between 0 and 1")
	}
	if c.StageTimeoutSecs < 0 {
		return fmt.Errorf("config error: 'stage_timeout_secs' must be non-negative")
	}
	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return fmt.Errorf("config error: 'database_url' and 'sqlite_path' are mutually exclusive")
	}
	return nil
}

// StageTimeout returns the configured per-stage timeout, zero when unset so
// the pipeline applies its own default.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSecs) * time.Second
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}

	// Numeric fields: use default if zero
	if result.ExperienceThreshold == 0 {
		result.ExperienceThreshold = defaults.ExperienceThreshold
	}
	if result.SkillThreshold == 0 {
		result.SkillThreshold = defaults.SkillThreshold
	}
	if result.StageTimeoutSecs == 0 {
		result.StageTimeoutSecs = defaults.StageTimeoutSecs
	}

	if len(result.Stages) == 0 {
		result.Stages = defaults.Stages
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
