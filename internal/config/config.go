// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Default engine settings
	Defaults struct {
		ScoreThreshold    float64  `yaml:"score_threshold"`
		SessionTTLSeconds int      `yaml:"session_ttl_seconds"`
		SessionStorePath  string   `yaml:"session_store_path"` // bbolt path; empty keeps sessions in memory
		DisabledEntities  []string `yaml:"disabled_entities"`
		Debug             bool     `yaml:"debug"`
	} `yaml:"defaults"`

	// Neural holds the zero-shot tagger sidecar settings (L2).
	Neural struct {
		Enabled        bool   `yaml:"enabled"`
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"neural"`

	// Reviewer holds the generative reviewer settings (L3).
	Reviewer struct {
		Enabled        bool   `yaml:"enabled"`
		Endpoint       string `yaml:"endpoint"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"reviewer"`

	// CustomPatterns are user-registered recognizers loaded at startup.
	CustomPatterns []CustomPattern `yaml:"custom_patterns"`
}

// CustomPattern is one runtime-registered recognizer pattern.
type CustomPattern struct {
	Name    string  `yaml:"name"`
	Pattern string  `yaml:"pattern"`
	Score   float64 `yaml:"score"`
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set default values
	config.Defaults.ScoreThreshold = 0.4
	config.Defaults.SessionTTLSeconds = 3600
	config.Neural.Endpoint = "http://localhost:8001"
	config.Neural.TimeoutSeconds = 10
	config.Reviewer.Endpoint = "http://localhost:11434"
	config.Reviewer.Model = "llama3.1"
	config.Reviewer.TimeoutSeconds = 60

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	for _, name := range []string{"config.yaml", "pii-redact.yaml", "pii-redact.yml", ".pii-redact.yaml"} {
		if fileExists(name) {
			return name
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		candidate := filepath.Join(xdgConfig, "pii-redact", name)
		if fileExists(candidate) {
			return candidate
		}
	}

	return ""
}

// LoadConfigOrDefault loads configuration from configFile (or searches
// standard locations when configFile is empty). If loading fails, it
// returns a default configuration — callers should not crash on a
// missing or bad config file.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg, _ = LoadConfig("")
	}
	return cfg
}

// ValidateConfig validates value ranges
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if config.Defaults.ScoreThreshold < 0 || config.Defaults.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be between 0.0 and 1.0, got %v", config.Defaults.ScoreThreshold)
	}
	if config.Defaults.SessionTTLSeconds < 0 {
		return fmt.Errorf("session_ttl_seconds cannot be negative")
	}
	for _, p := range config.CustomPatterns {
		if p.Name == "" || p.Pattern == "" {
			return fmt.Errorf("custom patterns need both name and pattern")
		}
		if p.Score < 0 || p.Score > 1 {
			return fmt.Errorf("custom pattern %q score must be between 0.0 and 1.0", p.Name)
		}
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
