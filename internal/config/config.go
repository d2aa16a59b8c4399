package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/maintd/internal/core/escalation"
)

// DefaultPath is where LoadConfig looks when no path is given, relative to
// the working directory.
const DefaultPath = ".maintd/config.yaml"

// Config represents the maintd configuration file.
type Config struct {
	EscalationThresholdHours int    `yaml:"escalation_threshold_hours"`
	MaxEscalationLevel       int    `yaml:"max_escalation_level"`
	SweepIntervalMinutes     int    `yaml:"sweep_interval_minutes"`
	EscalatedPolicy          string `yaml:"escalated_policy"`        // "continue" or "pause"
	DatabasePath             string `yaml:"database_path,omitempty"` // empty means ~/.maintd/maintd.db
	LogLevel                 string `yaml:"log_level"`               // debug, info, warn, error
	LogFormat                string `yaml:"log_format"`              // console or json
	MetricsAddr              string `yaml:"metrics_addr,omitempty"`  // empty disables /metrics
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		EscalationThresholdHours: 24,
		MaxEscalationLevel:       escalation.DefaultMaxLevel,
		SweepIntervalMinutes:     60,
		EscalatedPolicy:          string(escalation.PolicyContinue),
		LogLevel:                 "info",
		LogFormat:                "console",
	}
}

// LoadConfig reads the YAML config at path, filling unset fields with
// defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects values the escalation engine cannot run with.
func (c *Config) Validate() error {
	if c.EscalationThresholdHours <= 0 {
		return fmt.Errorf("escalation_threshold_hours must be positive, got %d", c.EscalationThresholdHours)
	}
	if c.MaxEscalationLevel < 0 {
		return fmt.Errorf("max_escalation_level must not be negative, got %d", c.MaxEscalationLevel)
	}
	if c.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("sweep_interval_minutes must be positive, got %d", c.SweepIntervalMinutes)
	}
	if _, err := escalation.ParsePolicy(c.EscalatedPolicy); err != nil {
		return err
	}
	return nil
}

// Rules converts the config into escalation rules.
func (c *Config) Rules() escalation.Rules {
	policy, err := escalation.ParsePolicy(c.EscalatedPolicy)
	if err != nil {
		policy = escalation.PolicyContinue
	}
	return escalation.Rules{
		Threshold: time.Duration(c.EscalationThresholdHours) * time.Hour,
		MaxLevel:  c.MaxEscalationLevel,
		Policy:    policy,
	}
}

// SweepInterval returns the scheduler cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}
