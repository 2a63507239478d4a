package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/hrops/registry/internal/core/rules"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) error {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Decision.Provider == "" {
		cfg.Decision.Provider = "gemini"
	}
	if cfg.Decision.Model == "" {
		cfg.Decision.Model = "gemini-2.0-flash"
	}
	if cfg.Decision.RetryCount == 0 {
		cfg.Decision.RetryCount = 3
	}

	var err error
	if cfg.Decision.Timeout, err = parseDuration(cfg.Decision.TimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("invalid decision.timeout: %w", err)
	}
	if cfg.Decision.RetryDelay, err = parseDuration(cfg.Decision.RetryDelayS, 2*time.Second); err != nil {
		return fmt.Errorf("invalid decision.retry_delay: %w", err)
	}
	if cfg.Processing.ScanInterval, err = parseDuration(cfg.Processing.ScanIntervalStr, time.Hour); err != nil {
		return fmt.Errorf("invalid processing.scan_interval: %w", err)
	}
	if cfg.Processing.BackupRetention, err = parseDuration(cfg.Processing.BackupRetentionStr, 0); err != nil {
		return fmt.Errorf("invalid processing.backup_retention: %w", err)
	}

	if cfg.Processing.Concurrency == 0 {
		cfg.Processing.Concurrency = 4
	}
	if cfg.Processing.BackupDirectory == "" {
		cfg.Processing.BackupDirectory = "backups"
	}

	if cfg.Rules == (rules.Thresholds{}) {
		cfg.Rules = rules.DefaultThresholds()
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
