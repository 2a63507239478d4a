package config

import (
	"time"

	"github.com/hrops/registry/internal/core/rules"
	redisclient "github.com/hrops/registry/internal/infra/redis"
	"github.com/hrops/registry/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Database   postgres.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Logging    LoggingConfig      `yaml:"logging"`
	Decision   DecisionConfig     `yaml:"decision"`
	Processing ProcessingConfig   `yaml:"processing"`
	Rules      rules.Thresholds   `yaml:"rules"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DecisionConfig holds settings for the external decision provider.
type DecisionConfig struct {
	Provider    string `yaml:"provider"` // gemini, baseline
	Model       string `yaml:"model"`
	APIKey      string `yaml:"api_key"`
	TimeoutStr  string `yaml:"timeout"`
	RetryCount  int    `yaml:"retry_count"`
	RetryDelayS string `yaml:"retry_delay"`

	// Parsed from the string fields in Load.
	Timeout    time.Duration `yaml:"-"`
	RetryDelay time.Duration `yaml:"-"`
}

// ProcessingConfig holds pass scheduling and commit safety settings.
type ProcessingConfig struct {
	Concurrency        int    `yaml:"concurrency"`
	ScanIntervalStr    string `yaml:"scan_interval"`
	BackupBeforeUpdate *bool  `yaml:"backup_before_update"`
	BackupDirectory    string `yaml:"backup_directory"`
	BackupRetentionStr string `yaml:"backup_retention"` // 0 keeps every dump

	ScanInterval    time.Duration `yaml:"-"`
	BackupRetention time.Duration `yaml:"-"`
}

// BackupEnabled resolves the backup flag, defaulting to true.
func (p ProcessingConfig) BackupEnabled() bool {
	if p.BackupBeforeUpdate == nil {
		return true
	}
	return *p.BackupBeforeUpdate
}
