// Package config loads runtime configuration from the environment, with an
// optional YAML overlay pointed at by CONFIG_PATH.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Storage backend selection
	StorageBackend string `yaml:"storage_backend"`
	SQLitePath     string `yaml:"sqlite_path"`
	PostgresURL    string `yaml:"postgres_url"`

	// AMQP notification delivery; empty URL falls back to log-only delivery
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Scheduling
	AnalysisCron      string `yaml:"analysis_cron"`
	WeeklySummaryCron string `yaml:"weekly_summary_cron"`
	RunOnStart        bool   `yaml:"run_on_start"`

	// Backup
	BackupPath string `yaml:"backup_path"`
}

// Load reads configuration from the environment. When CONFIG_PATH names a
// YAML file its values are applied first, so environment variables win.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          "info",
		StorageBackend:    "memory",
		SQLitePath:        "./data/budgetpulse.db",
		AMQPExchange:      "budgetpulse",
		AMQPQueue:         "notifications",
		AnalysisCron:      "0 8 * * *",
		WeeklySummaryCron: "0 9 * * 0",
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg.LogLevel, "LOG_LEVEL")
	applyEnv(&cfg.StorageBackend, "STORAGE_BACKEND")
	applyEnv(&cfg.SQLitePath, "SQLITE_PATH")
	applyEnv(&cfg.PostgresURL, "POSTGRES_URL")
	applyEnv(&cfg.AMQPURL, "AMQP_URL")
	applyEnv(&cfg.AMQPExchange, "AMQP_EXCHANGE")
	applyEnv(&cfg.AMQPQueue, "AMQP_QUEUE")
	applyEnv(&cfg.AnalysisCron, "ANALYSIS_CRON")
	applyEnv(&cfg.WeeklySummaryCron, "WEEKLY_SUMMARY_CRON")
	applyEnv(&cfg.BackupPath, "BACKUP_PATH")
	applyEnvBool(&cfg.RunOnStart, "RUN_ON_START")

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StorageBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}

	if c.StorageBackend == "sqlite" {
		if c.SQLitePath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLitePath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.StorageBackend == "postgres" && c.PostgresURL == "" {
		errors = append(errors, "Postgres URL cannot be empty when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if err := validateCron(c.AnalysisCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid analysis cron '%s': %v", c.AnalysisCron, err))
	}
	if err := validateCron(c.WeeklySummaryCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid weekly summary cron '%s': %v", c.WeeklySummaryCron, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// validateCron checks the field count only; full parsing happens when the
// entry is registered with the scheduler.
func validateCron(spec string) error {
	if fields := strings.Fields(spec); len(fields) != 5 {
		return fmt.Errorf("expected 5 fields, got %d", len(strings.Fields(spec)))
	}
	return nil
}

func applyEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func applyEnvBool(target *bool, key string) {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			*target = b
		}
	}
}
