package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "budgetpulse", cfg.AMQPExchange)
	assert.Equal(t, "0 8 * * *", cfg.AnalysisCron)
	assert.False(t, cfg.RunOnStart)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("RUN_ON_START", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.StorageBackend)
	assert.True(t, cfg.RunOnStart)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("log_level: warn\nanalysis_cron: \"30 7 * * *\"\n")
	require.NoError(t, os.WriteFile(path, content, 0644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "30 7 * * *", cfg.AnalysisCron)
	assert.Equal(t, "memory", cfg.StorageBackend, "unset keys keep their defaults")
}

func TestEnvironmentWinsOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
}

func TestValidateRejects(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = "cassandra"
		assert.ErrorContains(t, cfg.Validate(), "invalid storage backend")
	})

	t.Run("postgres without url", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = "postgres"
		assert.ErrorContains(t, cfg.Validate(), "Postgres URL")
	})

	t.Run("bad amqp scheme", func(t *testing.T) {
		cfg := base()
		cfg.AMQPURL = "http://localhost:5672"
		assert.ErrorContains(t, cfg.Validate(), "AMQP URL scheme")
	})

	t.Run("bad cron spec", func(t *testing.T) {
		cfg := base()
		cfg.AnalysisCron = "hourly"
		assert.ErrorContains(t, cfg.Validate(), "invalid analysis cron")
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := base()
		cfg.LogLevel = "verbose"
		assert.ErrorContains(t, cfg.Validate(), "invalid log level")
	})
}
