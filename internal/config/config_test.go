package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every supported variable so the host environment can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(PathEnvVar, "")
	for name := range envKeys {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

// TestLoad tests layering of defaults, file and environment
func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "sqlite3", cfg.Store.Driver)
		assert.Equal(t, "./data/feedback.db", cfg.Store.Path)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
		assert.Equal(t, 50051, cfg.GRPC.Port)
		assert.False(t, cfg.GRPC.Reflection)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, uint32(5), cfg.Insight.BreakerFailures)
		assert.False(t, cfg.Insight.Enabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRPC_PORT", "6000")
		t.Setenv("GRPC_REFLECTION_ENABLED", "true")
		t.Setenv("APP_ENV", "production")
		t.Setenv("CACHE_TTL", "90s")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
		t.Setenv("INSIGHT_TEMPERATURE", "0.7")
		t.Setenv("UNRELATED_VARIABLE", "ignored")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 6000, cfg.GRPC.Port)
		assert.True(t, cfg.GRPC.Reflection)
		assert.Equal(t, "production", cfg.AppEnv)
		assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
		assert.True(t, cfg.Insight.Enabled())
		assert.Equal(t, "gpt-4o-mini", cfg.Insight.Model)
		assert.InDelta(t, 0.7, cfg.Insight.Temperature, 1e-6)
	})

	t.Run("file then environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: mongo
  mongo_uri: mongodb://localhost:27017
redis:
  addr: cache:6379
  ttl: 5m
grpc:
  port: 7000
`), 0o600))
		t.Setenv(PathEnvVar, path)
		t.Setenv("GRPC_PORT", "7001")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "mongo", cfg.Store.Driver)
		assert.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
		assert.Equal(t, "feedback", cfg.Store.MongoDatabase)
		assert.Equal(t, "cache:6379", cfg.Redis.Addr)
		assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
		assert.Equal(t, 7001, cfg.GRPC.Port)
	})

	t.Run("sqlite alias", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "SQLite")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "sqlite3", cfg.Store.Driver)
	})

	t.Run("validation", func(t *testing.T) {
		cases := map[string]map[string]string{
			"unknown driver":    {"DB_DRIVER": "postgres"},
			"mongo without uri": {"DB_DRIVER": "mongo"},
			"port out of range": {"GRPC_PORT": "70000"},
			"bad base url":      {"OPENAI_BASE_URL": "not a url"},
			"bad duration":      {"CACHE_TTL": "soon"},
		}

		for name, env := range cases {
			t.Run(name, func(t *testing.T) {
				clearEnv(t)
				for k, v := range env {
					t.Setenv(k, v)
				}

				_, err := Load()
				assert.Error(t, err)
			})
		}
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(PathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := Load()
		assert.ErrorContains(t, err, "load config file")
	})
}

// TestNewLogger tests logger selection by environment
func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := NewLogger(&Config{AppEnv: env})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
