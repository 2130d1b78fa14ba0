package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/treeseed/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB", "INSTANCES", "CATALOG", "LOG_LEVEL", "LOG_FORMAT", "REDIS_ADDR", "LOCK_TTL", "ADDR", "AUTH_TOKEN"} {
		t.Setenv(config.EnvPrefix+"_"+k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "treeseed.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.Instances)
	assert.Empty(t, cfg.Catalog)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.AuthToken)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TREESEED_DB", "/tmp/test.db")
	t.Setenv("TREESEED_INSTANCES", "3")
	t.Setenv("TREESEED_LOG_FORMAT", "JSON")
	t.Setenv("TREESEED_REDIS_ADDR", "localhost:6379")
	t.Setenv("TREESEED_LOCK_TTL", "30s")
	t.Setenv("TREESEED_ADDR", "127.0.0.1:9090")
	t.Setenv("TREESEED_AUTH_TOKEN", "secret")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.Instances)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr)
	assert.Equal(t, "secret", cfg.AuthToken)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TREESEED_INSTANCES", "7")

	path := filepath.Join(t.TempDir(), "treeseed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: file.db\ninstances: 4\nlog_level: debug\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file.db", cfg.DBPath)
	assert.Equal(t, 7, cfg.Instances, "environment overrides the file")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "treeseed.toml")
	require.NoError(t, os.WriteFile(path, []byte("db = \"toml.db\"\nlock_ttl = \"1m\"\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "toml.db", cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.LockTTL)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]struct {
		key, value string
	}{
		"zero instances": {"TREESEED_INSTANCES", "0"},
		"bad format":     {"TREESEED_LOG_FORMAT", "xml"},
		"bad level":      {"TREESEED_LOG_LEVEL", "verbose"},
		"zero ttl":       {"TREESEED_LOCK_TTL", "0s"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}
