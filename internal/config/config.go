package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/johnwards/treeseed/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TREESEED"

// Config holds application configuration. Values come from, in increasing
// priority: defaults, an optional config file, environment variables.
type Config struct {
	DBPath    string        // TREESEED_DB, default "treeseed.db"
	Instances int           // TREESEED_INSTANCES, default 10
	Catalog   string        // TREESEED_CATALOG, optional; empty uses the embedded catalog
	LogLevel  string        // TREESEED_LOG_LEVEL, default "info"
	LogFormat string        // TREESEED_LOG_FORMAT, "text" or "json", default "text"
	RedisAddr string        // TREESEED_REDIS_ADDR, optional; empty disables the run lock
	LockTTL   time.Duration // TREESEED_LOCK_TTL, default 5m
	Addr      string        // TREESEED_ADDR, default ":8080"
	AuthToken string        // TREESEED_AUTH_TOKEN, optional
}

// Load reads configuration from the environment and, when configFile is not
// empty, from that YAML or TOML file.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("db", "treeseed.db")
	v.SetDefault("instances", 10)
	v.SetDefault("catalog", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("redis_addr", "")
	v.SetDefault("lock_ttl", "5m")
	v.SetDefault("addr", ":8080")
	v.SetDefault("auth_token", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		DBPath:    v.GetString("db"),
		Instances: v.GetInt("instances"),
		Catalog:   v.GetString("catalog"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
		RedisAddr: v.GetString("redis_addr"),
		LockTTL:   v.GetDuration("lock_ttl"),
		Addr:      v.GetString("addr"),
		AuthToken: v.GetString("auth_token"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no command can work with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.Instances < 1 {
		return fmt.Errorf("instances must be at least 1, got %d", c.Instances)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock ttl must be positive, got %s", c.LockTTL)
	}
	return nil
}
