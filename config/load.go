package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. DATAPORT_SQL_DSN.
const EnvPrefix = "DATAPORT"

// Load reads configuration from an optional file and the environment.
// Environment variables take precedence over file values, which take
// precedence over defaults. An empty path skips the file.
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("async", d.Async)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("metrics", d.Metrics)

	v.SetDefault("sql.driver", d.SQL.Driver)
	v.SetDefault("sql.dsn", d.SQL.DSN)
	v.SetDefault("sql.max_open_conns", d.SQL.MaxOpenConns)
	v.SetDefault("sql.max_idle_conns", d.SQL.MaxIdleConns)

	v.SetDefault("badger.path", d.Badger.Path)
	v.SetDefault("badger.in_memory", d.Badger.InMemory)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("pool.size", d.Pool.Size)

	v.SetDefault("connect.max_attempts", d.Connect.MaxAttempts)
	v.SetDefault("connect.retry_delay", d.Connect.RetryDelay)
	v.SetDefault("connect.max_delay", d.Connect.MaxDelay)

	v.SetDefault("hasher.algorithm", d.Hasher.Algorithm)
	v.SetDefault("hasher.cost", d.Hasher.Cost)

	v.SetDefault("feed.preview_width", d.Feed.PreviewWidth)
}
