// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the explicit configuration value passed to adapters
// and the composition root. There is no process-wide configuration state.
package config

import (
	"fmt"
	"time"
)

// Supported backends.
const (
	BackendRelational = "relational"
	BackendBadger     = "badger"
	BackendRedis      = "redis"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// Supported password hashers.
const (
	HasherBcrypt  = "bcrypt"
	HasherBlake2b = "blake2b"
)

var (
	knownBackends = map[string]bool{BackendRelational: true, BackendBadger: true, BackendRedis: true}
	knownDrivers  = map[string]bool{DriverSQLite: true, DriverPgx: true, DriverPostgres: true}
	knownHashers  = map[string]bool{HasherBcrypt: true, HasherBlake2b: true}
)

// Config selects a backend and carries the parameters of every adapter.
type Config struct {
	// Backend is one of "relational", "badger" or "redis".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Async selects the asynchronous key-value adapter. Ignored for the
	// relational backend, which is synchronous.
	Async bool `mapstructure:"async" yaml:"async"`

	// Timeout bounds every backend call. A call exceeding it fails with
	// storage.ErrBackendUnavailable. Zero disables the bound.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	SQL     SQLConfig     `mapstructure:"sql" yaml:"sql"`
	Badger  BadgerConfig  `mapstructure:"badger" yaml:"badger"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Pool    PoolConfig    `mapstructure:"pool" yaml:"pool"`
	Connect ConnectConfig `mapstructure:"connect" yaml:"connect"`
	Hasher  HasherConfig  `mapstructure:"hasher" yaml:"hasher"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`

	// Metrics enables Prometheus instrumentation of the data port.
	Metrics bool `mapstructure:"metrics" yaml:"metrics"`
}

// SQLConfig configures the relational adapter.
type SQLConfig struct {
	// Driver is one of "sqlite", "pgx" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// DSN is the driver-specific data source name. For sqlite, a file path.
	DSN          string `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// BadgerConfig configures the BadgerDB key-value client.
type BadgerConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// RedisConfig configures the Redis key-value client.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// PoolConfig sizes the worker pool of the asynchronous adapter.
type PoolConfig struct {
	Size int `mapstructure:"size" yaml:"size"`
}

// ConnectConfig controls retries while establishing backend connections.
type ConnectConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// HasherConfig selects the password hasher.
type HasherConfig struct {
	// Algorithm is "bcrypt" or "blake2b".
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	// Cost is the bcrypt cost. Ignored by blake2b.
	Cost int `mapstructure:"cost" yaml:"cost"`
}

// FeedConfig configures feed rendering.
type FeedConfig struct {
	// PreviewWidth is the number of runes kept in an item preview.
	PreviewWidth int `mapstructure:"preview_width" yaml:"preview_width"`
}

// Option is a functional option for configuring a Config.
type Option func(*Config)

// WithBackend sets the backend name.
func WithBackend(backend string) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithSQL selects the relational backend with the given driver and DSN.
func WithSQL(driver, dsn string) Option {
	return func(c *Config) {
		c.Backend = BackendRelational
		c.SQL.Driver = driver
		c.SQL.DSN = dsn
	}
}

// WithBadgerPath selects the badger backend stored at path.
func WithBadgerPath(path string) Option {
	return func(c *Config) {
		c.Backend = BackendBadger
		c.Badger.Path = path
		c.Badger.InMemory = false
	}
}

// WithInMemoryBadger selects an in-memory badger backend.
func WithInMemoryBadger() Option {
	return func(c *Config) {
		c.Backend = BackendBadger
		c.Badger.InMemory = true
	}
}

// WithRedis selects the redis backend at addr.
func WithRedis(addr string) Option {
	return func(c *Config) {
		c.Backend = BackendRedis
		c.Redis.Addr = addr
	}
}

// WithAsync selects the asynchronous key-value adapter.
func WithAsync(async bool) Option {
	return func(c *Config) {
		c.Async = async
	}
}

// WithPoolSize sets the worker pool size of the asynchronous adapter.
func WithPoolSize(size int) Option {
	return func(c *Config) {
		c.Pool.Size = size
	}
}

// WithTimeout sets the per-call backend timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHasher selects the password hasher algorithm and bcrypt cost.
func WithHasher(algorithm string, cost int) Option {
	return func(c *Config) {
		c.Hasher.Algorithm = algorithm
		c.Hasher.Cost = cost
	}
}

// WithMetrics toggles Prometheus instrumentation.
func WithMetrics(enabled bool) Option {
	return func(c *Config) {
		c.Metrics = enabled
	}
}

// DefaultConfig returns a Config using an embedded SQLite file in the working
// directory and bcrypt hashing.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendRelational,
		Timeout: 5 * time.Second,
		SQL: SQLConfig{
			Driver:       DriverSQLite,
			DSN:          "dataport.db",
			MaxOpenConns: 8,
			MaxIdleConns: 2,
		},
		Badger: BadgerConfig{
			Path: "dataport.badger",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Pool: PoolConfig{
			Size: 4,
		},
		Connect: ConnectConfig{
			MaxAttempts: 3,
			RetryDelay:  200 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		},
		Hasher: HasherConfig{
			Algorithm: HasherBcrypt,
			Cost:      10,
		},
		Feed: FeedConfig{
			PreviewWidth: 40,
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithInMemoryBadger(),
//	    WithAsync(true),
//	)
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is valid and complete for the
// selected backend.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	if c.Timeout < 0 {
		return ErrTimeoutInvalid
	}

	switch c.Backend {
	case BackendRelational:
		if !knownDrivers[c.SQL.Driver] {
			return fmt.Errorf("%w: %q", ErrDriverUnknown, c.SQL.Driver)
		}
		if c.SQL.DSN == "" {
			return ErrDSNEmpty
		}
	case BackendBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			return ErrBadgerPathEmpty
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrRedisAddrEmpty
		}
	}

	if c.Async && c.Pool.Size < 1 {
		return ErrPoolSizeInvalid
	}
	if c.Connect.MaxAttempts < 1 {
		return ErrMaxAttemptsInvalid
	}
	if !knownHashers[c.Hasher.Algorithm] {
		return fmt.Errorf("%w: %q", ErrHasherUnknown, c.Hasher.Algorithm)
	}
	if c.Feed.PreviewWidth < 1 {
		return ErrPreviewWidthInvalid
	}
	return nil
}
