// Package redis implements kv.Client on a Redis server. Single values are
// plain strings; collections are lists extended with RPUSH.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
	"github.com/poiesic/dataport/config"
	"github.com/poiesic/dataport/retry"
	"github.com/poiesic/dataport/storage"
	"github.com/poiesic/dataport/storage/kv"
)

// Client adapts a go-redis client to kv.Client.
type Client struct {
	rdb    *goredis.Client
	logger *slog.Logger
}

var _ kv.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	connect retry.Policy
	logger  *slog.Logger
}

// WithConnectRetry sets the retry policy used while pinging the server in Open.
func WithConnectRetry(policy retry.Policy) Option {
	return func(o *options) {
		o.connect = policy
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open connects to the server described by cfg and pings it, retrying per
// the connect policy.
func Open(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Client, error) {
	o := options{
		connect: retry.Policy{MaxAttempts: 1},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := o.connect.Do(ctx, func() error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			o.logger.Warn("redis ping failed", "addr", cfg.Addr, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: connect redis %s: %w", storage.ErrBackendUnavailable, cfg.Addr, err)
	}

	return &Client{rdb: rdb, logger: o.logger}, nil
}

// New wraps an existing go-redis client.
func New(rdb *goredis.Client) *Client {
	return &Client{rdb: rdb, logger: slog.Default()}
}

// Name implements kv.Client.
func (c *Client) Name() string {
	return "redis"
}

// Get implements kv.Client.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, kv.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

// Range implements kv.Client.
func (c *Client) Range(ctx context.Context, key string) ([][]byte, error) {
	items, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(items))
	for i, item := range items {
		values[i] = []byte(item)
	}
	return values, nil
}

// Put implements kv.Client.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// Append implements kv.Client.
func (c *Client) Append(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return c.rdb.RPush(ctx, key, args...).Err()
}

// Close implements kv.Client.
func (c *Client) Close() error {
	return c.rdb.Close()
}
