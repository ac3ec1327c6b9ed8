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

// Package dataport wires one storage adapter into the authentication and feed
// services.
package dataport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/dataport/auth"
	"github.com/poiesic/dataport/config"
	"github.com/poiesic/dataport/feed"
	"github.com/poiesic/dataport/metrics"
	"github.com/poiesic/dataport/retry"
	"github.com/poiesic/dataport/storage"
	"github.com/poiesic/dataport/storage/badger"
	"github.com/poiesic/dataport/storage/kv"
	"github.com/poiesic/dataport/storage/redis"
	"github.com/poiesic/dataport/storage/relational"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the active data port and the services built on it.
type App struct {
	port    storage.AsyncRepository
	seeder  storage.Seeder
	auth    *auth.Service
	feed    *feed.Service
	backend string
	logger  *slog.Logger
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer sets where metrics are registered when cfg.Metrics is on.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *appOptions) {
		if reg != nil {
			o.registerer = reg
		}
	}
}

// Open builds exactly one adapter for cfg.Backend and injects the same data
// port into the authentication and feed services. A nil cfg means
// config.DefaultConfig().
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := appOptions{
		logger:     slog.Default(),
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	hasher, err := auth.NewHasher(cfg.Hasher)
	if err != nil {
		return nil, err
	}

	port, seeder, backend, err := openPort(ctx, cfg, o.logger)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics {
		collector, err := metrics.NewCollector(o.registerer)
		if err != nil {
			port.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		port = metrics.Instrument(port, backend, collector)
	}

	o.logger.Info("data port ready", "backend", backend, "async", cfg.Async && cfg.Backend != config.BackendRelational)

	return &App{
		port:    port,
		seeder:  seeder,
		auth:    auth.NewService(port, auth.WithHasher(hasher), auth.WithLogger(o.logger)),
		feed:    feed.NewService(port, feed.WithPreviewWidth(cfg.Feed.PreviewWidth), feed.WithLogger(o.logger)),
		backend: backend,
		logger:  o.logger,
	}, nil
}

// openPort returns the data port, a seeder writing to the same backend, and
// the backend label.
func openPort(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.AsyncRepository, storage.Seeder, string, error) {
	policy := retry.Policy{
		MaxAttempts: cfg.Connect.MaxAttempts,
		BaseDelay:   cfg.Connect.RetryDelay,
		MaxDelay:    cfg.Connect.MaxDelay,
	}

	var client kv.Client
	switch cfg.Backend {
	case config.BackendRelational:
		repo, err := relational.Open(ctx, cfg.SQL,
			relational.WithTimeout(cfg.Timeout),
			relational.WithConnectRetry(policy),
			relational.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, "", err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, nil, "", err
		}
		return storage.Lift(repo), repo, cfg.SQL.Driver, nil

	case config.BackendBadger:
		backend, err := badger.OpenBackend(cfg.Badger.Path, cfg.Badger.InMemory, badger.WithLogger(logger))
		if err != nil {
			return nil, nil, "", fmt.Errorf("%w: open badger: %w", storage.ErrBackendUnavailable, err)
		}
		client = backend

	case config.BackendRedis:
		rc, err := redis.Open(ctx, cfg.Redis,
			redis.WithConnectRetry(policy),
			redis.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, "", err
		}
		client = rc

	default:
		return nil, nil, "", fmt.Errorf("%w: %q", config.ErrBackendUnknown, cfg.Backend)
	}

	kvOpts := []kv.Option{
		kv.WithTimeout(cfg.Timeout),
		kv.WithPoolSize(cfg.Pool.Size),
		kv.WithLogger(logger),
	}
	seeder := kv.NewRepository(client, kvOpts...)
	if !cfg.Async {
		return storage.Lift(seeder), seeder, client.Name(), nil
	}

	async, err := kv.NewAsyncRepository(client, kvOpts...)
	if err != nil {
		client.Close()
		return nil, nil, "", err
	}
	return async, seeder, client.Name(), nil
}

// Close releases the data port and its backend.
func (a *App) Close() error {
	if err := a.port.Close(); err != nil {
		a.logger.Error("error closing data port", "backend", a.backend, "err", err)
		return err
	}
	return nil
}

// Auth returns the authentication service.
func (a *App) Auth() *auth.Service {
	return a.auth
}

// Feed returns the feed service.
func (a *App) Feed() *feed.Service {
	return a.feed
}

// Seeder returns a writer for the active backend.
func (a *App) Seeder() storage.Seeder {
	return a.seeder
}

// Port returns the data port shared by the services.
func (a *App) Port() storage.AsyncRepository {
	return a.port
}

// Backend names the active backend, e.g. "sqlite" or "badger".
func (a *App) Backend() string {
	return a.backend
}
