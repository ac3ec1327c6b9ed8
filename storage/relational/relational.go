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

// Package relational implements storage.Repository on a SQL database through
// sqlx. SQLite (modernc), PostgreSQL via pgx and PostgreSQL via lib/pq are
// supported. Every call acquires a dedicated connection and releases it on
// all exit paths.
package relational

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/poiesic/dataport/config"
	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/retry"
	"github.com/poiesic/dataport/storage"
	_ "modernc.org/sqlite"
)

// Repository is the synchronous relational adapter.
type Repository struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  *slog.Logger
}

var (
	_ storage.Repository = (*Repository)(nil)
	_ storage.Seeder     = (*Repository)(nil)
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	timeout time.Duration
	connect retry.Policy
	logger  *slog.Logger
}

// WithTimeout bounds every query. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithConnectRetry sets the retry policy used while pinging the database in Open.
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

func buildOptions(opts []Option) options {
	o := options{
		timeout: 5 * time.Second,
		connect: retry.Policy{MaxAttempts: 1},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open connects to the database described by cfg and verifies the connection,
// retrying per the connect policy. It does not create the schema; call Migrate.
func Open(ctx context.Context, cfg config.SQLConfig, opts ...Option) (*Repository, error) {
	o := buildOptions(opts)

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	attempt := 0
	err = o.connect.Do(ctx, func() error {
		attempt++
		pingCtx, cancel := withTimeout(ctx, o.timeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			o.logger.Warn("database ping failed", "driver", cfg.Driver, "attempt", attempt, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", storage.ErrBackendUnavailable, cfg.Driver, err)
	}

	return newRepository(db, o), nil
}

// New wraps an existing connection pool. The repository takes ownership of db
// and closes it on Close.
func New(db *sqlx.DB, opts ...Option) *Repository {
	return newRepository(db, buildOptions(opts))
}

func newRepository(db *sqlx.DB, o options) *Repository {
	return &Repository{
		db:      db,
		timeout: o.timeout,
		logger:  o.logger.With("component", "relational", "driver", db.DriverName()),
	}
}

// FindUserByUsername implements storage.Repository.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	const op = "find_user"
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, r.opError(op, unavailable(err))
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(ctx, conn.Rebind(findUserQuery), username)
	if err != nil {
		return nil, r.opError(op, unavailable(err))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, r.opError(op, unavailable(err))
		}
		return nil, r.opError(op, storage.ErrNotFound)
	}

	var row userRow
	if err := rows.StructScan(&row); err != nil {
		return nil, r.opError(op, mapping(err))
	}
	user, err := row.toUser()
	if err != nil {
		return nil, r.opError(op, err)
	}
	return user, nil
}

// FindPostsForRecipient implements storage.Repository. Posts come back in the
// order they were appended.
func (r *Repository) FindPostsForRecipient(ctx context.Context, username string) ([]*core.Post, error) {
	const op = "find_posts"
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, r.opError(op, unavailable(err))
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(ctx, conn.Rebind(findPostsQuery), username)
	if err != nil {
		return nil, r.opError(op, unavailable(err))
	}
	defer rows.Close()

	posts := []*core.Post{}
	for rows.Next() {
		var row postRow
		if err := rows.StructScan(&row); err != nil {
			return nil, r.opError(op, mapping(err))
		}
		post, err := row.toPost()
		if err != nil {
			return nil, r.opError(op, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, r.opError(op, unavailable(err))
	}
	return posts, nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) opError(op string, err error) error {
	r.logger.Debug("query failed", "op", op, "error", err)
	return storage.NewOpError(r.db.DriverName(), op, err)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
