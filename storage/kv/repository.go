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

// Package kv adapts a key-value Client to the storage ports. Users live under
// "user:<name>" and a recipient's posts under the ordered collection
// "posts:<name>".
package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/storage"
)

// Repository is the synchronous key-value adapter.
type Repository struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
}

var (
	_ storage.Repository = (*Repository)(nil)
	_ storage.Seeder     = (*Repository)(nil)
)

// Option configures a key-value adapter.
type Option func(*options)

type options struct {
	timeout  time.Duration
	poolSize int
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		timeout:  5 * time.Second,
		poolSize: 4,
		logger:   slog.Default(),
	}
}

// WithTimeout bounds every backend call. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithPoolSize sets the number of workers of an AsyncRepository.
// Ignored by Repository.
func WithPoolSize(size int) Option {
	return func(o *options) {
		o.poolSize = size
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

// NewRepository creates a synchronous adapter over client. The repository
// takes ownership of the client and closes it on Close.
func NewRepository(client Client, opts ...Option) *Repository {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository{
		client:  client,
		timeout: o.timeout,
		logger:  o.logger.With("component", "kv", "backend", client.Name()),
	}
}

// FindUserByUsername implements storage.Repository.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	const op = "find_user"
	l := userLookup(username)

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := r.client.Get(ctx, l.key())
	if err := translate(classify(err), err); err != nil {
		r.logger.Debug("lookup failed", "lookup", l, "error", err)
		return nil, r.opError(op, err)
	}
	user, err := decodeUser(payload, username)
	if err != nil {
		return nil, r.opError(op, err)
	}
	return user, nil
}

// FindPostsForRecipient implements storage.Repository.
func (r *Repository) FindPostsForRecipient(ctx context.Context, username string) ([]*core.Post, error) {
	const op = "find_posts"
	l := postsLookup(username)

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := r.client.Range(ctx, l.key())
	if err := translate(classify(err), err); err != nil {
		r.logger.Debug("lookup failed", "lookup", l, "error", err)
		return nil, r.opError(op, err)
	}
	posts, err := decodePosts(payload)
	if err != nil {
		return nil, r.opError(op, err)
	}
	return posts, nil
}

// PutUsers implements storage.Seeder. Users are stored one by one; a failure
// partway returns a storage.PartialWriteError.
func (r *Repository) PutUsers(ctx context.Context, users ...*core.User) error {
	for _, user := range users {
		if err := core.ValidateUser(user); err != nil {
			return err
		}
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	for i, user := range users {
		key := userLookup(user.Username).key()
		if err := r.client.Put(ctx, key, storage.MarshalUser(user)); err != nil {
			return r.writeError("put_users", i, err)
		}
	}
	return nil
}

// AppendPosts implements storage.Seeder. Posts are appended to their
// recipients' collections in argument order.
func (r *Repository) AppendPosts(ctx context.Context, posts ...*core.Post) error {
	byRecipient := make(map[string][][]byte)
	var recipients []string
	for _, post := range posts {
		if err := core.ValidatePost(post); err != nil {
			return err
		}
		post.EnsureID()
		if _, seen := byRecipient[post.Recipient]; !seen {
			recipients = append(recipients, post.Recipient)
		}
		byRecipient[post.Recipient] = append(byRecipient[post.Recipient], storage.MarshalPost(post))
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	written := 0
	for _, recipient := range recipients {
		values := byRecipient[recipient]
		if err := r.client.Append(ctx, postsLookup(recipient).key(), values...); err != nil {
			return r.writeError("append_posts", written, err)
		}
		written += len(values)
	}
	return nil
}

// Close closes the underlying client.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) opError(op string, err error) error {
	return storage.NewOpError(r.client.Name(), op, err)
}

// writeError wraps a failed write. Each Put or Append commits on its own, so
// records stored before the failure stay and are reported.
func (r *Repository) writeError(op string, written int, err error) error {
	err = r.opError(op, fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err))
	if written == 0 {
		return err
	}
	return &storage.PartialWriteError{Written: written, Err: err}
}
