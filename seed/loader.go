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

// Package seed bulk-loads users and posts through a storage.Seeder.
//
// Records are written in fixed-size batches so that a single backend
// transaction stays bounded no matter how large the input is. Posts keep
// their input order: batches are written one after another, never in
// parallel.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/storage"
)

// DefaultBatchSize is the number of records written per Seeder call.
const DefaultBatchSize = 256

// ErrInvalidBatchSize is returned by NewLoader for a batch size <= 0.
var ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

// Result counts what a Load call wrote.
type Result struct {
	Users int
	Posts int
}

// Loader writes seed data in batches.
type Loader struct {
	seeder    storage.Seeder
	batchSize int
	progress  io.Writer
	interval  int
	logger    *slog.Logger
}

type Option func(*Loader)

// WithBatchSize sets how many records go into one Seeder call.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		l.batchSize = n
	}
}

// WithProgress writes a status line to w every interval records.
func WithProgress(w io.Writer, interval int) Option {
	return func(l *Loader) {
		l.progress = w
		l.interval = interval
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader writing to seeder.
func NewLoader(seeder storage.Seeder, opts ...Option) (*Loader, error) {
	l := &Loader{
		seeder:    seeder,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.batchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	return l, nil
}

// Load writes all users, then all posts. On error the returned Result counts
// every record the backend stored, including the stored part of a batch that
// failed midway (see storage.PartialWriteError).
func (l *Loader) Load(ctx context.Context, users []*core.User, posts []*core.Post) (Result, error) {
	var res Result

	var progress *Progress
	if l.progress != nil {
		progress = NewProgress(l.progress, len(users)+len(posts), l.interval)
		progress.Start()
		defer progress.Finish()
	}

	err := forEachBatch(ctx, users, l.batchSize, func(batch []*core.User) error {
		if err := l.seeder.PutUsers(ctx, batch...); err != nil {
			start := res.Users
			res.Users += storage.Written(err)
			return fmt.Errorf("put users %d-%d: %w", start, start+len(batch), err)
		}
		res.Users += len(batch)
		if progress != nil {
			progress.Add(len(batch))
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	err = forEachBatch(ctx, posts, l.batchSize, func(batch []*core.Post) error {
		if err := l.seeder.AppendPosts(ctx, batch...); err != nil {
			start := res.Posts
			res.Posts += storage.Written(err)
			return fmt.Errorf("append posts %d-%d: %w", start, start+len(batch), err)
		}
		res.Posts += len(batch)
		if progress != nil {
			progress.Add(len(batch))
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	l.logger.Debug("seed complete", "users", res.Users, "posts", res.Posts, "batch_size", l.batchSize)
	return res, nil
}

// forEachBatch calls fn with consecutive slices of at most size items.
func forEachBatch[T any](ctx context.Context, items []T, size int, fn func([]T) error) error {
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(items))
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}
