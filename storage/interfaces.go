package storage

import (
	"context"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/future"
)

// Repository is the synchronous data port. Calls block the caller for the
// duration of the backend call.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindUserByUsername retrieves a single user by username.
	// Returns ErrNotFound if no such user exists.
	FindUserByUsername(ctx context.Context, username string) (*core.User, error)

	// FindPostsForRecipient retrieves the posts addressed to username.
	// Results keep the order the backend reports. A recipient with no posts
	// yields an empty slice, not ErrNotFound.
	FindPostsForRecipient(ctx context.Context, username string) ([]*core.Post, error)

	// Close releases backend resources.
	Close() error
}

// AsyncRepository is the asynchronous data port. Calls return a pending
// Future immediately and never block on the backend.
// Implementations must be thread-safe and support concurrent access.
type AsyncRepository interface {
	// FindUserByUsername retrieves a single user by username.
	// The Future fails with ErrNotFound if no such user exists.
	FindUserByUsername(ctx context.Context, username string) *future.Future[*core.User]

	// FindPostsForRecipient retrieves the posts addressed to username.
	// Results keep the order the backend reports.
	FindPostsForRecipient(ctx context.Context, username string) *future.Future[[]*core.Post]

	// Close releases backend resources.
	Close() error
}

// Seeder writes records into a backend. It is used to bootstrap data and in
// tests; consumer services never write.
type Seeder interface {
	// PutUsers creates or replaces users keyed by username.
	PutUsers(ctx context.Context, users ...*core.User) error

	// AppendPosts appends posts to their recipients' feeds in argument order.
	// Posts with a zero ID receive a content-derived ID.
	AppendPosts(ctx context.Context, posts ...*core.Post) error
}
