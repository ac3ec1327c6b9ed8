package kv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/storage"
)

// resource names a family of keys.
type resource string

const (
	resourceUsers resource = "user"
	resourcePosts resource = "posts"
)

// lookup is the key-value query descriptor: a resource and the condition
// selecting within it. Its key encoding never leaves this package.
type lookup struct {
	resource  resource
	condition string
}

func userLookup(username string) lookup {
	return lookup{resource: resourceUsers, condition: username}
}

func postsLookup(recipient string) lookup {
	return lookup{resource: resourcePosts, condition: recipient}
}

// key encodes the lookup. The condition is escaped so a username can never
// reach into another user's collection.
func (l lookup) key() string {
	return string(l.resource) + ":" + url.PathEscape(l.condition)
}

func (l lookup) String() string {
	return fmt.Sprintf("%s[%s]", l.resource, l.condition)
}

// Code is the status a completion signal carries.
type Code int

const (
	// CodeOK means the payload holds the requested values.
	CodeOK Code = iota
	// CodeNotFound means the key does not exist.
	CodeNotFound
	// CodeUnavailable means the backend could not serve the lookup.
	CodeUnavailable
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNotFound:
		return "not_found"
	case CodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// classify turns a client error into a completion code.
func classify(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrKeyNotFound):
		return CodeNotFound
	default:
		return CodeUnavailable
	}
}

// translate maps a completion code and its cause into the storage taxonomy.
func translate(code Code, cause error) error {
	switch code {
	case CodeOK:
		return nil
	case CodeNotFound:
		return storage.ErrNotFound
	default:
		if cause == nil {
			return storage.ErrBackendUnavailable
		}
		if errors.Is(cause, context.DeadlineExceeded) {
			return fmt.Errorf("%w: timeout: %w", storage.ErrBackendUnavailable, cause)
		}
		return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, cause)
	}
}

func decodeUser(payload []byte, username string) (*core.User, error) {
	user, err := storage.UnmarshalUser(payload)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateUser(user); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrMapping, err)
	}
	if user.Username != username {
		return nil, fmt.Errorf("%w: stored username %q under key for %q", storage.ErrMapping, user.Username, username)
	}
	return user, nil
}

func decodePosts(payload [][]byte) ([]*core.Post, error) {
	posts := make([]*core.Post, 0, len(payload))
	for i, raw := range payload {
		post, err := storage.UnmarshalPost(raw)
		if err != nil {
			return nil, fmt.Errorf("post %d: %w", i, err)
		}
		if err := core.ValidatePost(post); err != nil {
			return nil, fmt.Errorf("%w: post %d: %w", storage.ErrMapping, i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
