package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, client *memClient) {
	t.Helper()
	repo := NewRepository(client)
	ctx := context.Background()
	require.NoError(t, repo.PutUsers(ctx,
		&core.User{Username: "alice", PasswordHash: "hash-a"},
		&core.User{Username: "bob", PasswordHash: "hash-b"},
	))
	require.NoError(t, repo.AppendPosts(ctx,
		&core.Post{Author: "bob", Recipient: "alice", Content: "first"},
		&core.Post{Author: "carol", Recipient: "bob", Content: "elsewhere"},
		&core.Post{Author: "carol", Recipient: "alice", Content: "second"},
	))
}

func TestLookupKey(t *testing.T) {
	assert.Equal(t, "user:alice", userLookup("alice").key())
	assert.Equal(t, "posts:alice", postsLookup("alice").key())
	assert.NotEqual(t, postsLookup("a/b").key(), postsLookup("a").key()+"/b")
	assert.Equal(t, "posts[alice]", postsLookup("alice").String())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CodeOK, classify(nil))
	assert.Equal(t, CodeNotFound, classify(ErrKeyNotFound))
	assert.Equal(t, CodeNotFound, classify(errors.Join(errors.New("ctx"), ErrKeyNotFound)))
	assert.Equal(t, CodeUnavailable, classify(errors.New("connection refused")))
	assert.Equal(t, CodeUnavailable, classify(context.DeadlineExceeded))
	assert.Equal(t, "not_found", CodeNotFound.String())
}

func TestRepository_FindUserByUsername(t *testing.T) {
	client := newMemClient()
	seed(t, client)
	repo := NewRepository(client)
	ctx := context.Background()

	user, err := repo.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &core.User{Username: "alice", PasswordHash: "hash-a"}, user)

	_, err = repo.FindUserByUsername(ctx, "dave")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.True(t, storage.IsRecoverable(err))

	var opErr *storage.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "mem", opErr.Backend)
	assert.Equal(t, "find_user", opErr.Op)
}

func TestRepository_FindPostsForRecipient(t *testing.T) {
	client := newMemClient()
	seed(t, client)
	repo := NewRepository(client)
	ctx := context.Background()

	posts, err := repo.FindPostsForRecipient(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0].Content)
	assert.Equal(t, "bob", posts[0].Author)
	assert.Equal(t, "second", posts[1].Content)

	none, err := repo.FindPostsForRecipient(ctx, "dave")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRepository_MappingFailure(t *testing.T) {
	client := newMemClient()
	client.values["user:mallory"] = []byte{0xFF, 0x01}
	client.values["user:eve"] = storage.MarshalUser(&core.User{Username: "eve", PasswordHash: ""})
	client.values["user:trent"] = storage.MarshalUser(&core.User{Username: "someone-else", PasswordHash: "h"})
	client.lists["posts:alice"] = [][]byte{storage.MarshalPost(&core.Post{Author: "a", Recipient: "alice"}), {}}
	repo := NewRepository(client)
	ctx := context.Background()

	for _, name := range []string{"mallory", "eve", "trent"} {
		_, err := repo.FindUserByUsername(ctx, name)
		assert.ErrorIs(t, err, storage.ErrMapping, name)
		assert.False(t, storage.IsRecoverable(err), name)
	}

	_, err := repo.FindPostsForRecipient(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrMapping)
}

func TestRepository_BackendFailure(t *testing.T) {
	client := newMemClient()
	client.err = errors.New("connection reset")
	repo := NewRepository(client)

	_, err := repo.FindUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
	assert.NotErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.FindPostsForRecipient(context.Background(), "alice")
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
}

func TestRepository_Timeout(t *testing.T) {
	client := newMemClient()
	client.block = make(chan struct{})
	defer close(client.block)
	repo := NewRepository(client, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := repo.FindUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRepository_SeederValidates(t *testing.T) {
	client := newMemClient()
	repo := NewRepository(client)
	ctx := context.Background()

	err := repo.PutUsers(ctx, &core.User{Username: "ok", PasswordHash: "h"}, &core.User{Username: " "})
	assert.ErrorIs(t, err, core.ErrInvalidUser)
	assert.Empty(t, client.values, "nothing is written when any user is invalid")

	err = repo.AppendPosts(ctx, &core.Post{Author: "a"})
	assert.ErrorIs(t, err, core.ErrInvalidPost)
}

func TestRepository_Close(t *testing.T) {
	client := newMemClient()
	repo := NewRepository(client)
	require.NoError(t, repo.Close())
	assert.True(t, client.isClosed())
}

func TestRepository_PartialWrites(t *testing.T) {
	diskFull := errors.New("disk full")
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		client := newMemClient()
		client.writeErr = diskFull
		client.writesLeft = 2
		repo := NewRepository(client)

		err := repo.PutUsers(ctx,
			&core.User{Username: "a", PasswordHash: "h"},
			&core.User{Username: "b", PasswordHash: "h"},
			&core.User{Username: "c", PasswordHash: "h"},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
		assert.ErrorIs(t, err, diskFull)
		assert.Equal(t, 2, storage.Written(err))

		user, err := repo.FindUserByUsername(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "b", user.Username)
	})

	t.Run("posts", func(t *testing.T) {
		client := newMemClient()
		client.writeErr = diskFull
		client.writesLeft = 1
		repo := NewRepository(client)

		err := repo.AppendPosts(ctx,
			&core.Post{Author: "x", Recipient: "alice", Content: "1"},
			&core.Post{Author: "x", Recipient: "alice", Content: "2"},
			&core.Post{Author: "x", Recipient: "bob", Content: "3"},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, diskFull)
		assert.Equal(t, 2, storage.Written(err), "alice's collection was stored")
	})

	t.Run("first write fails", func(t *testing.T) {
		client := newMemClient()
		client.writeErr = diskFull
		repo := NewRepository(client)

		err := repo.PutUsers(ctx, &core.User{Username: "a", PasswordHash: "h"})
		assert.ErrorIs(t, err, diskFull)
		assert.Zero(t, storage.Written(err))
		var pw *storage.PartialWriteError
		assert.False(t, errors.As(err, &pw))
	})
}
