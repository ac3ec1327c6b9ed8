package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/dataport/config"
	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/retry"
	"github.com/poiesic/dataport/storage"
	"github.com/poiesic/dataport/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAddrEnv names a Redis server for integration tests.
const testAddrEnv = "DATAPORT_TEST_REDIS_ADDR"

func openTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv(testAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", testAddrEnv)
	}
	client, err := Open(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestOpen_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Open(ctx, config.RedisConfig{Addr: "127.0.0.1:1"},
		WithConnectRetry(retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}))
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
}

func TestClient_GetPut(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { client.rdb.Del(ctx, key) })

	_, err := client.Get(ctx, key)
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	require.NoError(t, client.Put(ctx, key, []byte{0x01, 0x00, 0xFF}))
	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0xFF}, value)
}

func TestClient_AppendRange(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { client.rdb.Del(ctx, key) })

	empty, err := client.Range(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, client.Append(ctx, key, []byte("a"), []byte("b")))
	require.NoError(t, client.Append(ctx, key))
	require.NoError(t, client.Append(ctx, key, []byte("c")))

	values, err := client.Range(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, values)
}

func TestClient_Repository(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	name := "user-" + uuid.NewString()
	t.Cleanup(func() { client.rdb.Del(ctx, "user:"+name, "posts:"+name) })

	repo := kv.NewRepository(client)
	require.NoError(t, repo.PutUsers(ctx, &core.User{Username: name, PasswordHash: "h"}))
	require.NoError(t, repo.AppendPosts(ctx, &core.Post{Author: "a", Recipient: name, Content: "hi"}))

	user, err := repo.FindUserByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "h", user.PasswordHash)

	posts, err := repo.FindPostsForRecipient(ctx, name)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hi", posts[0].Content)
}
