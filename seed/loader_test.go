package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/storage"
	"github.com/poiesic/dataport/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSeeder remembers the size of every call and can fail on one.
type recordingSeeder struct {
	userBatches []int
	postBatches []int
	failOnPost  int
	// partialUsers, when set, makes PutUsers store that many users of the
	// batch and then fail.
	partialUsers int
}

func (s *recordingSeeder) PutUsers(ctx context.Context, users ...*core.User) error {
	if s.partialUsers > 0 {
		return &storage.PartialWriteError{Written: s.partialUsers, Err: errors.New("disk full")}
	}
	s.userBatches = append(s.userBatches, len(users))
	return nil
}

func (s *recordingSeeder) AppendPosts(ctx context.Context, posts ...*core.Post) error {
	if s.failOnPost > 0 && len(s.postBatches)+1 == s.failOnPost {
		return errors.New("disk full")
	}
	s.postBatches = append(s.postBatches, len(posts))
	return nil
}

func makeUsers(n int) []*core.User {
	users := make([]*core.User, n)
	for i := range users {
		users[i] = &core.User{Username: fmt.Sprintf("user%d", i), PasswordHash: "h"}
	}
	return users
}

func makePosts(recipient string, n int) []*core.Post {
	posts := make([]*core.Post, n)
	for i := range posts {
		posts[i] = &core.Post{Author: "bob", Recipient: recipient, Content: fmt.Sprintf("post %d", i)}
	}
	return posts
}

func TestNewLoader_InvalidBatchSize(t *testing.T) {
	_, err := NewLoader(&recordingSeeder{}, WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestLoader_Batches(t *testing.T) {
	s := &recordingSeeder{}
	l, err := NewLoader(s, WithBatchSize(3))
	require.NoError(t, err)

	res, err := l.Load(context.Background(), makeUsers(4), makePosts("alice", 7))
	require.NoError(t, err)

	assert.Equal(t, Result{Users: 4, Posts: 7}, res)
	assert.Equal(t, []int{3, 1}, s.userBatches)
	assert.Equal(t, []int{3, 3, 1}, s.postBatches)
}

func TestLoader_Empty(t *testing.T) {
	s := &recordingSeeder{}
	l, err := NewLoader(s)
	require.NoError(t, err)

	res, err := l.Load(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, s.userBatches)
	assert.Empty(t, s.postBatches)
}

func TestLoader_PartialFailure(t *testing.T) {
	s := &recordingSeeder{failOnPost: 2}
	l, err := NewLoader(s, WithBatchSize(2))
	require.NoError(t, err)

	res, err := l.Load(context.Background(), makeUsers(1), makePosts("alice", 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append posts 2-4")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, Result{Users: 1, Posts: 2}, res)
}

func TestLoader_PartiallyAppliedBatch(t *testing.T) {
	s := &recordingSeeder{partialUsers: 2}
	l, err := NewLoader(s, WithBatchSize(5))
	require.NoError(t, err)

	res, err := l.Load(context.Background(), makeUsers(5), makePosts("alice", 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put users 0-5")
	assert.Equal(t, Result{Users: 2}, res)
	assert.Empty(t, s.postBatches, "posts are not written after a user failure")
}

func TestLoader_CanceledContext(t *testing.T) {
	s := &recordingSeeder{}
	l, err := NewLoader(s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Load(ctx, makeUsers(2), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.userBatches)
}

func TestLoader_PreservesPostOrderAcrossBatches(t *testing.T) {
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()

	l, err := NewLoader(repo, WithBatchSize(4))
	require.NoError(t, err)

	posts := makePosts("alice", 10)
	_, err = l.Load(context.Background(), []*core.User{{Username: "alice", PasswordHash: "h"}}, posts)
	require.NoError(t, err)

	got, err := repo.FindPostsForRecipient(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, p := range got {
		assert.Equal(t, fmt.Sprintf("post %d", i), p.Content)
	}
}

func TestLoader_Progress(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoader(&recordingSeeder{}, WithBatchSize(5), WithProgress(&buf, 5))
	require.NoError(t, err)

	_, err = l.Load(context.Background(), makeUsers(5), makePosts("alice", 5))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "5/10")
	assert.Contains(t, out, "10/10 (100.0%)")
	assert.Contains(t, out, "\n")
}
