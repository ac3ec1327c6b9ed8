package storage

import (
	"context"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/future"
)

// syncPort presents a Repository through the AsyncRepository shape.
type syncPort struct {
	repo Repository
}

var _ AsyncRepository = (*syncPort)(nil)

// Lift adapts a synchronous Repository to AsyncRepository. Each call still
// blocks for the backend call and returns an already-settled Future, so
// consumers written against AsyncRepository work unchanged with sync adapters.
func Lift(repo Repository) AsyncRepository {
	return &syncPort{repo: repo}
}

func (s *syncPort) FindUserByUsername(ctx context.Context, username string) *future.Future[*core.User] {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return future.Failed[*core.User](err)
	}
	return future.Fulfilled(user)
}

func (s *syncPort) FindPostsForRecipient(ctx context.Context, username string) *future.Future[[]*core.Post] {
	posts, err := s.repo.FindPostsForRecipient(ctx, username)
	if err != nil {
		return future.Failed[[]*core.Post](err)
	}
	return future.Fulfilled(posts)
}

func (s *syncPort) Close() error {
	return s.repo.Close()
}
