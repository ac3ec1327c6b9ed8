package relational

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/poiesic/dataport/core"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		recipient TEXT    NOT NULL,
		position  INTEGER NOT NULL,
		id        BIGINT  NOT NULL,
		author    TEXT    NOT NULL,
		content   TEXT    NOT NULL,
		PRIMARY KEY (recipient, position)
	)`,
}

// Migrate creates the users and posts tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return r.opError("migrate", unavailable(err))
		}
	}
	return nil
}

// PutUsers implements storage.Seeder.
func (r *Repository) PutUsers(ctx context.Context, users ...*core.User) error {
	for _, user := range users {
		if err := core.ValidateUser(user); err != nil {
			return err
		}
	}
	return r.inTx(ctx, "put_users", func(ctx context.Context, tx *sqlx.Tx) error {
		query := tx.Rebind(upsertUserQuery)
		for _, user := range users {
			if _, err := tx.ExecContext(ctx, query, user.Username, user.PasswordHash); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendPosts implements storage.Seeder. Each post takes the next position in
// its recipient's feed.
func (r *Repository) AppendPosts(ctx context.Context, posts ...*core.Post) error {
	for _, post := range posts {
		if err := core.ValidatePost(post); err != nil {
			return err
		}
		post.EnsureID()
	}
	return r.inTx(ctx, "append_posts", func(ctx context.Context, tx *sqlx.Tx) error {
		next := make(map[string]int64)
		insert := tx.Rebind(insertPostQuery)
		for _, post := range posts {
			pos, ok := next[post.Recipient]
			if !ok {
				var last int64
				if err := tx.GetContext(ctx, &last, tx.Rebind(maxPositionQuery), post.Recipient); err != nil {
					return err
				}
				pos = last
			}
			pos++
			next[post.Recipient] = pos

			_, err := tx.ExecContext(ctx, insert,
				post.Recipient, pos, int64(post.Id), post.Author, post.Content)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// inTx runs fn in a transaction on a dedicated connection. fn receives the
// context bounded by the repository timeout and must use it for every statement.
func (r *Repository) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return r.opError(op, unavailable(err))
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return r.opError(op, unavailable(err))
	}
	if err := tx.Commit(); err != nil {
		return r.opError(op, unavailable(fmt.Errorf("commit: %w", err)))
	}
	return nil
}
