package relational

import (
	"fmt"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/storage"
)

const (
	findUserQuery = `SELECT username, password_hash FROM users WHERE username = ?`

	findPostsQuery = `SELECT id, author, recipient, content FROM posts
		WHERE recipient = ? ORDER BY position`

	upsertUserQuery = `INSERT INTO users (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`

	maxPositionQuery = `SELECT COALESCE(MAX(position), 0) FROM posts WHERE recipient = ?`

	insertPostQuery = `INSERT INTO posts (recipient, position, id, author, content)
		VALUES (?, ?, ?, ?, ?)`
)

// userRow is the scan target for the users table.
type userRow struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

func (r userRow) toUser() (*core.User, error) {
	user := &core.User{Username: r.Username, PasswordHash: r.PasswordHash}
	if err := core.ValidateUser(user); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrMapping, err)
	}
	return user, nil
}

// postRow is the scan target for the posts table. IDs are stored as signed
// 64-bit integers and reinterpreted.
type postRow struct {
	ID        int64  `db:"id"`
	Author    string `db:"author"`
	Recipient string `db:"recipient"`
	Content   string `db:"content"`
}

func (r postRow) toPost() (*core.Post, error) {
	post := &core.Post{
		Id:        core.ID(uint64(r.ID)),
		Author:    r.Author,
		Recipient: r.Recipient,
		Content:   r.Content,
	}
	if err := core.ValidatePost(post); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrMapping, err)
	}
	return post, nil
}
