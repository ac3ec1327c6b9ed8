package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Post IDs are derived from content so identical posts share an ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// User is an account record as returned by any backend.
// Records are immutable once fetched; adapters build a fresh value per call.
type User struct {
	Username     string // Unique key
	PasswordHash string // Encoded hash produced by an auth.Hasher
}

// Post is a message addressed to a recipient.
// Sequences of posts keep the order the backend reports.
type Post struct {
	Id        ID
	Author    string
	Recipient string
	Content   string
}

// Tuple returns a string representation of the post as "(Author,Recipient,Content)".
// This is used for generating deterministic IDs.
func (p *Post) Tuple() string {
	return "(" + p.Author + "," + p.Recipient + "," + p.Content + ")"
}

// EnsureID assigns a content-derived ID when none is set.
func (p *Post) EnsureID() {
	if p.Id == 0 {
		p.Id = IDFromContent(p.Tuple())
	}
}
