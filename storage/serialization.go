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

package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/dataport/core"
)

// recordFormat prefixes every encoded record so incompatible payloads fail
// to decode instead of producing garbage fields.
const recordFormat byte = 1

// userMUS encodes a User as (username, password hash).
type userMUS struct{}

func (userMUS) Marshal(u core.User, bs []byte) (n int) {
	n = ord.String.Marshal(u.Username, bs)
	return n + ord.String.Marshal(u.PasswordHash, bs[n:])
}

func (userMUS) Unmarshal(bs []byte) (u core.User, n int, err error) {
	u.Username, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	u.PasswordHash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (userMUS) Size(u core.User) int {
	return ord.String.Size(u.Username) + ord.String.Size(u.PasswordHash)
}

// postMUS encodes a Post as (id, author, recipient, content).
type postMUS struct{}

func (postMUS) Marshal(p core.Post, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(p.Id), bs)
	n += ord.String.Marshal(p.Author, bs[n:])
	n += ord.String.Marshal(p.Recipient, bs[n:])
	return n + ord.String.Marshal(p.Content, bs[n:])
}

func (postMUS) Unmarshal(bs []byte) (p core.Post, n int, err error) {
	var id uint64
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	p.Id = core.ID(id)
	var n1 int
	for _, field := range []*string{&p.Author, &p.Recipient, &p.Content} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (postMUS) Size(p core.Post) int {
	return varint.Uint64.Size(uint64(p.Id)) +
		ord.String.Size(p.Author) +
		ord.String.Size(p.Recipient) +
		ord.String.Size(p.Content)
}

var (
	userSer = userMUS{}
	postSer = postMUS{}
)

// MarshalUser serializes a User to bytes.
func MarshalUser(user *core.User) []byte {
	buf := make([]byte, 1+userSer.Size(*user))
	buf[0] = recordFormat
	userSer.Marshal(*user, buf[1:])
	return buf
}

// UnmarshalUser deserializes a User from bytes.
// Failures wrap ErrMapping.
func UnmarshalUser(data []byte) (*core.User, error) {
	body, err := checkFormat(data)
	if err != nil {
		return nil, err
	}
	user, n, err := userSer.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrMapping, ErrSerializationFailed, err)
	}
	if n != len(body) {
		return nil, fmt.Errorf("%w: %w: %d trailing bytes", ErrMapping, ErrSerializationFailed, len(body)-n)
	}
	return &user, nil
}

// MarshalPost serializes a Post to bytes.
func MarshalPost(post *core.Post) []byte {
	buf := make([]byte, 1+postSer.Size(*post))
	buf[0] = recordFormat
	postSer.Marshal(*post, buf[1:])
	return buf
}

// UnmarshalPost deserializes a Post from bytes.
// Failures wrap ErrMapping.
func UnmarshalPost(data []byte) (*core.Post, error) {
	body, err := checkFormat(data)
	if err != nil {
		return nil, err
	}
	post, n, err := postSer.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrMapping, ErrSerializationFailed, err)
	}
	if n != len(body) {
		return nil, fmt.Errorf("%w: %w: %d trailing bytes", ErrMapping, ErrSerializationFailed, len(body)-n)
	}
	return &post, nil
}

func checkFormat(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w: empty payload", ErrMapping, ErrSerializationFailed)
	}
	if data[0] != recordFormat {
		return nil, fmt.Errorf("%w: %w: unknown record format %d", ErrMapping, ErrSerializationFailed, data[0])
	}
	return data[1:], nil
}
