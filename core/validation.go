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

package core

import (
	"fmt"
	"strings"
)

// ValidateUser validates a User according to domain rules.
//
// Validation rules:
//   - Username must not be empty or whitespace
//   - PasswordHash must not be empty
func ValidateUser(user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", ErrInvalidUser)
	}

	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyUsername)
	}

	if user.PasswordHash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyPasswordHash)
	}

	return nil
}

// ValidatePost validates a Post according to domain rules.
//
// Validation rules:
//   - Recipient must not be empty
//   - Author must not be empty
//
// Content may be empty; an empty post is still a post.
func ValidatePost(post *Post) error {
	if post == nil {
		return fmt.Errorf("%w: post is nil", ErrInvalidPost)
	}

	if strings.TrimSpace(post.Recipient) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyRecipient)
	}

	if strings.TrimSpace(post.Author) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyAuthor)
	}

	return nil
}
