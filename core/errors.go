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

import "errors"

// Domain validation errors
var (
	// ErrInvalidUser indicates a User failed validation.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidPost indicates a Post failed validation.
	ErrInvalidPost = errors.New("invalid post")

	// ErrEmptyUsername indicates the Username field is empty.
	ErrEmptyUsername = errors.New("username cannot be empty")

	// ErrEmptyPasswordHash indicates the PasswordHash field is empty.
	ErrEmptyPasswordHash = errors.New("password hash cannot be empty")

	// ErrEmptyRecipient indicates the post Recipient field is empty.
	ErrEmptyRecipient = errors.New("recipient cannot be empty")

	// ErrEmptyAuthor indicates the post Author field is empty.
	ErrEmptyAuthor = errors.New("author cannot be empty")
)
