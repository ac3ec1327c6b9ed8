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
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrBackendUnavailable indicates a connection, execution or timeout failure
	// in the backend.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMapping indicates backend data could not be mapped into a record type.
	// It signals a contract violation and is never converted into a default record.
	ErrMapping = errors.New("record mapping failed")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)

// OpError records the backend and operation behind a failure.
type OpError struct {
	Backend string // e.g. "sqlite", "badger"
	Op      string // e.g. "FindUserByUsername"
	Err     error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with backend and operation context.
// Returns nil when err is nil.
func NewOpError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Backend: backend, Op: op, Err: err}
}

// PartialWriteError reports a Seeder write that stored some records before
// failing. Backends whose writes are not transactional return it.
type PartialWriteError struct {
	Written int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%v (%d records written)", e.Err, e.Written)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Written returns how many records a failed write stored. It is zero unless
// err carries a PartialWriteError.
func Written(err error) int {
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		return pw.Written
	}
	return 0
}

// IsNotFound reports whether err is a not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBackendUnavailable reports whether err is a backend failure.
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsMapping reports whether err is a mapping failure.
func IsMapping(err error) bool {
	return errors.Is(err, ErrMapping)
}

// IsRecoverable reports whether a consumer may convert err into a domain outcome.
// Mapping failures are never recoverable.
func IsRecoverable(err error) bool {
	if err == nil || IsMapping(err) {
		return false
	}
	return IsNotFound(err) || IsBackendUnavailable(err)
}
