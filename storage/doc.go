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

// Package storage provides the data port: the retrieval contract consumer
// services depend on, independent of the backend that serves it.
//
// Two contract shapes exist. Repository is synchronous and returns records
// directly. AsyncRepository returns a future.Future that settles later. An
// adapter implements exactly one shape; Lift presents a synchronous adapter
// through the asynchronous shape so consumers can be written once.
//
// # Adapters
//
//   - relational.Repository: SQL backends (SQLite, PostgreSQL), synchronous
//   - kv.Repository: key-value backends (BadgerDB, Redis), synchronous
//   - kv.AsyncRepository: key-value backends served from a worker pool
//
// The encoding of a query is private to each adapter. Consumers only ever see
// usernames in and records out.
//
// # Errors
//
// Every adapter translates backend failures into one taxonomy:
//
//   - ErrNotFound: the record does not exist
//   - ErrBackendUnavailable: connection, execution or timeout failure
//   - ErrMapping: backend data does not fit the record type
//
// Synchronous adapters return these errors; asynchronous adapters fail the
// Future with them. Errors are wrapped in OpError to carry the backend and
// operation; test with errors.Is.
//
// # Thread Safety
//
// All implementations must be thread-safe. Shared connection state is
// read-only after construction.
package storage
