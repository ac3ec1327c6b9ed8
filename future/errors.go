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

package future

import "errors"

var (
	// ErrPanic is returned when a continuation panics.
	// The panic value is included in the wrapped error message.
	ErrPanic = errors.New("continuation panicked")

	// ErrNilFuture is returned when a Then continuation returns a nil Future.
	ErrNilFuture = errors.New("continuation returned nil future")

	// ErrNilFailure is used when a Promise is failed with a nil error.
	ErrNilFailure = errors.New("future failed without an error")
)
