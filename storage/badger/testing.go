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

package badger

import "github.com/poiesic/dataport/storage/kv"

// NewMemoryRepository creates a synchronous repository over an in-memory
// backend for testing. Closing the repository closes the backend.
func NewMemoryRepository(opts ...kv.Option) (*kv.Repository, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return kv.NewRepository(backend, opts...), nil
}

// NewMemoryAsyncRepository creates an asynchronous repository over an
// in-memory backend for testing. Closing the repository closes the backend.
func NewMemoryAsyncRepository(opts ...kv.Option) (*kv.AsyncRepository, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	repo, err := kv.NewAsyncRepository(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repo, nil
}
