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

// Package future provides a one-shot deferred result for asynchronous operations.
//
// A Future starts pending and settles exactly once, either fulfilled with a value
// or failed with an error. The producing side holds a Promise and settles it; the
// consuming side registers continuations on the Future.
//
// # Continuations
//
// Continuations registered before settlement run exactly once, in registration
// order, on the goroutine that settles the Future. Continuations registered after
// settlement run immediately with the stored outcome.
//
//	user := repo.FindUserByUsername(ctx, "alice")
//	ok := future.Map(user, func(u *core.User) (bool, error) {
//	    return verify(u)
//	}).Catch(func(err error) (bool, error) {
//	    return false, nil
//	})
//
// Then flattens: when a continuation returns another Future, the derived Future
// settles with the inner outcome instead of nesting. A failure at any step skips
// every later Then and Map until the nearest Catch.
//
// # Blocking
//
// Await blocks until settlement or context cancellation. It exists for synchronous
// callers such as command-line tools and tests; asynchronous code should chain.
package future
