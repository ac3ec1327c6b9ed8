package auth

import "errors"

// ErrMalformedHash indicates a stored hash that a Hasher cannot parse.
// Authentication surfaces it rather than reporting a plain mismatch.
var ErrMalformedHash = errors.New("malformed password hash")
