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

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/dataport/config"
	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and checks encoded password hashes.
// Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash returns the encoded hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A mismatch is (false, nil);
	// an error means the hash itself could not be checked.
	Verify(hash, password string) (bool, error)
}

// BcryptHasher hashes with bcrypt.
type BcryptHasher struct {
	Cost int
}

var _ Hasher = BcryptHasher{}

// Hash implements Hasher.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify implements Hasher.
func (h BcryptHasher) Verify(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: bcrypt: %w", ErrMalformedHash, err)
	}
}

const (
	blake2bScheme   = "blake2b"
	blake2bSaltSize = 16
	blake2bSize     = 32
)

// Blake2bHasher hashes with a BLAKE2b-256 digest keyed by a random salt.
// Encoded form: blake2b$<hex salt>$<hex digest>.
type Blake2bHasher struct{}

var _ Hasher = Blake2bHasher{}

// Hash implements Hasher.
func (Blake2bHasher) Hash(password string) (string, error) {
	salt := make([]byte, blake2bSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("blake2b: salt: %w", err)
	}
	digest, err := blake2bDigest(salt, password)
	if err != nil {
		return "", err
	}
	return blake2bScheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(digest), nil
}

// Verify implements Hasher.
func (Blake2bHasher) Verify(hash, password string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != blake2bScheme {
		return false, fmt.Errorf("%w: not a blake2b hash", ErrMalformedHash)
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false, fmt.Errorf("%w: blake2b salt", ErrMalformedHash)
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != blake2bSize {
		return false, fmt.Errorf("%w: blake2b digest", ErrMalformedHash)
	}

	got, err := blake2bDigest(salt, password)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func blake2bDigest(salt []byte, password string) ([]byte, error) {
	h, err := blake2b.New(blake2bSize, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: blake2b: %w", ErrMalformedHash, err)
	}
	h.Write([]byte(password))
	return h.Sum(nil), nil
}

// NewHasher builds the hasher selected by cfg.
func NewHasher(cfg config.HasherConfig) (Hasher, error) {
	switch cfg.Algorithm {
	case config.HasherBcrypt:
		return BcryptHasher{Cost: cfg.Cost}, nil
	case config.HasherBlake2b:
		return Blake2bHasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrHasherUnknown, cfg.Algorithm)
	}
}
