package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a Client when a key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Client is the minimal key-value surface the adapter needs.
// Implementations must be thread-safe.
type Client interface {
	// Name identifies the backend in errors and metrics, e.g. "badger".
	Name() string

	// Get returns the value stored under key.
	// Returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Range returns the values of the ordered collection stored under key,
	// in append order. A missing collection yields an empty slice.
	Range(ctx context.Context, key string) ([][]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Append adds values to the end of the collection under key.
	Append(ctx context.Context, key string, values ...[]byte) error

	// Close releases the connection.
	Close() error
}
