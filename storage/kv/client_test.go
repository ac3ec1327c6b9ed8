package kv

import (
	"context"
	"sync"
)

// memClient is an in-process Client with injectable failures and latency.
type memClient struct {
	mu     sync.Mutex
	values map[string][]byte
	lists  map[string][][]byte
	closed bool

	// err, when set, fails every lookup.
	err error
	// block, when set, holds lookups until it is closed or ctx ends.
	block chan struct{}
	// started receives a value as each lookup begins.
	started chan struct{}
	// writeErr, when set, fails every Put or Append after writesLeft succeed.
	writeErr   error
	writesLeft int
}

var _ Client = (*memClient)(nil)

func newMemClient() *memClient {
	return &memClient{
		values: make(map[string][]byte),
		lists:  make(map[string][][]byte),
	}
}

func (c *memClient) Name() string { return "mem" }

func (c *memClient) wait(ctx context.Context) error {
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.err
}

func (c *memClient) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (c *memClient) Range(ctx context.Context, key string) ([][]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte{}, c.lists[key]...), nil
}

// write consumes one write from the budget. Callers hold c.mu.
func (c *memClient) write() error {
	if c.writeErr == nil {
		return nil
	}
	if c.writesLeft == 0 {
		return c.writeErr
	}
	c.writesLeft--
	return nil
}

func (c *memClient) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(); err != nil {
		return err
	}
	c.values[key] = value
	return nil
}

func (c *memClient) Append(_ context.Context, key string, values ...[]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(); err != nil {
		return err
	}
	c.lists[key] = append(c.lists[key], values...)
	return nil
}

func (c *memClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *memClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
