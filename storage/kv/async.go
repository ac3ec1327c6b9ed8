package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/future"
	"github.com/poiesic/dataport/storage"
)

// poolReleaseTimeout bounds how long Close waits for in-flight lookups.
const poolReleaseTimeout = 5 * time.Second

// completion is the signal a worker raises when a lookup finishes.
// It fires exactly once per call.
type completion func(payload [][]byte, code Code, cause error)

// AsyncRepository is the asynchronous key-value adapter. Lookups run on a
// bounded worker pool; every call returns a pending Future without waiting
// on the backend.
type AsyncRepository struct {
	client  Client
	pool    *ants.Pool
	timeout time.Duration
	logger  *slog.Logger
	closed  atomic.Bool
}

var _ storage.AsyncRepository = (*AsyncRepository)(nil)

// NewAsyncRepository creates an asynchronous adapter over client. The
// repository takes ownership of the client and closes it on Close.
//
// The pool size bounds concurrent backend calls. Lookups issued while every
// worker is busy wait for a free worker off the calling goroutine; the
// per-call timeout covers that wait.
func NewAsyncRepository(client Client, opts ...Option) (*AsyncRepository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.poolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", o.poolSize)
	}

	pool, err := ants.NewPool(o.poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &AsyncRepository{
		client:  client,
		pool:    pool,
		timeout: o.timeout,
		logger:  o.logger.With("component", "kv", "backend", client.Name(), "mode", "async"),
	}, nil
}

// FindUserByUsername implements storage.AsyncRepository.
func (r *AsyncRepository) FindUserByUsername(ctx context.Context, username string) *future.Future[*core.User] {
	const op = "find_user"
	p := future.NewPromise[*core.User]()

	l := userLookup(username)
	fetch := func(ctx context.Context) ([][]byte, error) {
		value, err := r.client.Get(ctx, l.key())
		if err != nil {
			return nil, err
		}
		return [][]byte{value}, nil
	}

	release := r.issue(ctx, l, fetch, func(payload [][]byte, code Code, cause error) {
		if err := translate(code, cause); err != nil {
			p.Fail(r.opError(op, err))
			return
		}
		user, err := decodeUser(payload[0], username)
		if err != nil {
			p.Fail(r.opError(op, err))
			return
		}
		p.Fulfill(user)
	})
	defer release()

	return p.Future()
}

// FindPostsForRecipient implements storage.AsyncRepository.
func (r *AsyncRepository) FindPostsForRecipient(ctx context.Context, username string) *future.Future[[]*core.Post] {
	const op = "find_posts"
	p := future.NewPromise[[]*core.Post]()

	l := postsLookup(username)
	fetch := func(ctx context.Context) ([][]byte, error) {
		return r.client.Range(ctx, l.key())
	}

	release := r.issue(ctx, l, fetch, func(payload [][]byte, code Code, cause error) {
		if err := translate(code, cause); err != nil {
			p.Fail(r.opError(op, err))
			return
		}
		posts, err := decodePosts(payload)
		if err != nil {
			p.Fail(r.opError(op, err))
			return
		}
		p.Fulfill(posts)
	})
	defer release()

	return p.Future()
}

// issue submits fetch to the pool and wires its outcome to done. The
// returned release func must run before the caller hands out its Future;
// until then the completion is held back, so settlement never happens on
// the issuing goroutine or ahead of the handle.
func (r *AsyncRepository) issue(ctx context.Context, l lookup, fetch func(context.Context) ([][]byte, error), done completion) (release func()) {
	callID := uuid.NewString()
	gate := make(chan struct{})
	release = func() { close(gate) }

	var once sync.Once
	signal := func(payload [][]byte, code Code, cause error) {
		once.Do(func() {
			<-gate
			r.logger.Debug("lookup settled", "call_id", callID, "lookup", l, "code", code)
			done(payload, code, cause)
		})
	}

	if r.closed.Load() {
		go signal(nil, CodeUnavailable, storage.ErrStorageClosed)
		return release
	}

	r.logger.Debug("lookup issued", "call_id", callID, "lookup", l)
	callCtx, cancel := withTimeout(ctx, r.timeout)
	task := func() {
		defer cancel()
		payload, err := fetch(callCtx)
		signal(payload, classify(err), err)
	}

	// Submit blocks while the pool is full, so it never runs on the caller.
	go func() {
		if err := r.pool.Submit(task); err != nil {
			cancel()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = storage.ErrStorageClosed
			}
			r.logger.Warn("lookup rejected", "call_id", callID, "lookup", l, "error", err)
			signal(nil, CodeUnavailable, err)
		}
	}()
	return release
}

// Close stops accepting lookups, waits for in-flight ones to settle, and
// closes the client.
func (r *AsyncRepository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	poolErr := r.pool.ReleaseTimeout(poolReleaseTimeout)
	if poolErr != nil {
		r.logger.Warn("worker pool did not drain", "error", poolErr)
	}
	return r.client.Close()
}

func (r *AsyncRepository) opError(op string, err error) error {
	return storage.NewOpError(r.client.Name(), op, err)
}
