// Package auth checks credentials against users fetched through the data port.
package auth

import (
	"context"
	"log/slog"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/future"
	"github.com/poiesic/dataport/storage"
)

// Service authenticates users. It depends only on the data port and works
// the same over synchronous (lifted) and asynchronous adapters.
type Service struct {
	port   storage.AsyncRepository
	hasher Hasher
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHasher sets the password hasher. Defaults to bcrypt at default cost.
func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an authentication service over port.
func NewService(port storage.AsyncRepository, opts ...Option) *Service {
	s := &Service{
		port:   port,
		hasher: BcryptHasher{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// Authenticate resolves true when password matches the stored hash of
// username. An unknown user or an unavailable backend resolves false.
// Mapping failures and unreadable hashes fail the Future.
func (s *Service) Authenticate(ctx context.Context, username, password string) *future.Future[bool] {
	lookup := s.port.FindUserByUsername(ctx, username)

	verified := future.Map(lookup, func(user *core.User) (bool, error) {
		ok, err := s.hasher.Verify(user.PasswordHash, password)
		if err != nil {
			return false, err
		}
		if !ok {
			s.logger.Info("authentication rejected", "username", username)
		}
		return ok, nil
	})

	return verified.Catch(func(err error) (bool, error) {
		switch {
		case storage.IsMapping(err):
			s.logger.Error("user record unusable", "username", username, "error", err)
			return false, err
		case storage.IsNotFound(err):
			s.logger.Info("unknown user", "username", username)
			return false, nil
		case storage.IsBackendUnavailable(err):
			s.logger.Warn("backend unavailable during authentication", "username", username, "error", err)
			return false, nil
		default:
			return false, err
		}
	})
}

// AuthenticateSync blocks until Authenticate settles or ctx is done.
func (s *Service) AuthenticateSync(ctx context.Context, username, password string) (bool, error) {
	return s.Authenticate(ctx, username, password).Await(ctx)
}
