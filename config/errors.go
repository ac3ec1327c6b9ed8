package config

import "errors"

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrDriverUnknown       = errors.New("unknown sql driver")
	ErrDSNEmpty            = errors.New("sql dsn must not be empty")
	ErrBadgerPathEmpty     = errors.New("badger path must not be empty")
	ErrRedisAddrEmpty      = errors.New("redis addr must not be empty")
	ErrPoolSizeInvalid     = errors.New("pool size must be positive")
	ErrMaxAttemptsInvalid  = errors.New("connect max attempts must be positive")
	ErrTimeoutInvalid      = errors.New("timeout must not be negative")
	ErrHasherUnknown       = errors.New("unknown hasher")
	ErrPreviewWidthInvalid = errors.New("feed preview width must be positive")
)
