// Package kv is the persistent key-value storage behind carts and wishlists.
//
// Every backend offers Update, an atomic read-modify-write over a single key.
// Callers never read, modify and Set in separate steps: two interleaved
// writers would otherwise clobber each other's snapshot.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("kv: key not found")
	ErrConflict = errors.New("kv: too many concurrent updates")
)

// maxUpdateAttempts bounds optimistic retries in the redis and sqlite backends.
const maxUpdateAttempts = 16

// UpdateFunc receives the current value (nil and false when the key is
// absent) and returns the value to store. A non-nil error aborts the update
// and is returned from Update unchanged.
type UpdateFunc func(old []byte, found bool) ([]byte, error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Options struct {
	Backend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SQLitePath string

	// TTL expires idle keys on backends that support it. Zero keeps keys forever.
	TTL time.Duration
}

// Open connects the backend named by opts.Backend and verifies it answers.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)

	switch opts.Backend {
	case "", BackendMemory:
		s = NewMemStore()
	case BackendRedis:
		s = NewRedisStore(newRedisClient(opts), opts.TTL)
	case BackendSQLite:
		s, err = OpenSQLite(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping %s kv: %w", opts.Backend, err)
	}
	return s, nil
}
