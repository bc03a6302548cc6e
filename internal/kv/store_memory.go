package kv

import (
	"bytes"
	"context"
	"sync"
)

// MemStore keeps values in process memory. Update holds the lock across fn,
// so fn must not call back into the store.
type MemStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string][]byte{}}
}

func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = bytes.Clone(value)
	return nil
}

func (s *MemStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, found := s.m[key]
	next, err := fn(bytes.Clone(old), found)
	if err != nil {
		return err
	}
	s.m[key] = bytes.Clone(next)
	return nil
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Close() error { return nil }
