package storage

import (
	"context"
	"errors"
)

// Storage is the durable key/value store behind the cart and preferences.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")

type scoped struct {
	prefix string
	inner  Storage
}

// Scoped namespaces every key of inner under prefix, so per-session callers can keep using fixed key names.
func Scoped(inner Storage, prefix string) Storage {
	return &scoped{prefix: prefix, inner: inner}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}
