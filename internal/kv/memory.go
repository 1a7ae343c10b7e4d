package kv

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps values in process memory. Values never expire.
type Memory struct{ c *gocache.Cache }

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, 0)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Close() error { return nil }
