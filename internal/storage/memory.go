package storage

import (
	"context"
	"slices"

	"github.com/debemdeboas/autosave/internal/cache"
)

// MemoryStore keeps autosaves for the lifetime of the process.
type MemoryStore struct {
	items *cache.Cache[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.NewCache[string, []byte]()}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.items.Set(key, slices.Clone(value))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.items.Clear()
	return nil
}
