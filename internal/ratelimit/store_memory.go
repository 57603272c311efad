package ratelimit

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryStoreCheckPeriod = time.Minute

// MemoryStore keeps attempt sequences in process memory. Entries expire
// naturally once a client has been idle for the full window.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory attempt store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, memoryStoreCheckPeriod),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]time.Time, error) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, nil
	}
	return v.([]time.Time), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, attempts []time.Time, ttl time.Duration) error {
	s.cache.Set(key, attempts, ttl)
	return nil
}
