package cachestore

import (
	"context"
	"sync"
)

// MemoryStorage keeps namespaces in process memory. Snapshots do not survive
// a restart; use SQLiteStorage where durability matters.
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(name string) Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[name]; ok {
		return c
	}
	c := &memoryCache{entries: make(map[string]*ResponseSnapshot)}
	s.caches[name] = c
	return c
}

func (s *MemoryStorage) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	return names, nil
}

func (s *MemoryStorage) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, name)
	return nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*ResponseSnapshot
}

func (c *memoryCache) Match(ctx context.Context, url string) (*ResponseSnapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot, ok := c.entries[url]
	if !ok {
		return nil, false, nil
	}
	cp := *snapshot
	return &cp, true, nil
}

func (c *memoryCache) Put(ctx context.Context, snapshot *ResponseSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *snapshot
	c.entries[snapshot.URL] = &cp
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
	return nil
}

func (c *memoryCache) Keys(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for url := range c.entries {
		keys = append(keys, url)
	}
	return keys, nil
}
