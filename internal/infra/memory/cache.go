// Package memory provides in-process implementations of the persistence and
// cache capabilities, used by tests and single-node development runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"docquiz-service/internal/domain"
)

// Cache is a mutex-guarded string map with the same miss semantics as the
// Redis tier.
type Cache struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]string)}
}

func (c *Cache) GetItem(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	if !ok {
		return "", fmt.Errorf("cache get %s: %w", key, domain.ErrCacheMiss)
	}
	return val, nil
}

func (c *Cache) SetItem(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *Cache) RemoveItem(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
