package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dentaware/assistd/internal/domain"
)

// Cache implements domain.LocalCache as a plain string-keyed map.
type Cache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("cache key %q: %w", key, domain.ErrNotFound)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	c.data[key] = v
	return nil
}

func (c *Cache) Close() error {
	return nil
}
