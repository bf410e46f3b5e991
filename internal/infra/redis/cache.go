// Package redis implements the local cache capability on Redis. Entries
// expire with a jittered TTL so a popular deployment does not dump its whole
// cache at once.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"docquiz-service/internal/domain"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCache wraps client. ttl <= 0 disables expiry.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Cache) GetItem(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("cache get %s: %w", key, domain.ErrCacheMiss)
	}
	if err != nil {
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

func (c *Cache) SetItem(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, c.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) RemoveItem(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", key, err)
	}
	return nil
}

func (c *Cache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	jitter := time.Duration(c.rnd.Int63n(jitterMax + 1))
	c.mu.Unlock()
	return c.ttl + jitter
}
