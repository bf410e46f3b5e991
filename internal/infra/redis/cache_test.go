package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"docquiz-service/internal/domain"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewCache(newClient(mr), time.Minute)
	ctx := context.Background()

	if _, err := cache.GetItem(ctx, "quiz_q1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := cache.SetItem(ctx, "quiz_q1", `{"id":"q1"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, err := cache.GetItem(ctx, "quiz_q1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val != `{"id":"q1"}` {
		t.Fatalf("unexpected value %q", val)
	}

	if err := cache.RemoveItem(ctx, "quiz_q1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := cache.GetItem(ctx, "quiz_q1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss after remove, got %v", err)
	}
}

func TestCacheEntriesExpire(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ttl := time.Minute
	cache := NewCache(newClient(mr), ttl)
	ctx := context.Background()

	if err := cache.SetItem(ctx, "quiz_q1", "cached"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// Jitter adds at most ttl/10, so doubling the TTL is safely past expiry.
	mr.FastForward(2 * ttl)

	if _, err := cache.GetItem(ctx, "quiz_q1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestCacheWithoutTTLKeepsEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewCache(newClient(mr), 0)
	ctx := context.Background()

	if err := cache.SetItem(ctx, "quizList", "[]"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(24 * time.Hour)

	if _, err := cache.GetItem(ctx, "quizList"); err != nil {
		t.Fatalf("expected persistent entry, got %v", err)
	}
}
