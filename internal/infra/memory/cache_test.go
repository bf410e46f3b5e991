package memory

import (
	"context"
	"errors"
	"testing"

	"docquiz-service/internal/domain"
)

func TestCacheMissAndRoundTrip(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	if _, err := cache.GetItem(ctx, "quiz_q1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := cache.SetItem(ctx, "quiz_q1", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, err := cache.GetItem(ctx, "quiz_q1")
	if err != nil || val != "v" {
		t.Fatalf("get returned %q, %v", val, err)
	}
	if err := cache.RemoveItem(ctx, "quiz_q1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := cache.GetItem(ctx, "quiz_q1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss after remove, got %v", err)
	}
}
