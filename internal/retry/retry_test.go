package retry_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"docquiz-service/internal/domain"
	"docquiz-service/internal/retry"
)

func newTestRetrier(policy retry.Policy) *retry.Retrier {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return retry.New(policy, log)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	r := newTestRetrier(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	calls := 0
	err := r.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &domain.TransportError{Op: "fetch", Status: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	r := newTestRetrier(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})

	calls := 0
	wantErr := &domain.ValidationError{Reason: "quiz id is required"}
	err := r.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected validation error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	r := newTestRetrier(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	calls := 0
	err := r.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return &domain.TransportError{Op: "fetch", Err: errors.New("connection reset")}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestDoStopsWhenParentContextCanceled(t *testing.T) {
	r := newTestRetrier(retry.Policy{MaxAttempts: 3, BaseDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, "fetch", func(ctx context.Context) error {
		calls++
		return &domain.TransportError{Op: "fetch", Status: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call before aborting, got %d", calls)
	}
}

func TestDoRetriesPerAttemptTimeouts(t *testing.T) {
	r := newTestRetrier(retry.Policy{
		MaxAttempts:   2,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		PerTryTimeout: 10 * time.Millisecond,
	})

	calls := 0
	err := r.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
