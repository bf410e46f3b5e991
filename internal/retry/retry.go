// Package retry runs operations against flaky upstreams with bounded
// attempts and jittered exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"docquiz-service/internal/domain"
)

// Policy bounds the attempts and delays of a Retrier.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	PerTryTimeout time.Duration
}

// DefaultPolicy returns the policy used for remote calls: three attempts
// total, 500ms base delay doubling up to 8s, 30s per-attempt timeout.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      8 * time.Second,
		PerTryTimeout: 30 * time.Second,
	}
}

// Retrier executes functions under a Policy. Safe for concurrent use.
type Retrier struct {
	policy Policy
	log    logrus.FieldLogger

	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a Retrier. Zero policy fields fall back to DefaultPolicy values.
func New(policy Policy, log logrus.FieldLogger) *Retrier {
	def := DefaultPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}
	if policy.PerTryTimeout <= 0 {
		policy.PerTryTimeout = def.PerTryTimeout
	}
	return &Retrier{
		policy: policy,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do runs fn under a per-attempt deadline, retrying while the returned error
// is retryable per domain.IsRetryable. Client errors surface immediately.
// Exhausting all attempts wraps the last error with the attempt count.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.policy.PerTryTimeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !domain.IsRetryable(err) {
			return err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt)
		r.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"delay":   delay.String(),
		}).WithError(err).Warn("Retrying after transient failure")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, r.policy.MaxAttempts, lastErr)
}

// delayFor computes base * 2^(attempt-1) capped at MaxDelay, plus random
// jitter up to 30% so concurrent callers do not retry in lockstep.
func (r *Retrier) delayFor(attempt int) time.Duration {
	delay := r.policy.BaseDelay << (attempt - 1)
	if delay > r.policy.MaxDelay || delay <= 0 {
		delay = r.policy.MaxDelay
	}
	jitterMax := int64(delay) * 3 / 10
	r.mu.Lock()
	jitter := time.Duration(r.rnd.Int63n(jitterMax + 1))
	r.mu.Unlock()
	return delay + jitter
}
