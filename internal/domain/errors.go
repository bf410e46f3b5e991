package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a record absent from both the remote store and the cache.
	ErrNotFound = errors.New("record not found")
	// ErrStorageConflict indicates a blob upload hit an existing object key.
	ErrStorageConflict = errors.New("storage object already exists")
	// ErrCacheMiss indicates the cache has no entry for a key.
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError marks bad caller input or a definitive upstream rejection
// (4xx). It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a transport-level failure or an HTTP status from a
// remote call. Status 0 means the request never produced a response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: remote returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed:
// connection-level failures and 5xx responses qualify, client errors do not.
func (e *TransportError) Retryable() bool {
	return e.Status == 0 || e.Status >= 500
}

// PersistenceError marks a remote write that failed after a prerequisite step
// already took effect. Earlier side effects are not rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsRetryable classifies an error for the retry policy. Per-attempt timeouts
// count as transport failures; a canceled parent context does not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
