package rest_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
	"docquiz-service/internal/infra/rest"
	"docquiz-service/internal/retry"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *rest.Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	retrier := retry.New(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, log)
	return rest.NewClient("http://api.test", "service-key", &http.Client{Transport: rt}, retrier, log)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	calls := 0
	store := rest.NewRecordStore(newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusServiceUnavailable, `{"message":"overloaded"}`), nil
	})))

	var dest map[string]any
	err := store.Get(context.Background(), "quizzes", "q1", &dest)
	if err == nil {
		t.Fatal("expected error for persistent 503")
	}
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	store := rest.NewRecordStore(newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadRequest, `{"message":"malformed filter"}`), nil
	})))

	var dest map[string]any
	err := store.Get(context.Background(), "quizzes", "q1", &dest)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestGetRecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	store := rest.NewRecordStore(newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return jsonResponse(http.StatusOK, `[{"id":"q1","title":"Biology"}]`), nil
	})))

	var dest struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := store.Get(context.Background(), "quizzes", "q1", &dest); err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if dest.Title != "Biology" {
		t.Fatalf("unexpected record decoded: %+v", dest)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGetEmptyResultIsNotFound(t *testing.T) {
	store := rest.NewRecordStore(newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[]`), nil
	})))

	var dest map[string]any
	err := store.Get(context.Background(), "quizzes", "missing", &dest)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadConflictSurfacesSentinel(t *testing.T) {
	calls := 0
	blobs := rest.NewBlobStore(newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusConflict, `{"message":"Duplicate"}`), nil
	})))

	err := blobs.Upload(context.Background(), "documents", "123_notes.pdf", []byte("%PDF"), "application/pdf")
	if !errors.Is(err, domain.ErrStorageConflict) {
		t.Fatalf("expected ErrStorageConflict, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("conflict must not be retried, got %d attempts", calls)
	}
}

func TestRequestShape(t *testing.T) {
	var captured *http.Request
	store := rest.NewRecordStore(newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		captured = r
		return jsonResponse(http.StatusOK, `[]`), nil
	})))

	var dest []map[string]any
	err := store.List(context.Background(), "quizzes", app.ListQuery{
		Filters: map[string]string{"owner_id": "u1"},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   10,
		Offset:  20,
	}, &dest)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if captured.Header.Get("apikey") != "service-key" {
		t.Fatalf("missing apikey header, got %q", captured.Header.Get("apikey"))
	}
	if captured.Header.Get("Authorization") != "Bearer service-key" {
		t.Fatalf("missing bearer header, got %q", captured.Header.Get("Authorization"))
	}
	if captured.URL.Path != "/rest/v1/quizzes" {
		t.Fatalf("unexpected path %q", captured.URL.Path)
	}
	q := captured.URL.Query()
	if q.Get("owner_id") != "eq.u1" || q.Get("order") != "created_at.desc" {
		t.Fatalf("unexpected query %q", captured.URL.RawQuery)
	}
	if q.Get("limit") != "10" || q.Get("offset") != "20" {
		t.Fatalf("unexpected paging %q", captured.URL.RawQuery)
	}
}
