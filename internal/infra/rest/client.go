// Package rest talks to the hosted persistence API: PostgREST-style record
// collections plus object storage, authenticated with a service key. Every
// call goes through the shared retry policy, so transient failures and 5xx
// responses are absorbed up to the attempt budget while client errors
// surface immediately.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"docquiz-service/internal/domain"
	"docquiz-service/internal/retry"
)

// Client carries the connection details shared by the record and blob stores.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retrier *retry.Retrier
	log     logrus.FieldLogger
}

// NewClient builds a client for the API at baseURL. A nil httpClient falls
// back to http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client, retrier *retry.Retrier, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		http:    httpClient,
		retrier: retrier,
		log:     log,
	}
}

// do performs one API call under the retry policy and returns the response
// body plus its content type. The request body is buffered so each attempt
// replays it from the start.
func (c *Client) do(ctx context.Context, op, method, path string, header map[string]string, body []byte) ([]byte, string, error) {
	var (
		out         []byte
		contentType string
	)

	err := c.retrier.Do(ctx, op, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("%s: build request: %w", op, err)
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		for k, v := range header {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return &domain.TransportError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &domain.TransportError{Op: op, Err: err}
		}
		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			out = data
			contentType = resp.Header.Get("Content-Type")
			return nil
		}
		return statusError(op, resp.StatusCode, data)
	})
	if err != nil {
		return nil, "", err
	}
	return out, contentType, nil
}

// statusError maps an API status to the domain taxonomy. Conflicts and
// missing records become sentinels callers branch on, remaining 4xx are
// definitive rejections, 5xx stay retryable.
func statusError(op string, status int, body []byte) error {
	switch {
	case status == http.StatusConflict:
		return fmt.Errorf("%s: %w", op, domain.ErrStorageConflict)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case status >= 400 && status < 500:
		return &domain.ValidationError{Reason: fmt.Sprintf("%s: remote rejected request (%d): %s", op, status, errMessage(body))}
	default:
		return &domain.TransportError{Op: op, Status: status}
	}
}

// errMessage digs the human-readable message out of an API error body.
func errMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
