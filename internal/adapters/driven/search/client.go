// Package search implements the driven ports against the remote search
// service's versioned HTTP+JSON API. Every request carries the api-version
// query parameter and the service-key header; non-success responses are
// surfaced with status and body verbatim, never swallowed.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of attempts for idempotent reads
	// that fail with a 5xx or transport error. 4xx responses are never
	// retried: they are deterministic.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// ProactiveRate throttles outgoing calls to stay well under the
	// service's request limits during full applies.
	ProactiveRate = 5.0

	// HeaderAPIKey is the service-key header sent on every request.
	HeaderAPIKey = "api-key"

	// HeaderQuerySourceAuthorization carries the delegated user token on
	// permission-filtered queries. The value is the raw token with no
	// scheme prefix; this is how the permission-filtered query path
	// expects it, unlike a standard bearer header.
	HeaderQuerySourceAuthorization = "x-ms-query-source-authorization"

	// HeaderElevatedRead requests an ACL-bypassing read for callers
	// holding the elevated read role.
	HeaderElevatedRead = "x-ms-enable-elevated-read"
)

// Client is the HTTP client for the search service.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client from the resolved configuration.
func NewClient(cfg *domain.Configuration) *Client {
	return &Client{
		endpoint:   cfg.SearchEndpoint,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// response is a fully-read HTTP response.
type response struct {
	status int
	body   []byte
}

// do sends one request. Idempotent GETs are retried with exponential
// backoff on 5xx and transport errors, bounded by MaxRetries.
func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := RetryDelay << (attempt - 2)
			logger.Warn("retrying %s %s in %s (attempt %d/%d): %v", method, path, delay, attempt, attempts, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, method, path, payload, headers)
		if err != nil {
			lastErr = err
			continue
		}
		if method == http.MethodGet && (resp.status >= 500 || resp.status == http.StatusTooManyRequests) {
			lastErr = fmt.Errorf("server error %d: %s", resp.status, resp.body)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%s %s: %w", method, path, lastErr)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, headers map[string]string) (*response, error) {
	url := c.endpoint + path
	if c.apiVersion != "" {
		url += "?api-version=" + c.apiVersion
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// apiError converts a non-success response into a RemoteAPIError carrying
// the resource, action, status and body so the failure is actionable.
func apiError(resource, action string, resp *response) error {
	if resp.status == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", action, resource, domain.ErrNotFound)
	}
	return &domain.RemoteAPIError{
		Resource:   resource,
		Action:     action,
		StatusCode: resp.status,
		Body:       string(resp.body),
	}
}

// success reports whether the status is one of the accepted codes.
func success(status int, accepted ...int) bool {
	for _, a := range accepted {
		if status == a {
			return true
		}
	}
	return false
}
