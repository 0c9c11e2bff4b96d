// Package apierr defines the failure kinds shared by every provider client.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotConfigured is returned without any I/O when a client has no credential.
var ErrNotConfigured = eris.New("provider not configured")

// HTTPError is a non-2xx response that is not a rate limit.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 300))
}

// RateLimitedError is a 429 response.
type RateLimitedError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited (retry after %s)", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// ParseError is a response whose payload did not have the expected shape.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotConfigured wraps ErrNotConfigured with the provider name.
func NotConfigured(provider string) error {
	return eris.Wrap(ErrNotConfigured, provider)
}

// NewParseError wraps err as a ParseError for provider.
func NewParseError(provider string, err error) error {
	return &ParseError{Provider: provider, Err: err}
}

// FromResponse maps a non-2xx response to RateLimitedError or HTTPError.
// It returns nil for 2xx statuses.
func FromResponse(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitedError{Provider: provider, RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
	}
	return &HTTPError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
}

// IsNotConfigured reports whether err is a missing-credential failure.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsRateLimited reports whether err is a 429 failure.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// IsParse reports whether err is a payload-shape failure.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	if IsRateLimited(err) {
		return http.StatusTooManyRequests
	}
	return 0
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
