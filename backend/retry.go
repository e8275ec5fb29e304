// Package backend implements the Backend Client (BC): an async
// JSON-over-HTTP client for the upstream booking/meetings backend, with
// bearer/API-key auth, exponential backoff, and 429 honoring (spec.md §4.3).
package backend

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"time"
)

// RetryConfig configures the exponential-backoff retry policy, grounded on
// the teacher's runtime/a2a/retry.Config.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Base is the base backoff duration; attempt n waits Base * 2^n.
	Base time.Duration
}

// DefaultRetryConfig matches spec.md §4.3: up to 3 attempts, base 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Base: time.Second}
}

// backoff returns the exponential delay before the given zero-indexed retry attempt.
func (c RetryConfig) backoff(attempt int) time.Duration {
	return time.Duration(float64(c.Base) * math.Pow(2, float64(attempt)))
}

// isRetryableErr reports whether a transport-level error (as opposed to an
// HTTP status code) should be retried: timeouts and connection errors
// (spec.md §4.3), never context cancellation.
func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true // connection errors (refused, reset, EOF) are retried
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.Temporary()
	}
	return true // other unclassified transport errors are retried
}

// statusRetryable reports whether an HTTP status code should trigger a retry
// under spec.md §4.3: timeouts/connection errors and 5xx are retried; 404
// and 401 never are; 429 is handled separately via Retry-After.
func statusRetryable(status int) bool {
	return status >= 500
}

var errAuthFailed = errors.New("backend: authentication failed")
var errNotFound = errors.New("backend: resource not found")

// retryAfterSeconds parses the Retry-After header as an integer number of
// seconds, defaulting to 1 if absent or unparsable.
func retryAfterSeconds(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return time.Second
	}
	var secs int
	for _, r := range raw {
		if r < '0' || r > '9' {
			return time.Second
		}
		secs = secs*10 + int(r-'0')
	}
	if secs <= 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}
