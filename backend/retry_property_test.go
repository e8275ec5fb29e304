package backend

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// timeoutErr is a minimal net.Error whose Timeout() is configurable, for
// property-testing isRetryableErr against arbitrary timeout/non-timeout
// transport failures without depending on a real dialer.
type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "synthetic transport error" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return e.timeout }

var _ net.Error = timeoutErr{}

// TestIsRetryableErrProperty verifies spec.md §4.3's retry policy
// classification, grounded on the teacher's retry.IsRetryable property test
// (runtime/a2a/retry/retry_test.go TestIsRetryableProperty): nil and
// context.Canceled are never retryable, context.DeadlineExceeded and any
// net.Error reporting Timeout()=true always are.
func TestIsRetryableErrProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("nil error is never retryable", prop.ForAll(
		func(_ int) bool {
			return !isRetryableErr(nil)
		},
		gen.Int(),
	))

	properties.Property("context.Canceled is never retryable", prop.ForAll(
		func(_ int) bool {
			return !isRetryableErr(context.Canceled)
		},
		gen.Int(),
	))

	properties.Property("context.DeadlineExceeded is always retryable", prop.ForAll(
		func(_ int) bool {
			return isRetryableErr(context.DeadlineExceeded)
		},
		gen.Int(),
	))

	properties.Property("for a net.Error that is not a connection error, its Timeout() bit decides retryability", prop.ForAll(
		func(timeout bool) bool {
			return isRetryableErr(timeoutErr{timeout: timeout}) == timeout
		},
		gen.Bool(),
	))

	properties.Property("an unclassified transport error is always retryable", prop.ForAll(
		func(msg string) bool {
			return isRetryableErr(errors.New(msg))
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestStatusRetryableProperty verifies spec.md §4.3's status-code half of
// the same policy: every 5xx is retried, 404 and 401 never are.
func TestStatusRetryableProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("any 5xx status is retryable", prop.ForAll(
		func(offset int) bool {
			return statusRetryable(http.StatusInternalServerError + offset)
		},
		gen.IntRange(0, 99),
	))

	properties.Property("404 and 401 are never retryable", prop.ForAll(
		func(notFound bool) bool {
			if notFound {
				return !statusRetryable(http.StatusNotFound)
			}
			return !statusRetryable(http.StatusUnauthorized)
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}
