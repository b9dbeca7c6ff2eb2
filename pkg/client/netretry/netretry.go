// Package netretry classifies registry and daemon errors and retries transient ones.
//
// Transient errors (HTTP 5xx, connection resets, timeouts) are retried up to a
// caller supplied count. Authentication failures are never retried and are
// surfaced wrapped in [ErrUnauthorized] so callers can print actionable guidance.
package netretry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

const (
	// DefaultBaseWait is the first retry delay.
	DefaultBaseWait = 500 * time.Millisecond
	// DefaultMaxWait caps the retry delay.
	DefaultMaxWait = 10 * time.Second
)

// ErrUnauthorized marks registry authentication and authorization failures.
var ErrUnauthorized = errors.New("registry authentication failed")

// ErrRetriesExhausted is returned when every attempt failed with a transient error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// httpStatusCodePattern matches HTTP 5xx status codes at word boundaries
// to avoid false positives on port numbers like ":5000".
var httpStatusCodePattern = regexp.MustCompile(`\b50[0-4]\b`)

// IsRetryable returns true if the error indicates a transient network error.
// Authentication failures are never retryable.
func IsRetryable(err error) bool {
	if err == nil || IsUnauthorized(err) {
		return false
	}

	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		return transportErr.Temporary() || transportErr.StatusCode >= http.StatusInternalServerError
	}

	if cerrdefs.IsUnavailable(err) || cerrdefs.IsDeadlineExceeded(err) {
		return true
	}

	errMsg := err.Error()

	textPatterns := []string{
		"Internal Server Error", "Bad Gateway",
		"Service Unavailable", "Gateway Timeout",
		"connection reset by peer", "connection refused",
		"i/o timeout", "TLS handshake timeout",
		"unexpected EOF", "no such host", "broken pipe",
		"context deadline exceeded",
	}

	for _, pattern := range textPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return httpStatusCodePattern.MatchString(errMsg)
}

// IsUnauthorized reports whether err is an authentication or authorization failure,
// as reported by the Docker daemon, the registry API or wrapped by this package.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUnauthorized) || cerrdefs.IsUnauthorized(err) || cerrdefs.IsPermissionDenied(err) {
		return true
	}

	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode == http.StatusUnauthorized ||
			transportErr.StatusCode == http.StatusForbidden
	}

	errMsg := strings.ToLower(err.Error())

	for _, pattern := range []string{
		"unauthorized", "authentication required", "denied: requested access",
		"incorrect username or password", "no basic auth credentials",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// ExponentialDelay returns the delay for the given retry attempt
// using exponential backoff: min(baseWait * 2^(attempt-1), maxWait).
func ExponentialDelay(
	attempt int,
	baseWait, maxWait time.Duration,
) time.Duration {
	return min(baseWait*time.Duration(1<<(attempt-1)), maxWait)
}

// Policy configures Do.
type Policy struct {
	// Retries is the number of additional attempts after the first one.
	Retries int
	// BaseWait is the first retry delay.
	BaseWait time.Duration
	// MaxWait caps the retry delay.
	MaxWait time.Duration
}

// NewPolicy returns a policy with the default delays.
func NewPolicy(retries int) Policy {
	return Policy{Retries: max(retries, 0), BaseWait: DefaultBaseWait, MaxWait: DefaultMaxWait}
}

// Do runs operation until it succeeds, fails with a non-transient error, or the
// retries are used up. Authentication failures return immediately wrapped in
// ErrUnauthorized. Exhausted retries wrap the last error in ErrRetriesExhausted.
func Do(ctx context.Context, policy Policy, operation func(attempt int) error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(ExponentialDelay(attempt, policy.BaseWait, policy.MaxWait))

			select {
			case <-ctx.Done():
				timer.Stop()

				return fmt.Errorf("retry cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
			case <-timer.C:
			}
		}

		lastErr = operation(attempt)
		if lastErr == nil {
			return nil
		}

		if IsUnauthorized(lastErr) {
			if errors.Is(lastErr, ErrUnauthorized) {
				return lastErr
			}

			return fmt.Errorf("%w: %w", ErrUnauthorized, lastErr)
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}
	}

	if policy.Retries == 0 {
		return lastErr
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, policy.Retries+1, lastErr)
}
