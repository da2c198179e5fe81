package retry

// Package retry decides whether a failed download attempt should be retried
// and how long to wait before the next attempt.

import (
	"time"

	"github.com/udownload/udownload/internal/model"
)

// Default backoff parameters
const (
	DefaultBackoff    = 2 * time.Second
	DefaultMaxBackoff = 30 * time.Second
)

// Policy decides whether and when a failed attempt is retried. attempt is
// the 1-based count of attempts already made.
type Policy interface {
	ShouldRetry(attempt int, kind model.ErrorKind, maxRetries int) bool
	BackoffDelay(attempt int) time.Duration
}

// ExponentialPolicy doubles the delay on every attempt up to a ceiling.
// The curve is deterministic so tests reproduce.
type ExponentialPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// NewExponentialPolicy creates a policy with the given base delay and ceiling.
// Non-positive values fall back to the defaults.
func NewExponentialPolicy(base, max time.Duration) *ExponentialPolicy {
	if base <= 0 {
		base = DefaultBackoff
	}
	if max <= 0 {
		max = DefaultMaxBackoff
	}
	return &ExponentialPolicy{Base: base, Max: max}
}

// ShouldRetry allows another attempt only for transient failures while the
// attempt budget (maxRetries + 1 total attempts) is not exhausted.
func (p *ExponentialPolicy) ShouldRetry(attempt int, kind model.ErrorKind, maxRetries int) bool {
	if !kind.Retryable() {
		return false
	}
	return attempt < maxRetries+1
}

// BackoffDelay returns Base doubled attempt-1 times, capped at Max.
func (p *ExponentialPolicy) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Max {
			return p.Max
		}
	}
	if delay > p.Max {
		return p.Max
	}
	return delay
}
