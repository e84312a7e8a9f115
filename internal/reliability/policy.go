// Package reliability wraps fallible operations with bounded retry,
// exponential backoff, and graceful degradation, recording statistics to
// diagnose systemic problems.
package reliability

import (
	"math"
	"time"
)

// Policy defines the retry behavior for a wrapper.
type Policy struct {
	// MaxRetries is the total attempt budget per invocation.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// BackoffMultiplier scales the delay for each further retry.
	BackoffMultiplier float64
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
}

// DefaultPolicy returns the standard policy: 3 attempts with delays of
// 1s, 2s, 4s between them, capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		BackoffMultiplier: 2,
		MaxDelay:          10 * time.Second,
	}
}

// WithMaxRetries sets the attempt budget.
func (p Policy) WithMaxRetries(maxRetries int) Policy {
	p.MaxRetries = maxRetries
	return p
}

// WithBaseDelay sets the delay before the first retry.
func (p Policy) WithBaseDelay(baseDelay time.Duration) Policy {
	p.BaseDelay = baseDelay
	return p
}

// WithMaxDelay sets the delay cap.
func (p Policy) WithMaxDelay(maxDelay time.Duration) Policy {
	p.MaxDelay = maxDelay
	return p
}

// normalized fills zero fields from the default policy.
func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxRetries <= 0 {
		p.MaxRetries = def.MaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.BackoffMultiplier <= 0 {
		p.BackoffMultiplier = def.BackoffMultiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// Backoff returns the delay after the given failed attempt (1-based):
// min(BaseDelay * BackoffMultiplier^(attempt-1), MaxDelay).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}
